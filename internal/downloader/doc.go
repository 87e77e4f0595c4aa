// Package downloader implements the bulk download engine: it fans a batch
// of repository descriptors out across a bounded pool of clone workers,
// classifies failures without aborting the batch, and aggregates the
// per-repository outcomes.
//
// The engine is the embeddable core of repodump. It consumes a flat list of
// models.Repo produced elsewhere (see internal/platform), a Config with the
// base directory, parallelism bound and optional token, and an optional
// progress callback. It owns no global state: construct one Engine per
// configuration and call DownloadAll.
//
//	eng, err := downloader.New(downloader.Config{
//	    BaseDirectory: "./repos",
//	    MaxParallel:   5,
//	})
//	results, err := eng.DownloadAll(ctx, repos, nil)
//
// A destination that already exists is always reported as a conflict, never
// overwritten or updated. Re-running a batch after a successful download
// therefore reports a conflict for every previously cloned repository.
package downloader
