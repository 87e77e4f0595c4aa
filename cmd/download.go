package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"repodump/internal/config"
	"repodump/internal/downloader"
	"repodump/internal/history"
	"repodump/internal/platform"
	"repodump/internal/progress"
	"repodump/internal/tui"
	"repodump/models"
)

var (
	downloadToken     string
	downloadHost      string
	downloadOutputDir string
	downloadParallel  int
	downloadNoForks   bool
	downloadNoArch    bool
	downloadHeadless  bool
)

var downloadCmd = &cobra.Command{
	Use:   "download [platform] [username]",
	Short: "Clone every repository of an account",
	Long: `Lists all repositories of a user, organisation or group and clones
them into <base>/<platform>/<owner>/<name>. Repositories that already
exist locally are reported as conflicts and left untouched; individual
failures never abort the batch.

Without arguments every target from the config file is downloaded.

Examples:
  repodump download github torvalds
  repodump download gitlab widgets --host git.corp.example
  repodump download github acme --no-forks --max-parallel 10
  repodump download --headless`,
	Args: cobra.MaximumNArgs(2),
	RunE: runDownload,
}

func init() {
	downloadCmd.Flags().StringVar(&downloadToken, "token", "",
		"API token (overrides config; anonymous access lists public repos only)")
	downloadCmd.Flags().StringVar(&downloadHost, "host", "",
		"self-hosted instance hostname (e.g. git.corp.example)")
	downloadCmd.Flags().StringVarP(&downloadOutputDir, "output-dir", "o", "",
		"base directory for clones (overrides config)")
	downloadCmd.Flags().IntVarP(&downloadParallel, "max-parallel", "p", 0,
		"simultaneous clones, 1-20 (overrides config)")
	downloadCmd.Flags().BoolVar(&downloadNoForks, "no-forks", false,
		"skip forked repositories")
	downloadCmd.Flags().BoolVar(&downloadNoArch, "no-archived", false,
		"skip archived repositories")
	downloadCmd.Flags().BoolVar(&downloadHeadless, "headless", false,
		"plain line-by-line output instead of the live dashboard")
}

func runDownload(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	targets, err := resolveTargets(cfg, args)
	if err != nil {
		return err
	}

	store, err := history.New(cfg.History)
	if err != nil {
		// History is best-effort; a broken store must not block downloads.
		slog.Warn("History store unavailable, runs will not be recorded", "error", err)
		store = nil
	} else {
		defer store.Close()
	}

	var totalIssues, totalRepos int
	for _, target := range targets {
		results, err := downloadTarget(ctx, cfg, store, target)
		if err != nil {
			return err
		}
		totalIssues += len(results.Issues)
		totalRepos += results.Total()
	}

	if totalIssues > 0 {
		return fmt.Errorf("%d of %d repositories failed", totalIssues, totalRepos)
	}
	return nil
}

// resolveTargets turns CLI args (or the configured targets) into the list
// of accounts to download.
func resolveTargets(cfg *config.Config, args []string) ([]config.Target, error) {
	if len(args) == 2 {
		p := models.Platform(args[0])
		if !p.Valid() {
			return nil, fmt.Errorf("unsupported platform %q (supported: github, gitlab)", args[0])
		}
		return []config.Target{{
			Platform: string(p),
			Username: args[1],
			Host:     downloadHost,
		}}, nil
	}
	if len(args) == 1 {
		return nil, fmt.Errorf("expected both platform and username, got only %q", args[0])
	}
	if len(cfg.Targets) == 0 {
		return nil, fmt.Errorf("no targets configured; run `repodump init` or pass: repodump download <platform> <username>")
	}
	return cfg.Targets, nil
}

func downloadTarget(ctx context.Context, cfg *config.Config, store history.Store, target config.Target) (*downloader.Results, error) {
	p := models.Platform(target.Platform)

	token := downloadToken
	if token == "" {
		token = cfg.Credentials.TokenFor(p)
	}

	client, err := platform.New(p, token, target.Host)
	if err != nil {
		return nil, err
	}

	filters := platform.Filters{
		ExcludeForks:    downloadNoForks || !cfg.Download.IncludeForks || target.Filters.ExcludeForks(),
		ExcludeArchived: downloadNoArch || target.Filters.ExcludeArchived(),
	}

	slog.Debug("Listing repositories",
		"platform", p, "username", target.Username, "host", target.Host)
	repos, err := client.ListRepos(ctx, target.Username, filters)
	if err != nil {
		return nil, fmt.Errorf("listing repositories for %s/%s: %w", p, target.Username, err)
	}
	if len(repos) == 0 {
		fmt.Printf("No repositories found for %s/%s\n", p, target.Username)
		return &downloader.Results{}, nil
	}

	baseDir := cfg.Download.BaseDirectory
	if downloadOutputDir != "" {
		baseDir = downloadOutputDir
	}
	maxParallel := cfg.Download.MaxParallel
	if downloadParallel != 0 {
		maxParallel = downloadParallel
	}

	eng, err := downloader.New(downloader.Config{
		BaseDirectory: baseDir,
		MaxParallel:   maxParallel,
		Token:         token,
	})
	if err != nil {
		return nil, err
	}

	started := time.Now()
	var results *downloader.Results
	if downloadHeadless || !isTerminal() {
		results, err = runHeadless(ctx, eng, repos, p, target.Username, maxParallel)
	} else {
		results, err = tui.Run(ctx, eng, repos)
	}
	if err != nil {
		return nil, fmt.Errorf("downloading %s/%s: %w", p, target.Username, err)
	}
	finished := time.Now()

	printSummary(results, finished.Sub(started))
	recordRun(ctx, store, target, results, started, finished)
	return results, nil
}

func runHeadless(ctx context.Context, eng *downloader.Engine, repos []models.Repo, p models.Platform, username string, parallel int) (*downloader.Results, error) {
	var logSink io.Writer
	if dir, err := config.LogDir(); err == nil {
		if f, err := progress.OpenLogFile(dir); err == nil {
			defer f.Close()
			logSink = f
		}
	}

	printer := progress.NewPrinter(os.Stdout, logSink, len(repos))
	printer.Header(p, username, parallel)
	return eng.DownloadAll(ctx, repos, printer.Callback())
}

func printSummary(results *downloader.Results, elapsed time.Duration) {
	fmt.Printf("\n%d succeeded, %d failed in %s\n",
		len(results.Successful), len(results.Issues), elapsed.Round(time.Second))
	for kind, count := range results.IssueCounts() {
		fmt.Printf("  %s: %d\n", kind, count)
	}
	for _, issue := range results.Issues {
		fmt.Printf("  ✗ %s (%s): %s\n", issue.Repo.FullName(), issue.Kind, issue.Message)
	}
}

func recordRun(ctx context.Context, store history.Store, target config.Target, results *downloader.Results, started, finished time.Time) {
	if store == nil {
		return
	}
	_, err := store.SaveRun(ctx, history.Run{
		Platform:   target.Platform,
		Username:   target.Username,
		StartedAt:  started,
		FinishedAt: finished,
		Total:      results.Total(),
		Succeeded:  len(results.Successful),
		Failed:     len(results.Issues),
	}, results.Issues)
	if err != nil {
		slog.Warn("Failed to record run history", "error", err)
	}
}

func isTerminal() bool {
	info, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
