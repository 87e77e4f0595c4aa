package cmd

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"repodump/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Interactive setup wizard",
	Long: `Walks you through configuring repodump:
  - API tokens for GitHub and GitLab (optional, public repos work without)
  - Base directory for downloaded repositories
  - Parallelism and filter defaults
  - A first download target

The result is written to ~/.repodump/config.yaml.`,
	RunE: runInit,
}

var headerStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("#14B8A6")).
	MarginBottom(1)

var successStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("#10B981"))

var hintStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("#6B7280"))

func runInit(cmd *cobra.Command, args []string) error {
	fmt.Println()
	fmt.Println(headerStyle.Render("  repodump — bulk repository downloader"))
	fmt.Println(hintStyle.Render("  Clones every repository of an account into a local tree.\n"))

	// Start from the existing config so re-running keeps earlier answers.
	cfg, err := config.Load(cfgFile)
	if err != nil {
		cfg = &config.Config{
			Download: config.DownloadConfig{
				BaseDirectory: "./repos",
				MaxParallel:   5,
				IncludeForks:  true,
			},
			History: config.HistoryConfig{Driver: "sqlite"},
		}
	}

	githubToken := cfg.Credentials.GitHubToken
	gitlabToken := cfg.Credentials.GitLabToken
	baseDir := cfg.Download.BaseDirectory
	parallel := strconv.Itoa(cfg.Download.MaxParallel)
	includeForks := cfg.Download.IncludeForks

	credentials := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("GitHub token (leave blank for anonymous access)").
				Description("Needed for private repositories and higher rate limits.").
				Placeholder("ghp_...  (optional)").
				EchoMode(huh.EchoModePassword).
				Value(&githubToken),
			huh.NewInput().
				Title("GitLab token (leave blank for anonymous access)").
				Placeholder("glpat-...  (optional)").
				EchoMode(huh.EchoModePassword).
				Value(&gitlabToken),
		),
	)
	if err := credentials.Run(); err != nil {
		return fmt.Errorf("running setup form: %w", err)
	}

	defaults := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Base directory").
				Description("Repositories land under <base>/<platform>/<owner>/<name>.").
				Value(&baseDir).
				Validate(func(s string) error {
					if s == "" {
						return fmt.Errorf("base directory is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Parallel downloads (1-20)").
				Value(&parallel).
				Validate(func(s string) error {
					n, err := strconv.Atoi(s)
					if err != nil || n < 1 || n > 20 {
						return fmt.Errorf("enter a number between 1 and 20")
					}
					return nil
				}),
			huh.NewConfirm().
				Title("Include forked repositories?").
				Value(&includeForks),
		),
	)
	if err := defaults.Run(); err != nil {
		return fmt.Errorf("running setup form: %w", err)
	}

	var addTarget bool
	var targetPlatform, targetUsername string
	targetForm := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Add a download target now?").
				Description("Targets let `repodump download` run without arguments.").
				Value(&addTarget),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Platform").
				Options(
					huh.NewOption("GitHub", "github"),
					huh.NewOption("GitLab", "gitlab"),
				).
				Value(&targetPlatform),
			huh.NewInput().
				Title("User / organisation / group").
				Value(&targetUsername).
				Validate(func(s string) error {
					if s == "" {
						return fmt.Errorf("username is required")
					}
					return nil
				}),
		).WithHideFunc(func() bool { return !addTarget }),
	)
	if err := targetForm.Run(); err != nil {
		return fmt.Errorf("running setup form: %w", err)
	}

	cfg.Credentials.GitHubToken = githubToken
	cfg.Credentials.GitLabToken = gitlabToken
	cfg.Download.BaseDirectory = baseDir
	cfg.Download.MaxParallel, _ = strconv.Atoi(parallel)
	cfg.Download.IncludeForks = includeForks
	if addTarget {
		cfg.Targets = append(cfg.Targets, config.Target{
			Platform: targetPlatform,
			Username: targetUsername,
		})
	}

	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := config.Save(cfg, cfgFile); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	path, _ := config.ConfigPath(cfgFile)
	fmt.Println()
	fmt.Println(successStyle.Render("  Configuration saved to " + path))
	fmt.Println(hintStyle.Render("  Run `repodump download` to get started.\n"))
	return nil
}
