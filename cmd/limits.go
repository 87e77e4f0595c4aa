package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"repodump/internal/config"
	"repodump/internal/platform"
	"repodump/models"
)

var limitsCmd = &cobra.Command{
	Use:   "limits [platform]",
	Short: "Show API rate-limit status",
	Long: `Queries the platform APIs for the remaining request budget using the
configured tokens. Without an argument both platforms are checked.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLimits,
}

func runLimits(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	platforms := []models.Platform{models.PlatformGitHub, models.PlatformGitLab}
	if len(args) == 1 {
		p := models.Platform(args[0])
		if !p.Valid() {
			return fmt.Errorf("unsupported platform %q (supported: github, gitlab)", args[0])
		}
		platforms = []models.Platform{p}
	}

	for _, p := range platforms {
		client, err := platform.New(p, cfg.Credentials.TokenFor(p), "")
		if err != nil {
			return err
		}
		limit, err := client.RateLimit(cmd.Context())
		if err != nil {
			fmt.Printf("%-8s unavailable: %v\n", p, err)
			continue
		}
		line := fmt.Sprintf("%-8s %d/%d remaining", p, limit.Remaining, limit.Limit)
		if !limit.Reset.IsZero() {
			line += fmt.Sprintf(", resets in %s", time.Until(limit.Reset).Round(time.Second))
		}
		fmt.Println(line)
	}
	return nil
}
