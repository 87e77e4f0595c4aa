package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"repodump/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View and manage repodump configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current configuration (tokens redacted)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		if cfg.Credentials.GitHubToken != "" {
			cfg.Credentials.GitHubToken = "ghp-***"
		}
		if cfg.Credentials.GitLabToken != "" {
			cfg.Credentials.GitLabToken = "glpat-***"
		}

		data, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("serialising config: %w", err)
		}
		_, err = os.Stdout.Write(data)
		return err
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the path to the config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := config.ConfigPath(cfgFile)
		if err != nil {
			return err
		}
		fmt.Println(p)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd, configPathCmd)
}
