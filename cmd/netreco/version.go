package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/poros-project/netreco/internal/config"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("netreco %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
		fmt.Printf("  config: %s\n", config.GetConfigPath())
		return nil
	},
}

var (
	configInit bool
	configShow bool
	configPath bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the netreco configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if configPath {
			fmt.Println(config.GetConfigPath())
			return nil
		}
		if configInit {
			path := config.GetConfigPath()
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("config file already exists: %s", path)
			}
			if err := config.DefaultConfig().Save(); err != nil {
				return fmt.Errorf("creating config: %w", err)
			}
			fmt.Printf("created config file: %s\n", path)
			return nil
		}
		if configShow {
			fmt.Println(config.GenerateExample())
			return nil
		}
		return cmd.Help()
	},
}

func init() {
	configCmd.Flags().BoolVar(&configInit, "init", false, "create a default config file")
	configCmd.Flags().BoolVar(&configShow, "show", false, "print an example config file")
	configCmd.Flags().BoolVar(&configPath, "path", false, "print the config file path")
}
