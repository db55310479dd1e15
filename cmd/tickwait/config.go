package main

import (
	"github.com/spf13/cobra"

	"github.com/b97tsk/tickwait"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as TOML",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		return cfg.Encode(cmd.OutOrStdout())
	},
}

func loadConfig(cmd *cobra.Command) (tickwait.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return tickwait.Config{}, err
	}
	if path == "" {
		return tickwait.DefaultConfig(), nil
	}
	return tickwait.LoadConfig(path)
}
