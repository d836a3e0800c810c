package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vango-dev/depot/internal/config"
	"github.com/vango-dev/depot/internal/errors"
)

func initCmd() *cobra.Command {
	var (
		name   string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Write a default depot config",
		Long: `Write a depot.yaml (or depot.json) holding the default settings, so
profiles, plugins and the hydration seed can be tuned from a file.

Examples:
  depot init
  depot init ./bench --name=shop
  depot init --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			if config.Exists(dir) {
				return errors.New("E143").
					WithDetail("A depot config already exists in " + dir)
			}

			cfg := config.New()
			cfg.Name = name
			if cfg.Name == "" {
				abs, err := filepath.Abs(dir)
				if err != nil {
					return err
				}
				cfg.Name = filepath.Base(abs)
			}

			file := config.YAMLFileName
			if asJSON {
				file = config.JSONFileName
			}
			if err := cfg.SaveTo(filepath.Join(dir, file)); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", cfg.Path())
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Project name (default: directory name)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Write depot.json instead of depot.yaml")

	return cmd
}
