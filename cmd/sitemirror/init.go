package main

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/aoyama-dev/sitemirror/internal/config"
)

//go:embed templates/sitemirror.yaml
var configTemplate []byte

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a sample configuration file",
		Long: `Init writes a commented sample configuration file. By default it creates
.sitemirror in the current directory; existing files are never overwritten.`,
		Example: `  sitemirror init
  sitemirror init --path ~/.sitemirror`,
		RunE: runInit,
	}

	cmd.Flags().String("path", "", "Where to write the config file (default: ./.sitemirror)")

	return cmd
}

// runInit executes the init command.
func runInit(cmd *cobra.Command, _ []string) error {
	path, err := cmd.Flags().GetString("path")
	if err != nil {
		return err
	}
	if path == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to determine working directory: %w", err)
		}
		path = filepath.Join(cwd, config.DefaultConfigFile)
	}

	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	}

	if err := os.WriteFile(path, configTemplate, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
	return nil
}
