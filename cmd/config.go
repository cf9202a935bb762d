package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/teemow/calagent/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the calagent configuration file",
	}

	var (
		path  string
		force bool
	)
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a configuration file with the default settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			if path == "" {
				path = config.DefaultPath()
			}
			if err := initConfig(path, force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", path)
			return nil
		},
	}
	initCmd.Flags().StringVar(&path, "path", "", "Where to write the file (default: "+config.DefaultPath()+")")
	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")

	pathCmd := &cobra.Command{
		Use:   "path",
		Short: "Print the default configuration file location",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), config.DefaultPath())
		},
	}

	cmd.AddCommand(initCmd, pathCmd)
	return cmd
}

func initConfig(path string, force bool) error {
	if !force {
		_, err := os.Stat(path)
		if err == nil {
			return fmt.Errorf("config file %s already exists (use --force to overwrite)", path)
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to check config file: %w", err)
		}
	}
	return config.Save(path, config.DefaultConfig())
}
