package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/breeze-rmm/dailywall/internal/config"
	"github.com/breeze-rmm/dailywall/internal/state"
)

func (a *app) initCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the wallpaper state and a default config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := state.Init(a.cfg.StateFile, a.deps.now(), force); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Initialized %s\n", a.cfg.StateFile)

			// Only write a settings file when none is in use yet.
			if a.cfgFile == "" {
				path, err := writeDefaultConfig(a.cfg)
				if err != nil {
					return fmt.Errorf("failed to write config: %w", err)
				}
				if path != "" {
					fmt.Fprintf(a.out, "Wrote %s\n", path)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing wallpaper state")
	return cmd
}

// writeDefaultConfig saves cfg as dw.yaml in the user config dir unless one
// already exists. It returns the path written, or "" when nothing was.
func writeDefaultConfig(cfg *config.Config) (string, error) {
	path := config.DefaultPath()
	if _, err := os.Stat(path); err == nil {
		return "", nil
	}
	return config.SaveTo(cfg, path)
}

func (a *app) showConfigCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "show-config",
		Short: "Print the wallpaper state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := state.Load(a.cfg.StateFile)
			if err != nil {
				return err
			}
			switch output {
			case "json":
				enc := json.NewEncoder(a.out)
				enc.SetIndent("", "  ")
				return enc.Encode(st)
			case "yaml":
				enc := yaml.NewEncoder(a.out)
				enc.SetIndent(2)
				if err := enc.Encode(st); err != nil {
					return err
				}
				return enc.Close()
			default:
				return fmt.Errorf("unknown output format %q (use json or yaml)", output)
			}
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "json", "output format: json or yaml")
	return cmd
}

func (a *app) setConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-config <file>",
		Short: "Replace the wallpaper state with the contents of a JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := state.Import(args[0], a.cfg.StateFile); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Loaded %s\n", args[0])
			return nil
		},
	}
}
