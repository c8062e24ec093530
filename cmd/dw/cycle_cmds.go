package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func (a *app) addCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add-wallpaper <path|uri>...",
		Short: "Add images, directories or remote collections to the cycle",
		Long: `Add images, directories or remote collections to the cycle.

Remote collections are mirrored into the cache directory first:
  s3://bucket/prefix  gs://bucket/prefix  az://container/prefix
  b2://bucket/prefix  https://host/image.jpg  file:///mnt/share/walls`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := a.manager(false)
			if err != nil {
				return err
			}
			for _, p := range args {
				if err := mgr.Add(cmd.Context(), p); err != nil {
					return err
				}
				fmt.Fprintf(a.out, "Added %s\n", p)
			}
			return nil
		},
	}
}

func (a *app) removeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm-wallpaper <path|uri>...",
		Short: "Remove images, directories or remote collections from the cycle",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := a.manager(false)
			if err != nil {
				return err
			}
			for _, p := range args {
				if err := mgr.Remove(p); err != nil {
					return err
				}
				fmt.Fprintf(a.out, "Removed %s\n", p)
			}
			return nil
		},
	}
}

func (a *app) presetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "preset <by minutes|by hours|daily> [interval]",
		Short: "Set how often the wallpaper changes",
		Example: `  dw preset "by minutes" 30
  dw preset by hours 2
  dw preset daily`,
		Args: cobra.RangeArgs(1, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			preset, interval := parsePresetArgs(args)
			mgr, err := a.manager(true)
			if err != nil {
				return err
			}
			return mgr.SetPreset(preset, interval)
		},
	}
}

// parsePresetArgs accepts the preset quoted or split over several words,
// with an optional trailing interval.
func parsePresetArgs(args []string) (string, int) {
	words, interval := args, 0
	if last := args[len(args)-1]; len(args) > 1 && isNumber(last) {
		interval, _ = strconv.Atoi(last)
		words = args[:len(args)-1]
	}
	return strings.Join(words, " "), interval
}

func isNumber(s string) bool {
	_, err := strconv.Atoi(s)
	return err == nil
}

func (a *app) resetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Go back to the first wallpaper",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := a.manager(false)
			if err != nil {
				return err
			}
			return mgr.Reset()
		},
	}
}

func (a *app) setWallpaperCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-wallpaper <path>",
		Short: "Show an image now without changing the cycle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := a.manager(false)
			if err != nil {
				return err
			}
			return mgr.SetWallpaper(args[0])
		},
	}
}

func (a *app) nextCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "next",
		Short: "Change to the next wallpaper",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := a.manager(false)
			if err != nil {
				return err
			}
			return mgr.Next()
		},
	}
}

func (a *app) previousCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "previous",
		Short: "Change to the previous wallpaper",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := a.manager(false)
			if err != nil {
				return err
			}
			return mgr.Previous()
		},
	}
}

func (a *app) onCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "on",
		Short: "Install the schedule that changes the wallpaper",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := a.manager(true)
			if err != nil {
				return err
			}
			if err := mgr.Enable(); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Wallpaper cycling enabled")
			return nil
		},
	}
}

func (a *app) offCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "off",
		Short: "Remove the wallpaper schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := a.manager(true)
			if err != nil {
				return err
			}
			if err := mgr.Disable(); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Wallpaper cycling disabled")
			return nil
		},
	}
}

func (a *app) syncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Refresh the mirrors of remote collections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := a.manager(false)
			if err != nil {
				return err
			}
			return mgr.Sync(cmd.Context())
		},
	}
}
