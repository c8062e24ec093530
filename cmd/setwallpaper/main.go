// Command setwallpaper applies one image as the desktop background.
//
//	setwallpaper <imagePath>
//
// It prints nothing on success. On failure it prints a single
// "Error setting wallpaper: <message>" line to stdout and exits 1.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/breeze-rmm/dailywall/internal/logging"
	"github.com/breeze-rmm/dailywall/internal/wallpaper"
	"github.com/spf13/cobra"
)

type setter interface {
	Set(req wallpaper.Request) error
}

func main() {
	logging.Init("text", "warn", os.Stderr)
	os.Exit(run(os.Args[1:], os.Stdout, wallpaper.New("")))
}

func run(args []string, stdout io.Writer, s setter) int {
	if args == nil {
		args = []string{}
	}

	cmd := newRootCmd(s)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(io.Discard)

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(stdout, "Error setting wallpaper: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd(s setter) *cobra.Command {
	return &cobra.Command{
		Use:           "setwallpaper <imagePath>",
		Short:         "Set the desktop wallpaper",
		Args:          exactlyOnePath,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.Set(wallpaper.Request{ImagePath: args[0]})
		},
	}
}

func exactlyOnePath(_ *cobra.Command, args []string) error {
	switch len(args) {
	case 0:
		return wallpaper.ErrMissingArgument
	case 1:
		return nil
	default:
		return fmt.Errorf("expected exactly one image path, got %d arguments", len(args))
	}
}
