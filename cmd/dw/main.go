// Command dw manages a rotating set of desktop wallpapers: candidate images
// and directories, remote collections, and the schedule that cycles them.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/breeze-rmm/dailywall/internal/config"
	"github.com/breeze-rmm/dailywall/internal/cycle"
	"github.com/breeze-rmm/dailywall/internal/logging"
	"github.com/breeze-rmm/dailywall/internal/schedule"
	"github.com/breeze-rmm/dailywall/internal/source"
	"github.com/breeze-rmm/dailywall/internal/wallpaper"
)

var version = "0.1.0"

// deps builds the platform-facing collaborators from the loaded config.
// Tests replace them with stubs.
type deps struct {
	setter    func(cfg *config.Config) cycle.Setter
	scheduler func(cfg *config.Config, cfgFile string) (cycle.Scheduler, error)
	syncer    func(cfg *config.Config) cycle.Syncer
	now       func() time.Time
}

func defaultDeps() deps {
	return deps{
		setter: func(cfg *config.Config) cycle.Setter {
			return wallpaper.New(cfg.DesktopEnv)
		},
		scheduler: func(cfg *config.Config, cfgFile string) (cycle.Scheduler, error) {
			exe, err := os.Executable()
			if err != nil {
				return nil, fmt.Errorf("failed to determine executable path: %w", err)
			}
			return schedule.New(cfg.TaskName, schedule.Command(exe, cfgFile)), nil
		},
		syncer: func(cfg *config.Config) cycle.Syncer {
			return source.NewMirror(cfg.CacheDir, source.OptionsFromConfig(cfg), cfg.DownloadWorkers, cfg.DownloadQueueSize)
		},
		now: time.Now,
	}
}

// app is the state shared by every subcommand of one invocation.
type app struct {
	deps    deps
	cfgFile string
	verbose bool
	cfg     *config.Config
	out     io.Writer
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr, defaultDeps()))
}

func run(args []string, stdout, stderr io.Writer, d deps) int {
	a := &app{deps: d, out: stdout}
	root := a.rootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "dw",
		Short:         "Daily wallpaper manager",
		Long:          `dw cycles the desktop wallpaper through a list of images, directories and remote collections on a schedule.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.loadConfig()
		},
	}
	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is <user config dir>/dailywall/dw.yaml)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log at debug level")

	root.AddCommand(
		a.initCmd(),
		a.addCmd(),
		a.removeCmd(),
		a.presetCmd(),
		a.resetCmd(),
		a.setWallpaperCmd(),
		a.nextCmd(),
		a.previousCmd(),
		a.onCmd(),
		a.offCmd(),
		a.showConfigCmd(),
		a.setConfigCmd(),
		a.syncCmd(),
		a.runCmd(),
		a.versionCmd(),
	)
	return root
}

func (a *app) loadConfig() error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	result := cfg.ValidateTiered()
	logging.Init(cfg.LogFormat, cfg.LogLevel, os.Stderr)
	if a.verbose {
		logging.SetLevel("debug")
		cfg.LogLevel = "debug"
	}
	if result.HasFatals() {
		return fmt.Errorf("invalid config: %w", errors.Join(result.Fatals...))
	}
	a.cfg = cfg
	return nil
}

// manager wires a cycle.Manager. The scheduler is only built for commands
// that touch the OS schedule.
func (a *app) manager(withScheduler bool) (*cycle.Manager, error) {
	var sched cycle.Scheduler
	if withScheduler {
		s, err := a.deps.scheduler(a.cfg, a.cfgFile)
		if err != nil {
			return nil, err
		}
		sched = s
	}
	return cycle.New(a.cfg.StateFile, a.deps.setter(a.cfg), sched, a.deps.syncer(a.cfg)), nil
}

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(a.out, "dw v%s\n", version)
		},
	}
}
