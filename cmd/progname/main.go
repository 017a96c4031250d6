package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/os303/progname/internal/app"
	"github.com/os303/progname/pkg/config"
	"github.com/os303/progname/pkg/logging"
	"github.com/os303/progname/pkg/version"
)

type nameRunner interface {
	Run(ctx context.Context) (app.Result, error)
}

// newApp is an indirection to make cmd/progname testable.
var newApp = func(cfg *config.Config, log *logging.Logger) (nameRunner, error) {
	return app.New(cfg, log)
}

// logOutput is where logs go unless a log file is configured. stdout
// carries the program name.
var logOutput io.Writer = os.Stderr

// CLI flags
type flags struct {
	config           string
	repo             string
	project          string
	env              string
	projectVersion   string
	prefix           string
	variable         string
	format           string
	envFile          string
	manifest         string
	fallbackRevision string
	logLevel         string
}

func newRootCmd() *cobra.Command {
	f := &flags{}
	cmd := &cobra.Command{
		Use:   "progname",
		Short: "Compute the firmware program name from the project version and git",
		Long: `progname names a firmware build after the project version and the
checked-out commit, e.g. OS-303_v1.2.3_a1b2c3d. A trailing "dirty" marks
uncommitted changes to tracked files.

The name is printed on stdout and can also be written to a dotenv file and
a JSON build manifest.

Examples:
  progname
  progname --repo ../os303 --env teensy2pp
  progname --format env --env-file build.env
  progname --project-version 1.2.3 --fallback-revision nogit`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, f)
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&f.config, "config", "c", config.DefaultPath(), "Path to the config file (YAML, JSON or TOML)")
	fl.StringVarP(&f.repo, "repo", "r", "", "Git working copy to inspect (default \".\")")
	fl.StringVarP(&f.project, "project", "p", "", "platformio.ini to read the version from (default <repo>/platformio.ini)")
	fl.StringVarP(&f.env, "env", "e", "", "PlatformIO environment (default $PIOENV, then default_envs)")
	fl.StringVar(&f.projectVersion, "project-version", "", "Use this version instead of the project option")
	fl.StringVar(&f.prefix, "prefix", "", "Name prefix (default \"OS-303\")")
	fl.StringVar(&f.variable, "variable", "", "Build variable that receives the name (default \"PROGNAME\")")
	fl.StringVarP(&f.format, "format", "f", "", "Output format: text, env or json (default \"text\")")
	fl.StringVar(&f.envFile, "env-file", "", "Also write the variable into this dotenv file")
	fl.StringVar(&f.manifest, "manifest", "", "Write a JSON build manifest to this path")
	fl.StringVar(&f.fallbackRevision, "fallback-revision", "", "Revision to use when git cannot be queried")
	fl.StringVar(&f.logLevel, "log-level", "", "Log level: debug, info, warn, error (default \"warn\")")

	cmd.AddCommand(newVersionCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.Line("progname"))
		},
	}
}

func run(cmd *cobra.Command, f *flags) error {
	cfg, err := config.Load(f.config)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyFlags(cmd, cfg, f)
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	log, err := logging.New(logging.Options{
		File:   cfg.Logging.File,
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Writer: logOutput,
	})
	if err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}
	defer log.Sync() // best effort

	a, err := newApp(cfg, log)
	if err != nil {
		log.Error("startup failed", "error", err)
		return err
	}
	res, err := a.Run(cmd.Context())
	if err != nil {
		log.Error("program name not set", "error", err)
		return err
	}
	return app.Render(cmd.OutOrStdout(), cfg.Format, res)
}

// applyFlags copies explicitly set flags over the loaded config.
func applyFlags(cmd *cobra.Command, cfg *config.Config, f *flags) {
	set := func(name string, dst *string, value string) {
		if cmd.Flags().Changed(name) {
			*dst = value
		}
	}
	set("repo", &cfg.RepoDir, f.repo)
	set("project", &cfg.ProjectFile, f.project)
	set("env", &cfg.Environment, f.env)
	set("project-version", &cfg.ProjectVersion, f.projectVersion)
	set("prefix", &cfg.Prefix, f.prefix)
	set("variable", &cfg.Variable, f.variable)
	set("format", &cfg.Format, f.format)
	set("env-file", &cfg.EnvFile, f.envFile)
	set("manifest", &cfg.Manifest, f.manifest)
	set("fallback-revision", &cfg.FallbackRevision, f.fallbackRevision)
	set("log-level", &cfg.Logging.Level, f.logLevel)
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "progname: %v\n", err)
		cancel()
		os.Exit(1)
	}
}
