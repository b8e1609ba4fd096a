package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"xvm/internal/config"
	"xvm/internal/logx"
	"xvm/internal/manager"
	"xvm/internal/paths"
	"xvm/internal/tui"
)

// Version is stamped at build time with -ldflags "-X xvm/internal/cli.Version=...".
var Version = "dev"

// ExitError ends the process with Code without printing anything.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string { return fmt.Sprintf("exit status %d", e.Code) }

// Execute runs the root cobra command.
func Execute() {
	cmd, s := newRootCmd()
	os.Exit(exitCode(run(cmd, s), os.Stderr))
}

// run executes cmd and releases the session afterwards, whether or not the
// command failed. A close error is reported only when the command succeeded.
func run(cmd *cobra.Command, s *session) error {
	err := cmd.Execute()
	if cerr := s.close(); err == nil {
		err = cerr
	}
	return err
}

func exitCode(err error, stderr io.Writer) int {
	if err == nil {
		return 0
	}
	var exit *ExitError
	if errors.As(err, &exit) {
		return exit.Code
	}
	fmt.Fprintf(stderr, "error: %v\n", err)
	return 1
}

type rootOptions struct {
	configPath string
	logLevel   string
	assumeYes  bool
	outputJSON bool
}

// session is the per-invocation state shared by subcommands.
type session struct {
	opts   *rootOptions
	cfg    config.Config
	mgr    *manager.Manager
	closer io.Closer
}

func newRootCmd() (*cobra.Command, *session) {
	opts := &rootOptions{}
	s := &session{opts: opts}

	cmd := &cobra.Command{
		Use:           "xvm",
		Short:         "Manage side-by-side versions of command-line tools",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to the xvm config file (default <XLINGS_HOME>/xvm.yaml)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Console log level (debug, info, warn, error, off)")
	cmd.PersistentFlags().BoolVarP(&opts.assumeYes, "yes", "y", false, "Answer yes to confirmation prompts")
	cmd.PersistentFlags().BoolVar(&opts.outputJSON, "json", false, "Output machine-readable JSON")

	cmd.AddCommand(newAddCmd(s))
	cmd.AddCommand(newRemoveCmd(s))
	cmd.AddCommand(newUseCmd(s))
	cmd.AddCommand(newCurrentCmd(s))
	cmd.AddCommand(newListCmd(s))
	cmd.AddCommand(newInfoCmd(s))
	cmd.AddCommand(newRunCmd(s))
	cmd.AddCommand(newBindCmd(s))
	cmd.AddCommand(newUnbindCmd(s))
	cmd.AddCommand(newWorkspaceCmd(s))
	cmd.AddCommand(newConfigCmd(s))
	return cmd, s
}

// loadConfig reads the configuration once and applies flag overrides.
func (s *session) loadConfig() (config.Config, error) {
	cfg, err := config.Load(s.opts.configPath)
	if err != nil {
		return config.Config{}, err
	}
	if s.opts.logLevel != "" {
		cfg.Log.Level = s.opts.logLevel
		if err := cfg.ApplyDefaults(); err != nil {
			return config.Config{}, err
		}
		if err := cfg.Validate(); err != nil {
			return config.Config{}, fmt.Errorf("invalid config: %w", err)
		}
	}
	s.cfg = cfg
	return cfg, nil
}

// manager opens the version manager for the current working directory.
func (s *session) manager(cmd *cobra.Command) (*manager.Manager, error) {
	if s.mgr != nil {
		return s.mgr, nil
	}
	cfg, err := s.loadConfig()
	if err != nil {
		return nil, err
	}
	layout, err := paths.Resolve(cfg, "")
	if err != nil {
		return nil, err
	}
	if err := layout.EnsureDirs(); err != nil {
		return nil, err
	}

	logDir := ""
	if cfg.Log.File {
		logDir = layout.LogsDir
	}
	stderr := cmd.ErrOrStderr()
	file, isFile := stderr.(*os.File)
	logger, closer, err := logx.New(logx.Options{
		Level:   cfg.Log.Level,
		Dir:     logDir,
		Console: stderr,
		NoColor: !isFile || !tui.Interactive(file),
	})
	if err != nil {
		return nil, err
	}
	s.closer = closer

	dispatcher := cfg.Shim.Dispatcher
	if dispatcher == "" {
		if dispatcher, err = os.Executable(); err != nil {
			return nil, fmt.Errorf("locate xvm executable: %w", err)
		}
	}

	mgr, err := manager.Open(layout,
		manager.WithLogger(logger),
		manager.WithDispatcher(dispatcher),
		manager.WithStdio(cmd.InOrStdin(), cmd.OutOrStdout(), stderr),
	)
	if err != nil {
		return nil, err
	}
	logger.Debug().Str("data", layout.DataDir).Str("workdir", layout.WorkDir).Msg("manager ready")
	s.mgr = mgr
	return mgr, nil
}

func (s *session) confirm(cmd *cobra.Command, prompt string) (bool, error) {
	return tui.Confirm(cmd.InOrStdin(), cmd.OutOrStdout(), prompt, s.opts.assumeYes)
}

func (s *session) close() error {
	if s.closer == nil {
		return nil
	}
	err := s.closer.Close()
	s.closer = nil
	return err
}
