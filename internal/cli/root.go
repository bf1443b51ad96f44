package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"boardr/internal/ai"
	"boardr/internal/config"
	"boardr/internal/editor"
	"boardr/internal/printer"
	"boardr/internal/store"
	"boardr/internal/tui"
)

type App struct {
	Dir       string
	Store     string
	RedisAddr string
	Debug     bool

	cfg     *config.Config
	logFile *os.File
}

// reportedError marks failures that were already printed for the user.
type reportedError struct{ error }

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:           "boardr [project]",
		Short:         "Infinite-canvas boards in the terminal",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		Example: strings.TrimSpace(`
  # Start the editor
  boardr

  # Open a project by name or id
  boardr "Sprint planning"

  # Scriptable commands
  boardr projects list
  boardr export png "Sprint planning" board.png
`),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app.logFile != nil {
				_ = app.logFile.Close()
				app.logFile = nil
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.runEditor(cmd, args)
		},
	}

	cmd.PersistentFlags().StringVar(&app.Dir, "dir", envOr("BOARDR_DIR", ""), "Directory projects and logs are kept in")
	cmd.PersistentFlags().StringVar(&app.Store, "store", envOr("BOARDR_STORE", ""), "Storage backend (file|sqlite|redis)")
	cmd.PersistentFlags().StringVar(&app.RedisAddr, "redis", envOr("BOARDR_REDIS_ADDR", ""), "Redis address for the redis store")
	cmd.PersistentFlags().BoolVar(&app.Debug, "debug", envOr("BOARDR_DEBUG", "") != "", "Enable debug logging")

	cmd.AddCommand(newProjectsCmd(app))
	cmd.AddCommand(newExportCmd(app))

	return cmd
}

// Execute runs the root command and reports any failure not already
// printed.
func Execute() error {
	cmd := NewRootCmd()
	err := cmd.Execute()
	if err == nil {
		return nil
	}
	var reported reportedError
	if !errors.As(err, &reported) {
		_ = printer.Error(cmd.ErrOrStderr(), err.Error(), "", []string{"Run 'boardr --help' for usage."})
	}
	return err
}

func (a *App) setup(cmd *cobra.Command) error {
	cfg := config.Load()
	if a.Dir != "" {
		dir, err := filepath.Abs(a.Dir)
		if err != nil {
			return fmt.Errorf("resolve --dir: %w", err)
		}
		cfg.SaveDirectory = dir
	}
	if a.Store != "" {
		cfg.Store = strings.ToLower(a.Store)
	}
	if a.RedisAddr != "" {
		cfg.RedisAddr = a.RedisAddr
	}
	if a.Debug {
		cfg.LogLevel = "debug"
	}
	a.cfg = cfg
	return a.setupLogging(cmd)
}

// setupLogging sends scripted commands' logs to stderr. The editor owns
// the terminal, so its logs go to a file or nowhere.
func (a *App) setupLogging(cmd *cobra.Command) error {
	level, err := log.ParseLevel(a.cfg.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if cmd != cmd.Root() {
		log.SetOutput(cmd.ErrOrStderr())
		return nil
	}

	path := a.cfg.LogFile
	if path == "" && a.Debug {
		path = filepath.Join(a.cfg.Dir(), "boardr.log")
	}
	if path == "" {
		log.SetOutput(io.Discard)
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	a.logFile = f
	log.SetOutput(f)
	log.WithField("path", path).Debug("logging to file")
	return nil
}

func (a *App) openStore(cmd *cobra.Command) (store.Provider, error) {
	opts := store.Options{Kind: a.cfg.Store, Dir: a.cfg.Dir(), RedisAddr: a.cfg.RedisAddr}
	p, err := store.Open(cmd.Context(), opts)
	if err != nil {
		return nil, a.fail(cmd, "Could not open project storage", err.Error(),
			"Check the --dir, --store and --redis flags.",
			"Edit ~/"+config.FileName+" to change the defaults.")
	}
	log.WithFields(log.Fields{"store": opts.Kind, "dir": opts.Dir}).Debug("store opened")
	return p, nil
}

func (a *App) runEditor(cmd *cobra.Command, args []string) error {
	p, err := a.openStore(cmd)
	if err != nil {
		return err
	}
	defer p.Close()

	opts := []editor.Option{}
	if a.cfg.AIEndpoint != "" {
		opts = append(opts, editor.WithGenerator(ai.NewHTTPGenerator(a.cfg.AIEndpoint, a.cfg.AIToken)))
	}
	ed := editor.New(p, a.cfg.Gesture(), opts...)

	if len(args) == 1 {
		meta, err := a.resolve(cmd, p, args[0])
		if err != nil {
			return err
		}
		if err := ed.Open(cmd.Context(), meta.ID); err != nil {
			return a.fail(cmd, "Could not open "+meta.Name, err.Error())
		}
		a.cfg.StartMenu = false
	}

	return tui.Run(cmd.Context(), ed, a.cfg)
}

// resolve finds a project by id, name or unique id prefix.
func (a *App) resolve(cmd *cobra.Command, p store.Provider, ref string) (store.ProjectMeta, error) {
	list, err := p.List(cmd.Context())
	if err != nil {
		return store.ProjectMeta{}, a.fail(cmd, "Could not list projects", err.Error())
	}
	for _, m := range list {
		if m.ID == ref {
			return m, nil
		}
	}
	var matches []store.ProjectMeta
	for _, m := range list {
		if strings.EqualFold(m.Name, ref) {
			matches = append(matches, m)
		}
	}
	if len(matches) == 0 {
		for _, m := range list {
			if strings.HasPrefix(m.ID, ref) {
				matches = append(matches, m)
			}
		}
	}
	switch len(matches) {
	case 0:
		return store.ProjectMeta{}, a.fail(cmd, fmt.Sprintf("Project %q not found", ref),
			"No project has that id or name.",
			"Run 'boardr projects list' to see your projects.")
	case 1:
		return matches[0], nil
	}
	return store.ProjectMeta{}, a.fail(cmd, fmt.Sprintf("Project %q is ambiguous", ref),
		fmt.Sprintf("%d projects match.", len(matches)),
		"Use the full project id from 'boardr projects list'.")
}

func (a *App) fail(cmd *cobra.Command, title, explanation string, suggestions ...string) error {
	return reportedError{printer.Error(cmd.ErrOrStderr(), title, explanation, suggestions)}
}

func envOr(k, d string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return d
}
