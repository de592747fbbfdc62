// Package main provides the CLI entrypoint for fitts.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/fitts/internal/config"
	"github.com/verte-zerg/fitts/internal/engine"
	"github.com/verte-zerg/fitts/internal/logging"
	"github.com/verte-zerg/fitts/internal/model"
	"github.com/verte-zerg/fitts/internal/report"
	"github.com/verte-zerg/fitts/internal/sim"
	"github.com/verte-zerg/fitts/internal/store"
	"github.com/verte-zerg/fitts/internal/tui"
)

const defaultMaxTicks = 500000

var (
	dataDir  string
	logLevel string

	expParticipant string
	expOut         string
	expTolerance   float64
	expRepetitions int

	simMissEvery int
	simMaxTicks  int

	sessionsParticipant string
	sessionsSince       string
	sessionsLast        int

	exportOut string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "fitts",
		Short:         "Grab-and-dock pointing experiment",
		SilenceUsage:  true,
		SilenceErrors: false,
		Args:          cobra.NoArgs,
		RunE:          runExperimentCmd,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "directory for trial logs and the session catalogue")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", config.DefaultLogLevel, "log level (trace, debug, info, warn, error)")
	addExperimentFlags(rootCmd)

	rootCmd.AddCommand(newSimulateCmd())
	rootCmd.AddCommand(newSessionsCmd())
	rootCmd.AddCommand(newTrialsCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func addExperimentFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&expParticipant, "participant", config.DefaultParticipant, "participant identifier")
	cmd.Flags().StringVar(&expOut, "out", "", "trial log path (default: <data-dir>/sessions/<participant>-<millis>.csv)")
	cmd.Flags().Float64Var(&expTolerance, "tolerance", model.DefaultTolerance, "docking tolerance as a fraction of the object width")
	cmd.Flags().IntVar(&expRepetitions, "repetitions", model.DefaultRepetitions, "successful trials per width and distance")
}

// resolveSettings layers defaults, the config file, the environment and
// explicitly set flags, in that order.
func resolveSettings(cmd *cobra.Command) (model.Settings, error) {
	settings := config.Defaults()
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return model.Settings{}, fmt.Errorf("failed to load config: %w", err)
	}
	fileCfg.Apply(&settings)

	envCfg, err := config.LoadEnv()
	if err != nil {
		return model.Settings{}, fmt.Errorf("failed to load environment: %w", err)
	}
	envCfg.Apply(&settings)

	applyStringFlag(cmd, "participant", &settings.Participant, expParticipant)
	applyStringFlag(cmd, "data-dir", &settings.DataDir, dataDir)
	applyStringFlag(cmd, "log-level", &settings.LogLevel, logLevel)
	applyFloatFlag(cmd, "tolerance", &settings.Design.Tolerance, expTolerance)
	applyIntFlag(cmd, "repetitions", &settings.Design.Repetitions, expRepetitions)

	if err := config.ValidateSettings(settings); err != nil {
		return model.Settings{}, err
	}
	return settings, nil
}

func runExperimentCmd(cmd *cobra.Command, _ []string) (err error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("the experiment needs an interactive terminal (use 'fitts simulate' for headless runs)")
	}
	settings, err := resolveSettings(cmd)
	if err != nil {
		return err
	}

	logFile, err := logging.OpenFile(config.LogFilePath(settings.DataDir))
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() {
		if cerr := logFile.Close(); cerr != nil {
			// Best-effort close of the diagnostic log.
			_ = cerr
		}
	}()
	logger := logging.NewLogger(settings.LogLevel, logFile)

	st, err := openStore(settings.DataDir)
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx := context.Background()
	eng := engine.New(settings.Design,
		engine.WithStore(st),
		engine.WithParticipant(settings.Participant),
		engine.WithLogger(logger),
	)
	dest := sessionDestination(settings, expOut, time.Now())
	if err := eng.StartSession(ctx, dest); err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer func() {
		if eerr := eng.EndSession(ctx); eerr != nil && err == nil {
			err = fmt.Errorf("failed to end session: %w", eerr)
		}
	}()

	world := sim.NewWorld(settings.Design, settings.MoveSpeed, settings.ReturnSpeed)
	m := tui.NewModel(eng, world, settings.Design, settings.TickRate)
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	if err := m.EndErr(); err != nil {
		return fmt.Errorf("failed to end session: %w", err)
	}
	logErrf("Logged %d/%d trials to %s\n", eng.Completed(), eng.Total(), eng.LogPath())
	return nil
}

func newSimulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a session with a simulated participant",
		Args:  cobra.NoArgs,
		RunE:  runSimulateCmd,
	}
	addExperimentFlags(cmd)
	cmd.Flags().IntVar(&simMissEvery, "miss-every", 0, "make every Nth release miss the target (0 disables, must be >= 2)")
	cmd.Flags().IntVar(&simMaxTicks, "max-ticks", defaultMaxTicks, "give up after this many ticks")
	return cmd
}

func runSimulateCmd(cmd *cobra.Command, _ []string) (err error) {
	if simMissEvery < 0 || simMissEvery == 1 {
		return fmt.Errorf("--miss-every must be 0 or >= 2")
	}
	if simMaxTicks <= 0 {
		return fmt.Errorf("--max-ticks must be > 0")
	}
	settings, err := resolveSettings(cmd)
	if err != nil {
		return err
	}
	logger := logging.NewLogger(settings.LogLevel, os.Stderr)

	st, err := openStore(settings.DataDir)
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eng := engine.New(settings.Design,
		engine.WithStore(st),
		engine.WithParticipant(settings.Participant),
		engine.WithLogger(logger),
	)
	dest := sessionDestination(settings, expOut, time.Now())
	if err := eng.StartSession(ctx, dest); err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer func() {
		// ctx may already be cancelled by a signal here.
		if eerr := eng.EndSession(context.WithoutCancel(ctx)); eerr != nil && err == nil {
			err = fmt.Errorf("failed to end session: %w", eerr)
		}
	}()

	world := sim.NewWorld(settings.Design, settings.MoveSpeed, settings.ReturnSpeed)
	pilot := &sim.Autopilot{MissEvery: simMissEvery}
	res, err := sim.Run(ctx, eng, world, pilot, settings.TickRate, simMaxTicks)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Warn("simulation interrupted", "session", eng.SessionID(), "trials", res.Trials)
		}
		return fmt.Errorf("simulation stopped: %w", err)
	}

	out := cmd.OutOrStdout()
	if _, err := fmt.Fprintf(out, "Session %s complete: %d trials in %d attempts (%s simulated, %d warnings)\n",
		eng.SessionID(), res.Trials, res.Attempts, res.Elapsed.Round(time.Millisecond), res.Warnings); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if _, err := fmt.Fprintf(out, "Trial log: %s\n", eng.LogPath()); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newSessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List catalogued sessions",
		Args:  cobra.NoArgs,
		RunE:  runSessionsCmd,
	}
	cmd.Flags().StringVar(&sessionsParticipant, "participant", "", "participant filter")
	cmd.Flags().StringVar(&sessionsSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&sessionsLast, "last", 0, "limit to last N sessions")
	return cmd
}

func runSessionsCmd(cmd *cobra.Command, _ []string) error {
	var sinceTime *time.Time
	if sessionsSince != "" {
		parsed, err := time.ParseInLocation("2006-01-02", sessionsSince, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --since value: %w", err)
		}
		sinceTime = &parsed
	}
	if sessionsLast < 0 {
		return fmt.Errorf("--last must be >= 0")
	}
	settings, err := resolveSettings(cmd)
	if err != nil {
		return err
	}
	st, err := openStore(settings.DataDir)
	if err != nil {
		return err
	}
	defer closeStore(st)

	sessions, err := st.ListSessions(cmd.Context(), model.SessionFilter{
		Participant: sessionsParticipant,
		Since:       sinceTime,
		Last:        sessionsLast,
	})
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}
	if err := report.RenderSessions(cmd.OutOrStdout(), sessions); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newTrialsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "trials <session-id>",
		Short: "Print the trials of a session",
		Args:  cobra.ExactArgs(1),
		RunE:  runTrialsCmd,
	}
}

func runTrialsCmd(cmd *cobra.Command, args []string) error {
	settings, err := resolveSettings(cmd)
	if err != nil {
		return err
	}
	st, err := openStore(settings.DataDir)
	if err != nil {
		return err
	}
	defer closeStore(st)

	session, trials, err := loadSession(cmd.Context(), st, args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if _, err := fmt.Fprintf(out, "Session %s (%s), %d/%d trials\n", session.ID, session.Participant, session.Trials, session.Planned); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := report.RenderTrials(out, trials); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <session-id>",
		Short: "Write a session's trials as a trial log",
		Args:  cobra.ExactArgs(1),
		RunE:  runExportCmd,
	}
	cmd.Flags().StringVar(&exportOut, "out", "", "destination CSV file")
	if err := cmd.MarkFlagRequired("out"); err != nil {
		panic(err)
	}
	return cmd
}

func runExportCmd(cmd *cobra.Command, args []string) error {
	settings, err := resolveSettings(cmd)
	if err != nil {
		return err
	}
	st, err := openStore(settings.DataDir)
	if err != nil {
		return err
	}
	defer closeStore(st)

	_, trials, err := loadSession(cmd.Context(), st, args[0])
	if err != nil {
		return err
	}
	if err := report.Export(exportOut, trials); err != nil {
		return fmt.Errorf("failed to export session: %w", err)
	}
	logErrf("Wrote %d trials to %s\n", len(trials), exportOut)
	return nil
}

func loadSession(ctx context.Context, st *store.Store, id string) (model.SessionSummary, []model.TrialRow, error) {
	session, err := st.GetSession(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			return model.SessionSummary{}, nil, fmt.Errorf("unknown session %q (run: fitts sessions)", id)
		}
		return model.SessionSummary{}, nil, fmt.Errorf("failed to load session: %w", err)
	}
	trials, err := st.ListTrials(ctx, id)
	if err != nil {
		return model.SessionSummary{}, nil, fmt.Errorf("failed to load trials: %w", err)
	}
	return session, trials, nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func openStore(dir string) (*store.Store, error) {
	st, err := store.Open(config.DBPath(dir))
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	return st, nil
}

func closeStore(st *store.Store) {
	if cerr := st.Close(); cerr != nil {
		logErrf("failed to close db: %v\n", cerr)
	}
}

func sessionDestination(settings model.Settings, out string, now time.Time) string {
	if out != "" {
		return out
	}
	return config.SessionLogPath(config.SessionsDir(settings.DataDir), settings.Participant, now)
}

func applyStringFlag(cmd *cobra.Command, name string, target *string, value string) {
	if cmd.Flags().Changed(name) {
		*target = value
	}
}

func applyIntFlag(cmd *cobra.Command, name string, target *int, value int) {
	if cmd.Flags().Changed(name) {
		*target = value
	}
}

func applyFloatFlag(cmd *cobra.Command, name string, target *float64, value float64) {
	if cmd.Flags().Changed(name) {
		*target = value
	}
}

func defaultConfigTemplate() string {
	design := model.DefaultDesign()
	return fmt.Sprintf(`# fitts configuration
# Uncomment a value to enable it. Environment variables (FITTS_PARTICIPANT,
# FITTS_DATA_DIR, FITTS_LOG_LEVEL) override the file; CLI flags override both.

[experiment]
# participant = %q      # Participant identifier used in log names
# repetitions = %d         # Successful trials per width and distance
# width-levels = %d         # Number of object widths
# tolerance = %.2f        # Docking tolerance as a fraction of the width
# data-dir = %q
# log-level = %q

[layout]
# start = %.2f            # Home position of the movable object
# targets = [0.2, 0.1, 0.0] # Target positions, far to near
# width = %.2f            # Smallest object width
# width-step = %.2f       # Width added per width level

[host]
# tick-ms = %d              # Update interval of the interactive host
# move-speed = %.2f       # Carry speed in units per second
# return-speed = %.2f     # Speed the released object slides home
`,
		config.DefaultParticipant,
		design.Repetitions,
		design.WidthLevels,
		design.Tolerance,
		config.DefaultDataDir(),
		config.DefaultLogLevel,
		design.Start,
		design.InitialWidth,
		design.WidthStep,
		config.DefaultTickMs,
		config.DefaultMoveSpeed,
		config.DefaultReturnSpeed,
	)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
