package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/cashcast/internal/cli"
	"github.com/theirongolddev/cashcast/internal/config"
	"github.com/theirongolddev/cashcast/internal/daemon"
	"github.com/theirongolddev/cashcast/internal/notify"
)

type daemonRuntimeState struct {
	PID       int       `json:"pid"`
	Addr      string    `json:"addr"`
	Schedule  string    `json:"schedule"`
	StartedAt time.Time `json:"started_at"`
	Storage   string    `json:"storage"`
}

var (
	flagDaemonAddr         string
	flagDaemonCron         string
	flagDaemonDetach       bool
	flagDaemonPIDFile      string
	flagDaemonLogFile      string
	flagDaemonEventsBuffer int
	flagDaemonChild        bool
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run a background forecast daemon with HTTP/SSE endpoints and budget alerts",
	RunE:  runDaemon,
}

var daemonStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon process and API status",
	RunE:  runDaemonStatus,
}

var daemonStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running daemon",
	RunE:  runDaemonStop,
}

func init() {
	defaultPID := filepath.Join(config.DataDir(), "cashcastd.pid")
	defaultLog := filepath.Join(config.DataDir(), "cashcastd.log")

	pf := daemonCmd.PersistentFlags()
	pf.StringVar(&flagDaemonAddr, "addr", "", "HTTP listen address (default: config daemon.addr)")
	pf.StringVar(&flagDaemonCron, "cron", "", "Refresh schedule, cron or @every syntax (default: config daemon.refresh_cron)")
	pf.StringVar(&flagDaemonPIDFile, "pid-file", defaultPID, "PID file path")
	pf.StringVar(&flagDaemonLogFile, "log-file", defaultLog, "Log file path for detached mode")
	pf.IntVar(&flagDaemonEventsBuffer, "events-buffer", 200, "Max in-memory events retained")

	daemonCmd.Flags().BoolVar(&flagDaemonDetach, "detach", false, "Run daemon as a background process")
	daemonCmd.Flags().BoolVar(&flagDaemonChild, "child", false, "Internal: mark detached child process")
	_ = daemonCmd.Flags().MarkHidden("child")

	daemonCmd.AddCommand(daemonStatusCmd)
	daemonCmd.AddCommand(daemonStopCmd)
	rootCmd.AddCommand(daemonCmd)
}

// daemonAddr resolves the listen address: flag, then config.
func daemonAddr(cfg config.Config) string {
	if flagDaemonAddr != "" {
		return flagDaemonAddr
	}
	return cfg.Daemon.Addr
}

func runDaemon(cmd *cobra.Command, _ []string) error {
	if flagDaemonDetach && flagDaemonChild {
		return errors.New("invalid daemon launch mode")
	}
	if flagDaemonDetach {
		return startDaemonDetached()
	}
	return runDaemonForeground(cmd)
}

func startDaemonDetached() error {
	if err := pidFile(flagDaemonPIDFile).ensureFree(); err != nil {
		return err
	}
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}
	args := append(filterDetachArg(os.Args[1:]), "--child")

	if err := os.MkdirAll(filepath.Dir(flagDaemonLogFile), 0o750); err != nil {
		return fmt.Errorf("create daemon log directory: %w", err)
	}

	//nolint:gosec // daemon log path is configured by the local user
	logf, err := os.OpenFile(flagDaemonLogFile, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("open daemon log file: %w", err)
	}
	defer func() { _ = logf.Close() }()

	child := exec.Command(exe, args...) //nolint:gosec // exe/args come from current process invocation
	child.Stdout = logf
	child.Stderr = logf
	child.Stdin = nil
	child.Env = os.Environ()

	if err := child.Start(); err != nil {
		return fmt.Errorf("start detached daemon: %w", err)
	}

	fmt.Printf("  Started daemon (pid %d)\n", child.Process.Pid)
	fmt.Printf("  PID file: %s\n", flagDaemonPIDFile)
	fmt.Printf("  API: http://%s/v1/status\n", daemonAddr(cfg))
	fmt.Printf("  Log: %s\n", flagDaemonLogFile)
	return nil
}

func runDaemonForeground(cmd *cobra.Command) error {
	pf := pidFile(flagDaemonPIDFile)
	if err := pf.ensureFree(); err != nil {
		return err
	}
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	pid := os.Getpid()
	if err := pf.write(pid); err != nil {
		return err
	}
	defer pf.clear()

	addr := daemonAddr(a.cfg)
	schedule := flagDaemonCron
	if schedule == "" {
		schedule = a.cfg.Daemon.RefreshCron
	}

	state := daemonRuntimeState{
		PID:       pid,
		Addr:      addr,
		Schedule:  schedule,
		StartedAt: time.Now(),
		Storage:   storageLabel(a.cfg.Storage),
	}
	if err := pf.writeState(state); err != nil {
		a.log.WithError(err).Warn("writing daemon state")
	}

	sender := notify.NewSender(a.cfg.Notify, a.log)
	svc := daemon.New(a.engine, sender, daemon.Config{
		Addr:         addr,
		RefreshCron:  schedule,
		EventsBuffer: flagDaemonEventsBuffer,
		Options:      forecastOptions(cmd),
		Logger:       a.log,
	})

	fmt.Printf("  cashcast daemon listening on http://%s\n", addr)
	fmt.Printf("  Refreshing %s from %s\n", schedule, state.Storage)
	if sender.Enabled() {
		fmt.Printf("  Budget alerts to %s\n", strings.Join(a.cfg.Notify.Recipients, ", "))
	}
	fmt.Printf("  Stop with: cashcast daemon stop --pid-file %s\n", flagDaemonPIDFile)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := svc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func storageLabel(s config.StorageConfig) string {
	if s.Driver == "postgres" {
		return "postgres"
	}
	if s.Path != "" {
		return s.Path
	}
	return config.DefaultDBPath()
}

func runDaemonStatus(cmd *cobra.Command, _ []string) error {
	pf := pidFile(flagDaemonPIDFile)
	pid, err := pf.read()
	if err != nil {
		fmt.Printf("  Daemon: not running (pid file not found)\n")
		return nil
	}
	if !processAlive(pid) {
		fmt.Printf("  Daemon: stale pid file (pid %d not alive)\n", pid)
		return nil
	}

	addr := flagDaemonAddr
	if st, err := pf.readState(); err == nil && st.Addr != "" && addr == "" {
		addr = st.Addr
	}
	if addr == "" {
		addr = config.DefaultConfig().Daemon.Addr
	}

	fmt.Printf("  Daemon PID: %d\n", pid)
	fmt.Printf("  Address: http://%s\n", addr)

	client := daemon.NewClient(addr)
	st, err := client.Status(cmd.Context())
	if err != nil {
		fmt.Printf("  API status: %v\n", err)
		return nil
	}

	if st.LastRefreshAt.IsZero() {
		fmt.Printf("  Last refresh: pending\n")
	} else {
		fmt.Printf("  Last refresh: %s\n", st.LastRefreshAt.Local().Format(time.RFC3339))
	}
	fmt.Printf("  Schedule: %s (%d refreshes)\n", st.RefreshSchedule, st.RefreshCount)
	s := st.Summary
	if !s.StartDate.IsZero() {
		fmt.Printf("  Window: %s - %s\n", s.StartDate.Format("02 Jan"), s.EndDate.Format("02 Jan 2006"))
		fmt.Printf("  Net: %s (P10 %s, P90 %s)\n",
			cli.FormatSignedMoney(s.Net), cli.FormatMoney(s.P10Net), cli.FormatMoney(s.P90Net))
		fmt.Printf("  Budgets: %d exceeded, %d at risk\n", s.Budgets.Exceeded, s.Budgets.AtRisk)
	}
	fmt.Printf("  Events: %d buffered, %d subscribers, %d alerts sent\n",
		st.EventCount, st.SubscriberCount, st.AlertsSent)
	if st.LastError != "" {
		fmt.Printf("  Last error: %s\n", st.LastError)
	}

	if evs, err := client.Events(cmd.Context()); err == nil {
		for i := len(evs) - 1; i >= 0; i-- {
			if evs[i].Type != daemon.EventBudgetAlert {
				continue
			}
			names := make([]string, 0, len(evs[i].Transitions))
			for _, tr := range evs[i].Transitions {
				names = append(names, fmt.Sprintf("%s %s", tr.Category, tr.To))
			}
			fmt.Printf("  Last alert: %s (%s)\n", evs[i].Timestamp.Local().Format(time.RFC3339), strings.Join(names, ", "))
			break
		}
	}
	return nil
}

func runDaemonStop(_ *cobra.Command, _ []string) error {
	pf := pidFile(flagDaemonPIDFile)
	pid, err := pf.read()
	if err != nil {
		return errors.New("daemon is not running")
	}

	proc, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("find daemon process: %w", err)
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("signal daemon process: %w", err)
	}

	if !waitForExit(pid, 8*time.Second) {
		return fmt.Errorf("daemon (pid %d) did not exit in time", pid)
	}
	pf.clear()
	fmt.Printf("  Stopped daemon (pid %d)\n", pid)
	return nil
}

func waitForExit(pid int, timeout time.Duration) bool {
	tick := time.NewTicker(150 * time.Millisecond)
	defer tick.Stop()
	deadline := time.After(timeout)
	for processAlive(pid) {
		select {
		case <-tick.C:
		case <-deadline:
			return false
		}
	}
	return true
}

// filterDetachArg drops --detach so the re-executed child runs in the
// foreground.
func filterDetachArg(args []string) []string {
	out := make([]string, 0, len(args))
	for _, a := range args {
		if a != "--detach" && !strings.HasPrefix(a, "--detach=") {
			out = append(out, a)
		}
	}
	return out
}

// pidFile is the daemon's pid file path. The runtime state lives next to it
// with a .json suffix.
type pidFile string

func (p pidFile) statePath() string { return string(p) + ".json" }

func (p pidFile) write(pid int) error {
	if err := os.MkdirAll(filepath.Dir(string(p)), 0o750); err != nil {
		return fmt.Errorf("create daemon directory: %w", err)
	}
	return os.WriteFile(string(p), []byte(strconv.Itoa(pid)+"\n"), 0o600)
}

func (p pidFile) read() (int, error) {
	data, err := os.ReadFile(string(p)) //nolint:gosec // path comes from a local flag
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("invalid pid in %s", p)
	}
	return pid, nil
}

func (p pidFile) clear() {
	_ = os.Remove(string(p))
	_ = os.Remove(p.statePath())
}

// ensureFree fails when a live daemon owns the pid file and removes a
// stale one.
func (p pidFile) ensureFree() error {
	pid, err := p.read()
	switch {
	case errors.Is(err, os.ErrNotExist):
		return nil
	case err != nil:
		return err
	case processAlive(pid):
		return fmt.Errorf("daemon already running (pid %d)", pid)
	}
	p.clear()
	return nil
}

func (p pidFile) writeState(st daemonRuntimeState) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(p.statePath(), append(data, '\n'), 0o600)
}

func (p pidFile) readState() (daemonRuntimeState, error) {
	var st daemonRuntimeState
	data, err := os.ReadFile(p.statePath()) //nolint:gosec // path comes from a local flag
	if err != nil {
		return st, err
	}
	err = json.Unmarshal(data, &st)
	return st, err
}

func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}
