package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/jordangarrison/grove/internal/app"
	"github.com/jordangarrison/grove/internal/config"
	"github.com/jordangarrison/grove/internal/eventlog"
	"github.com/jordangarrison/grove/internal/executor"
	"github.com/jordangarrison/grove/internal/markerfile"
)

const groveDirName = ".grove"

// Version is set at build time via ldflags.
var Version = ""

var (
	configPath  = flag.String("config", "", "path to config file")
	projectRoot = flag.String("project", ".", "project root directory")
	debugFlag   = flag.Bool("debug", false, "enable debug logging")
	versionFlag = flag.Bool("version", false, "print version and exit")
	shortVer    = flag.Bool("v", false, "print version and exit (short)")

	printHello  = flag.Bool("print-hello", false, "print a fixture string and exit")
	eventLogArg = flag.String("event-log", "", "NDJSON event-log path; relative paths resolve under .grove/")
	debugRecord = flag.Bool("debug-record", false, "record every event to a uniquely-named debug file under .grove/")
)

func main() {
	flag.Parse()

	if *printHello {
		fmt.Println("grove: hello")
		os.Exit(0)
	}

	if *versionFlag || *shortVer {
		fmt.Printf("grove version %s\n", Version)
		os.Exit(0)
	}

	workDir, err := filepath.Abs(*projectRoot)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to resolve project root: %v\n", err)
		os.Exit(1)
	}

	eventLogPath, err := resolveEventLogPath(workDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid input: %v\n", err)
		os.Exit(2)
	}

	logLevel := slog.LevelInfo
	if *debugFlag {
		logLevel = slog.LevelDebug
	}
	logFile, err := openLogFile(workDir)
	var logWriter io.Writer = io.Discard
	if err == nil {
		logWriter = logFile
		defer logFile.Close()
	}
	logger := slog.New(slog.NewTextHandler(logWriter, &slog.HandlerOptions{Level: logLevel}))

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	var eventLog eventlog.Logger = eventlog.NullLogger{}
	if eventLogPath != "" {
		fileLog, err := eventlog.OpenFileLogger(eventLogPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to open event log: %v\n", err)
			os.Exit(1)
		}
		defer fileLog.Close()
		eventLog = fileLog
	}

	// Unset TMUX so Grove's own tmux sessions are independent of any outer
	// tmux session the TUI itself happens to be running inside.
	_ = os.Unsetenv("TMUX")

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Fprintln(os.Stderr, "grove requires an interactive terminal")
		os.Exit(1)
	}

	exec := executor.NewTmuxExecutor()
	sidebarRatio := markerfile.ReadSidebarRatio(workDir, 30)
	model := app.New(cfg, logger, exec, eventLog, workDir, sidebarRatio)

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseAllMotion())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error running application: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (config.Config, error) {
	if path != "" {
		return config.LoadFrom(path)
	}
	return config.Load()
}

// resolveEventLogPath implements §6's CLI contract: --debug-record allocates
// a uniquely-named path under .grove/ and implies event logging even
// without --event-log; --event-log resolves a relative path under .grove/;
// --event-log given with an empty value is an InvalidInput error.
func resolveEventLogPath(workDir string) (string, error) {
	wasSet := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "event-log" {
			wasSet = true
		}
	})
	if wasSet && *eventLogArg == "" {
		return "", fmt.Errorf("--event-log requires a path")
	}

	groveDir := filepath.Join(workDir, groveDirName)

	if *debugRecord {
		return allocateDebugRecordPath(groveDir, time.Now(), os.Getpid())
	}
	if *eventLogArg == "" {
		return "", nil
	}
	if filepath.IsAbs(*eventLogArg) {
		return *eventLogArg, nil
	}
	return filepath.Join(groveDir, *eventLogArg), nil
}

// allocateDebugRecordPath finds the first unused
// debug-record-<ts>-<pid>[-<n>].jsonl name under dir.
func allocateDebugRecordPath(dir string, now time.Time, pid int) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	base := fmt.Sprintf("debug-record-%d-%d", now.Unix(), pid)
	candidate := filepath.Join(dir, base+".jsonl")
	for n := 1; ; n++ {
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate, nil
		}
		candidate = filepath.Join(dir, base+"-"+strconv.Itoa(n)+".jsonl")
	}
}

// openLogFile creates/opens the debug log file under the project's .grove
// directory, never writing application logs to stderr (that leaks through
// the TUI's alt screen).
func openLogFile(workDir string) (*os.File, error) {
	dir := filepath.Join(workDir, groveDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(filepath.Join(dir, "debug.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}

func init() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: grove [options]\n\n")
		fmt.Fprintf(os.Stderr, "A terminal UI managing git worktrees paired with long-lived agent sessions.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}
}
