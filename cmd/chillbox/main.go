package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/sevlyar/go-daemon"

	"chillbox/internal/app"
	"chillbox/internal/config"
)

var (
	configPath = flag.String("c", "", "Path to configuration file (e.g., config.yaml). Defaults to ./config.yaml, ~/.config/chillbox/config.yaml, /etc/chillbox/config.yaml")
	logPath    = flag.String("log", "", "Path to log file (optional, defaults to stderr)")
	daemonize  = flag.Bool("d", false, "Detach from the terminal and run in the background (requires -log)")
	pidPath    = flag.String("pid", "", "PID file used with -d (default: <log dir>/chillbox.pid)")
)

// setupLogging configures the log output destination.
func setupLogging(logFilePath string) (*os.File, error) {
	if logFilePath == "" {
		log.SetOutput(os.Stderr)
		log.Println("Logging to stderr")
		return nil, nil
	}

	dir := filepath.Dir(logFilePath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
	}

	file, err := os.OpenFile(logFilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", logFilePath, err)
	}

	log.SetOutput(file)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	log.Printf("Logging to file: %s", logFilePath)
	return file, nil
}

// detach re-executes the binary in the background. It returns a nil context
// in the parent process, which should exit right away.
func detach() (*daemon.Context, bool, error) {
	if *logPath == "" {
		return nil, false, fmt.Errorf("-d requires -log, a detached daemon has no terminal")
	}
	pid := *pidPath
	if pid == "" {
		pid = filepath.Join(filepath.Dir(*logPath), "chillbox.pid")
	}

	cntxt := &daemon.Context{
		PidFileName: pid,
		PidFilePerm: 0644,
		WorkDir:     "./",
		Umask:       027,
	}
	child, err := cntxt.Reborn()
	if err != nil {
		return nil, false, fmt.Errorf("daemonize: %w", err)
	}
	if child != nil {
		fmt.Printf("Chillbox daemon started (pid %d)\n", child.Pid)
		return nil, true, nil
	}
	return cntxt, false, nil
}

func main() {
	flag.Parse()

	if *daemonize {
		cntxt, isParent, err := detach()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if isParent {
			return
		}
		defer cntxt.Release()
	}

	logFile, logErr := setupLogging(*logPath)
	if logErr != nil {
		fmt.Fprintf(os.Stderr, "Error setting up file logging: %v. Logging to stderr instead.\n", logErr)
		log.SetOutput(os.Stderr)
		log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	}
	if logFile != nil {
		defer logFile.Close()
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	application, err := app.NewApp(cfg)
	if err != nil {
		log.Fatalf("FATAL: Failed to create application: %v", err)
	}

	if err := application.Run(); err != nil {
		log.Fatalf("FATAL: Application exited with error: %v", err)
	}

	log.Println("Chillbox finished successfully.")
}
