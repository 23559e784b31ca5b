package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"chillbox/internal/config"
	"chillbox/internal/event"
	"chillbox/internal/ipc"
	"chillbox/internal/report"

	sqlitestore "chillbox/internal/storage/sqlite"
)

var (
	socketPath string
	dbPath     string
)

var rootCmd = &cobra.Command{
	Use:   "chillbox-cli",
	Short: "CLI tool to interact with the Chillbox daemon",
	Long:  `A command-line interface to control the Pomodoro timer of a running Chillbox daemon via its Unix socket, and to summarize its history.`,
}

// sendCommand sends cmd, prints the response and exits non-zero on failure.
func sendCommand(cmd ipc.Command) {
	resp, err := ipc.Send(socketPath, cmd)
	if err != nil {
		log.Fatalf("Error: %v\nIs the Chillbox daemon running?", err)
	}

	if !resp.Success {
		fmt.Fprintf(os.Stderr, "Error: %s\n", resp.Message)
		os.Exit(1)
	}
	fmt.Println("Success:", resp.Message)
	if resp.Data != nil {
		prettyData, err := json.MarshalIndent(resp.Data, "", "  ")
		if err == nil {
			fmt.Println("Data:")
			fmt.Println(string(prettyData))
		} else {
			fmt.Println("Data (raw):", resp.Data)
		}
	}
}

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check if the Chillbox daemon is running",
	Run: func(cmd *cobra.Command, args []string) {
		sendCommand(ipc.Command{Name: ipc.CmdPing})
	},
}

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start or resume the current session",
	Run: func(cmd *cobra.Command, args []string) {
		sendCommand(ipc.Command{Name: ipc.CmdStart})
	},
}

var pauseCmd = &cobra.Command{
	Use:   "pause",
	Short: "Pause the countdown, keeping the remaining time",
	Run: func(cmd *cobra.Command, args []string) {
		sendCommand(ipc.Command{Name: ipc.CmdPause})
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Stop the timer and go back to a fresh Work session",
	Run: func(cmd *cobra.Command, args []string) {
		sendCommand(ipc.Command{Name: ipc.CmdReset})
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current session, remaining time and completed work sessions",
	Run: func(cmd *cobra.Command, args []string) {
		sendCommand(ipc.Command{Name: ipc.CmdStatus})
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow the timer live (s: start, p: pause, r: reset, q: quit)",
	Run: func(cmd *cobra.Command, args []string) {
		plain, _ := cmd.Flags().GetBool("plain")

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		var err error
		if plain {
			err = ipc.Watch(ctx, socketPath, func(s ipc.SnapshotData) {
				fmt.Println(formatLine(s))
			})
		} else {
			err = runWatchUI(ctx, socketPath)
		}
		if err != nil {
			log.Fatalf("Error: %v", err)
		}
	},
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Summarize completed Pomodoro sessions from the history database",
	Run: func(cmd *cobra.Command, args []string) {
		days, _ := cmd.Flags().GetInt("days")
		if days <= 0 {
			log.Fatalf("Error: --days must be positive, got %d", days)
		}
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			log.Fatalf("Error: Database file not found at %s. Ensure the chillbox daemon has run or specify path with --db.", dbPath)
		} else if err != nil {
			log.Fatalf("Error accessing database file %s: %v", dbPath, err)
		}

		endTime := time.Now()
		startTime := endTime.AddDate(0, 0, -days)

		store := sqlitestore.NewSQLiteStore(dbPath)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := store.Init(ctx); err != nil {
			log.Fatalf("Failed to initialize storage connection: %v", err)
		}
		defer store.Close()

		events, err := store.GetEvents(ctx, startTime, endTime,
			event.EventTypeSessionComplete, event.EventTypeSessionPause, event.EventTypeSessionReset)
		if err != nil {
			log.Fatalf("Failed to fetch events: %v", err)
		}
		if len(events) == 0 {
			fmt.Println("No session data found for the specified period.")
			return
		}

		if err := report.Write(os.Stdout, report.Summarize(events, startTime, endTime)); err != nil {
			log.Fatalf("Failed to write report: %v", err)
		}
	},
}

func main() {
	rootCmd.PersistentFlags().StringVar(&socketPath, "socket", config.DefaultSocketPath, "Path to the Chillbox daemon socket")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", config.DefaultDatabasePath, "Path to the Chillbox history database")

	watchCmd.Flags().Bool("plain", false, "Print one line per snapshot instead of the interactive view")
	reportCmd.Flags().IntP("days", "d", 7, "Number of past days to include in the report")

	rootCmd.AddCommand(pingCmd, startCmd, pauseCmd, resetCmd, statusCmd, watchCmd, reportCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}
