package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sourcegraph/conc"
	"go.uber.org/multierr"

	"chillbox/internal/config"
	"chillbox/internal/event"
	"chillbox/internal/ipc"
	"chillbox/internal/recorder"
	"chillbox/internal/session"
	"chillbox/internal/storage"

	sqlitestore "chillbox/internal/storage/sqlite"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	cfg      *config.Config
	storage  storage.Storage
	engine   *session.Engine
	recorder *recorder.Recorder

	socketPath string
	listener   *net.UnixListener

	wg     conc.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

func NewApp(cfg *config.Config) (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())

	a := &App{
		cfg:        cfg,
		socketPath: cfg.SocketPath,
		ctx:        ctx,
		cancel:     cancel,
	}

	opts := cfg.EngineOptions()
	opts.OnTransition = a.notifyTransition
	engine, err := session.New(cfg.Pomodoro.Durations(), opts)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create session engine: %w", err)
	}
	a.engine = engine

	a.storage = sqlitestore.NewSQLiteStore(cfg.DatabasePath)
	if err := a.storage.Init(ctx); err != nil {
		engine.Close()
		cancel()
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	a.recorder = recorder.New(engine, a.storage)

	return a, nil
}

// Engine exposes the session engine, mainly for embedding and tests.
func (a *App) Engine() *session.Engine {
	return a.engine
}

// Shutdown asks Run to return.
func (a *App) Shutdown() {
	a.cancel()
}

// setupSocket checks for existing socket and creates the listener
func (a *App) setupSocket() error {
	if _, err := os.Stat(a.socketPath); err == nil {
		conn, err := net.DialTimeout("unix", a.socketPath, 1*time.Second)
		if err == nil {
			conn.Close()
			return fmt.Errorf("socket %s already active, another instance might be running", a.socketPath)
		}
		log.Printf("Stale socket file found at %s, removing.", a.socketPath)
		if err := os.Remove(a.socketPath); err != nil {
			return fmt.Errorf("failed to remove stale socket file %s: %w", a.socketPath, err)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("error checking socket file %s: %w", a.socketPath, err)
	}

	addr, err := net.ResolveUnixAddr("unix", a.socketPath)
	if err != nil {
		return fmt.Errorf("failed to resolve unix addr %s: %w", a.socketPath, err)
	}

	listener, err := net.ListenUnix("unix", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on socket %s: %w", a.socketPath, err)
	}
	// Close must not unlink; cleanup removes the file only when we own it.
	listener.SetUnlinkOnClose(false)

	a.listener = listener
	log.Printf("Listening for commands on %s", a.socketPath)
	return nil
}

func (a *App) listenForCommands() {
	defer log.Println("Socket command listener stopped.")

	for {
		conn, err := a.listener.AcceptUnix()
		if err != nil {
			select {
			case <-a.ctx.Done():
				return
			default:
				log.Printf("Failed to accept connection: %v", err)
				if ne, ok := err.(net.Error); ok && !ne.Timeout() {
					log.Printf("Non-temporary accept error, stopping listener.")
					return
				}
				time.Sleep(100 * time.Millisecond)
			}
			continue
		}
		a.wg.Go(func() { a.handleConnection(conn) })
	}
}

func (a *App) handleConnection(conn *net.UnixConn) {
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	decoder := json.NewDecoder(conn)
	encoder := json.NewEncoder(conn)

	var cmd ipc.Command
	if err := decoder.Decode(&cmd); err != nil {
		if err != io.EOF {
			log.Printf("Failed to decode command: %v", err)
		}
		_ = encoder.Encode(ipc.Response{Success: false, Message: "Failed to decode command: " + err.Error()})
		return
	}
	conn.SetReadDeadline(time.Time{})

	log.Printf("Received command: %s", cmd.Name)

	if cmd.Name == ipc.CmdWatch {
		a.streamSnapshots(conn, encoder)
		return
	}

	conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := encoder.Encode(a.processCommand(cmd)); err != nil {
		log.Printf("Failed to send response: %v", err)
	}
}

// streamSnapshots forwards every engine snapshot to a watch client until the
// client hangs up or the engine closes.
func (a *App) streamSnapshots(conn *net.UnixConn, encoder *json.Encoder) {
	sub := a.engine.Subscribe()
	defer a.engine.Unsubscribe(sub)

	// Anything the client sends after the command, including EOF, ends the stream.
	go func() {
		_, _ = io.Copy(io.Discard, conn)
		a.engine.Unsubscribe(sub)
	}()

	for snap := range sub.Snapshots() {
		conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := encoder.Encode(ipc.Response{Success: true, Data: ipc.FromSnapshot(snap)}); err != nil {
			log.Printf("Watch client %d disconnected: %v", sub.ID(), err)
			return
		}
	}
	if dropped := sub.Dropped(); dropped > 0 {
		log.Printf("Watch client %d finished with %d dropped snapshots", sub.ID(), dropped)
	}
}

func (a *App) processCommand(cmd ipc.Command) ipc.Response {
	switch cmd.Name {
	case ipc.CmdPing:
		return ipc.Response{Success: true, Message: "pong"}

	case ipc.CmdStart:
		a.engine.Start()
		snap := a.engine.Snapshot()
		return ipc.Response{Success: true, Message: fmt.Sprintf("%s session running (%s left)", snap.Kind, snap.Clock), Data: ipc.FromSnapshot(snap)}

	case ipc.CmdPause:
		a.engine.Pause()
		snap := a.engine.Snapshot()
		return ipc.Response{Success: true, Message: fmt.Sprintf("%s session paused at %s", snap.Kind, snap.Clock), Data: ipc.FromSnapshot(snap)}

	case ipc.CmdReset:
		a.engine.Reset()
		return ipc.Response{Success: true, Message: "Timer reset", Data: ipc.FromSnapshot(a.engine.Snapshot())}

	case ipc.CmdStatus:
		return ipc.Response{Success: true, Data: ipc.FromSnapshot(a.engine.Snapshot())}

	default:
		return ipc.Response{Success: false, Message: fmt.Sprintf("Unknown command: %s", cmd.Name)}
	}
}

func (a *App) notifyTransition(t session.Transition) {
	log.Printf("Notification: [Pomodoro] %s session complete! Next: %s (completed work sessions: %d)", t.From, t.To, t.CompletedWork)
}

// Run serves commands until Shutdown is called or SIGINT/SIGTERM arrives.
func (a *App) Run() (err error) {
	defer func() {
		err = multierr.Append(err, a.cleanup())
	}()

	log.Println("Starting Chillbox daemon...")
	log.Printf("Session durations: %+v", a.engine.Durations())

	// The recorder ends on its own once cleanup closes the engine.
	a.wg.Go(a.recorder.Run)

	if err := a.setupSocket(); err != nil {
		return err
	}

	stopSignals := a.handleSignals()
	defer stopSignals()

	a.wg.Go(a.listenForCommands)

	a.saveEvent(a.ctx, event.Event{Timestamp: time.Now(), Type: event.EventTypeAppStart})

	log.Println("Chillbox daemon running. Send commands via chillbox-cli or socket.")
	<-a.ctx.Done()

	log.Println("Shutdown requested, waiting for components...")

	var errs error
	if err := a.listener.Close(); err != nil {
		log.Printf("Error closing socket listener: %v", err)
		errs = multierr.Append(errs, fmt.Errorf("close socket listener: %w", err))
	}
	// Closing the engine ends every watch stream. The recorder saves what is
	// still queued and then stops.
	a.engine.Close()

	waitChan := make(chan struct{})
	go func() {
		if recovered := a.wg.WaitAndRecover(); recovered != nil {
			log.Printf("Warning: component goroutine panicked: %s", recovered.String())
		}
		close(waitChan)
	}()

	select {
	case <-waitChan:
		log.Println("All application goroutines finished.")
	case <-time.After(shutdownTimeout):
		log.Println("Warning: Timeout waiting for application goroutines to stop.")
	}

	log.Println("Chillbox daemon finished.")
	return errs
}

func (a *App) handleSignals() func() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		select {
		case sig := <-sigChan:
			log.Printf("Received signal: %v. Initiating shutdown...", sig)
			a.cancel()
		case <-done:
		}
	}()
	return func() {
		signal.Stop(sigChan)
		close(done)
	}
}

func (a *App) saveEvent(ctx context.Context, e event.Event) {
	if _, err := a.storage.SaveEvent(ctx, e); err != nil {
		log.Printf("Warning: Failed to save %s event: %v", e.Type, err)
	}
}

func (a *App) cleanup() error {
	log.Println("Running cleanup...")
	a.cancel()
	a.engine.Close()

	if a.listener != nil {
		saveCtx, saveCancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer saveCancel()
		a.saveEvent(saveCtx, event.Event{Timestamp: time.Now(), Type: event.EventTypeAppStop})
	}

	var errs error
	if a.storage != nil {
		errs = multierr.Append(errs, a.storage.Close())
	}

	if a.listener != nil {
		log.Printf("Removing socket file: %s", a.socketPath)
		if err := os.Remove(a.socketPath); err != nil && !os.IsNotExist(err) {
			errs = multierr.Append(errs, fmt.Errorf("remove socket file %s: %w", a.socketPath, err))
		}
	}

	log.Println("Cleanup finished.")
	return errs
}
