package ipc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"time"
)

const (
	dialTimeout = 2 * time.Second
	ioTimeout   = 5 * time.Second
)

// Send delivers one command and waits for its single response.
func Send(socketPath string, cmd Command) (Response, error) {
	conn, err := net.DialTimeout("unix", socketPath, dialTimeout)
	if err != nil {
		return Response{}, fmt.Errorf("connect to daemon socket (%s): %w", socketPath, err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(ioTimeout))

	if err := json.NewEncoder(conn).Encode(cmd); err != nil {
		return Response{}, fmt.Errorf("send command: %w", err)
	}
	var resp Response
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return Response{}, fmt.Errorf("receive response: %w", err)
	}
	return resp, nil
}

// Watch subscribes to the daemon's snapshot stream and calls fn for each one.
// It returns nil when ctx is cancelled or the daemon ends the stream.
func Watch(ctx context.Context, socketPath string, fn func(SnapshotData)) error {
	conn, err := net.DialTimeout("unix", socketPath, dialTimeout)
	if err != nil {
		return fmt.Errorf("connect to daemon socket (%s): %w", socketPath, err)
	}
	defer conn.Close()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stop:
		}
	}()

	conn.SetWriteDeadline(time.Now().Add(ioTimeout))
	if err := json.NewEncoder(conn).Encode(Command{Name: CmdWatch}); err != nil {
		return fmt.Errorf("send watch command: %w", err)
	}
	conn.SetWriteDeadline(time.Time{})

	decoder := json.NewDecoder(conn)
	for {
		var resp Response
		if err := decoder.Decode(&resp); err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("receive snapshot: %w", err)
		}
		if !resp.Success {
			return errors.New(resp.Message)
		}
		var snap SnapshotData
		if err := Convert(resp.Data, &snap); err != nil {
			return err
		}
		fn(snap)
	}
}

// Convert re-decodes a generic JSON value (as produced by decoding into
// interface{}) into a concrete struct.
func Convert(input interface{}, output interface{}) error {
	if input == nil {
		return nil
	}
	jsonBytes, err := json.Marshal(input)
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}
	if err := json.Unmarshal(jsonBytes, output); err != nil {
		return fmt.Errorf("failed to unmarshal data into %T: %w", output, err)
	}
	return nil
}
