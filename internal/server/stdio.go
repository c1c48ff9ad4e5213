package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// StdioTransport serves the protocol over newline-delimited JSON-RPC on
// a reader/writer pair, stdin and stdout in production. Custom streams
// can be injected for testing.
type StdioTransport struct {
	dispatcher *Dispatcher
	reader     *bufio.Reader
	writer     *bufio.Writer
	mu         sync.Mutex
}

// NewStdioTransport creates a stdio transport over os.Stdin/os.Stdout.
func NewStdioTransport(dispatcher *Dispatcher) *StdioTransport {
	return NewStdioTransportWithIO(dispatcher, os.Stdin, os.Stdout)
}

// NewStdioTransportWithIO creates a stdio transport over custom streams.
func NewStdioTransportWithIO(dispatcher *Dispatcher, r io.Reader, w io.Writer) *StdioTransport {
	return &StdioTransport{
		dispatcher: dispatcher,
		reader:     bufio.NewReader(r),
		writer:     bufio.NewWriter(w),
	}
}

// Run reads messages until EOF or context cancellation, dispatching
// each one and writing the response as a single JSON line. Malformed
// input produces a protocol-level error response rather than
// terminating the loop.
func (t *StdioTransport) Run(ctx context.Context) error {
	logger := t.dispatcher.Logger()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line, err := t.reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				// Process a trailing unterminated line before exiting.
				if rest := strings.TrimSpace(line); rest != "" {
					t.handleLine(ctx, rest)
				}
				logger.Debug().Msg("stdin closed, stopping stdio transport")
				return nil
			}
			return fmt.Errorf("read stdin: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		t.handleLine(ctx, line)
	}
}

func (t *StdioTransport) handleLine(ctx context.Context, line string) {
	logger := t.dispatcher.Logger()

	var req JSONRPCRequest
	if err := json.Unmarshal([]byte(line), &req); err != nil {
		logger.Warn().Err(err).Msg("failed to parse incoming message")
		t.send(newError(nil, ParseError, "invalid JSON"))
		return
	}
	if req.JSONRPC != "2.0" {
		t.send(newError(req.ID, InvalidRequest, "invalid jsonrpc version"))
		return
	}

	resp := t.dispatcher.Handle(ctx, &req)
	if resp == nil {
		return
	}
	t.send(resp)
}

// send writes one response as a single line and flushes immediately so
// the client is never left waiting on a buffered reply.
func (t *StdioTransport) send(resp *JSONRPCResponse) {
	t.mu.Lock()
	defer t.mu.Unlock()

	data, err := json.Marshal(resp)
	if err != nil {
		t.dispatcher.Logger().Error().Err(err).Msg("failed to marshal response")
		return
	}

	if _, err := t.writer.Write(append(data, '\n')); err != nil {
		t.dispatcher.Logger().Error().Err(err).Msg("failed to write response")
		return
	}
	if err := t.writer.Flush(); err != nil {
		t.dispatcher.Logger().Error().Err(err).Msg("failed to flush response")
	}
}
