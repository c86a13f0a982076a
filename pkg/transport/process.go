package transport

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
)

// promptMarker frames interpreter output: each chunk ends with it, except the
// final chunk of a finished game.
const promptMarker = "\n>"

// Process runs a game interpreter as a subprocess, exchanging commands over
// stdin/stdout. Output chunks are framed on the trailing prompt marker.
type Process struct {
	path   string
	args   []string
	logger *slog.Logger

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Reader
	done   chan struct{}
}

var _ Transport = (*Process)(nil)

// NewProcess returns a transport that will run the interpreter at path with
// the given arguments (typically the game file).
func NewProcess(path string, args []string, logger *slog.Logger) *Process {
	return &Process{
		path:   path,
		args:   args,
		logger: logger,
	}
}

// Start launches the interpreter and reads its boot output.
func (p *Process) Start(ctx context.Context) (string, error) {
	if p.Alive() {
		return "", fmt.Errorf("transport: interpreter already running")
	}

	// The process outlives the Start call; lifetime is governed by
	// Terminate, not by the caller's context.
	if err := ctx.Err(); err != nil {
		return "", err
	}
	cmd := exec.Command(p.path, p.args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return "", fmt.Errorf("transport: open stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return "", fmt.Errorf("transport: open stdout: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("transport: start interpreter: %w", err)
	}

	p.cmd = cmd
	p.stdin = stdin
	p.stdout = bufio.NewReader(stdout)
	p.done = make(chan struct{})

	go func() {
		err := cmd.Wait()
		p.logger.Debug("interpreter exited", "path", p.path, "error", err)
		close(p.done)
	}()

	boot, err := p.readChunk()
	if err != nil {
		_ = p.Terminate()
		return "", err
	}
	return boot, nil
}

// Send writes one command and reads the interpreter's response.
func (p *Process) Send(ctx context.Context, command string) (string, error) {
	if !p.Alive() {
		return "", ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if _, err := io.WriteString(p.stdin, command+"\n"); err != nil {
		p.logger.Debug("write to interpreter failed", "error", err)
		return "", ErrClosed
	}
	return p.readChunk()
}

// readChunk reads until the buffered output ends with the prompt marker. At
// EOF, buffered text is the game's final output; EOF with nothing read means
// the channel is closed.
func (p *Process) readChunk() (string, error) {
	var buf strings.Builder
	for {
		b, err := p.stdout.ReadByte()
		if err != nil {
			if buf.Len() == 0 {
				return "", ErrClosed
			}
			return buf.String(), nil
		}
		buf.WriteByte(b)
		if b == '>' && strings.HasSuffix(buf.String(), promptMarker) {
			return buf.String(), nil
		}
	}
}

// Alive reports whether the interpreter process is running.
func (p *Process) Alive() bool {
	if p.cmd == nil {
		return false
	}
	select {
	case <-p.done:
		return false
	default:
		return true
	}
}

// Terminate kills the interpreter process and waits for it to be reaped.
func (p *Process) Terminate() error {
	if p.cmd == nil {
		return nil
	}
	if p.Alive() {
		if err := p.cmd.Process.Kill(); err != nil {
			return fmt.Errorf("transport: kill interpreter: %w", err)
		}
	}
	<-p.done
	_ = p.stdin.Close()
	p.cmd = nil
	return nil
}
