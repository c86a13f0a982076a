package transport

import "context"

// Mock is a scripted in-memory transport for tests. Responses are looked up
// by exact command first, then popped from the queue; unscripted commands get
// a bare prompt back.
type Mock struct {
	BootText string
	Script   map[string]string
	Queue    []string

	// Commands records everything sent, in order.
	Commands []string

	started bool
	closed  bool
}

var _ Transport = (*Mock)(nil)

// NewMock returns a Mock with the given boot text.
func NewMock(bootText string) *Mock {
	return &Mock{BootText: bootText}
}

// Enqueue appends responses to the fallback queue.
func (m *Mock) Enqueue(responses ...string) {
	m.Queue = append(m.Queue, responses...)
}

func (m *Mock) Start(ctx context.Context) (string, error) {
	if m.closed {
		return "", ErrClosed
	}
	m.started = true
	return m.BootText, nil
}

func (m *Mock) Send(ctx context.Context, command string) (string, error) {
	if !m.started || m.closed {
		return "", ErrClosed
	}
	m.Commands = append(m.Commands, command)

	if out, ok := m.Script[command]; ok {
		return out, nil
	}
	if len(m.Queue) > 0 {
		out := m.Queue[0]
		m.Queue = m.Queue[1:]
		return out, nil
	}
	return "\n>", nil
}

func (m *Mock) Alive() bool {
	return m.started && !m.closed
}

func (m *Mock) Terminate() error {
	m.closed = true
	return nil
}

// Kill simulates the interpreter dying out from under the session.
func (m *Mock) Kill() {
	m.closed = true
}
