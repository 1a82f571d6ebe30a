package client

import "sync"

// mailbox is an unbounded FIFO feeding the session loop. Posting never
// blocks, so media callbacks can't stall on a busy loop.
type mailbox struct {
	mu     sync.Mutex
	items  []event
	notify chan struct{}
	closed bool
}

func newMailbox() *mailbox {
	return &mailbox{notify: make(chan struct{}, 1)}
}

// post reports false once the mailbox is closed.
func (m *mailbox) post(ev event) bool {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return false
	}
	m.items = append(m.items, ev)
	m.mu.Unlock()

	select {
	case m.notify <- struct{}{}:
	default:
	}
	return true
}

// drain returns everything queued so far, in order.
func (m *mailbox) drain() []event {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := m.items
	m.items = nil
	return items
}

func (m *mailbox) close() {
	m.mu.Lock()
	m.closed = true
	m.items = nil
	m.mu.Unlock()
}
