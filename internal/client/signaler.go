package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/dkeye/Voice/internal/protocol"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	closeGrace     = 2 * time.Second
)

// WSDialer opens the room websocket with the bearer in the Authorization
// header.
type WSDialer struct {
	URL   string
	Token string
}

func (d WSDialer) Dial(ctx context.Context) (Signaler, error) {
	u, err := url.Parse(d.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid server URL: %w", err)
	}
	header := http.Header{}
	if d.Token != "" {
		header.Set("Authorization", "Bearer "+d.Token)
	}
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("failed to connect: %w (status %d)", err, resp.StatusCode)
		}
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	return newWSSignaler(conn), nil
}

// wsSignaler runs a read and a write pump in one errgroup. Whichever ends
// first takes the other down with it.
type wsSignaler struct {
	conn     *websocket.Conn
	incoming chan protocol.Envelope
	outgoing chan protocol.Envelope
	done     chan struct{}
	group    *errgroup.Group

	mu     sync.Mutex
	closed bool
}

func newWSSignaler(conn *websocket.Conn) *wsSignaler {
	s := &wsSignaler{
		conn:     conn,
		incoming: make(chan protocol.Envelope, 16),
		outgoing: make(chan protocol.Envelope, 64),
		done:     make(chan struct{}),
	}
	g, ctx := errgroup.WithContext(context.Background())
	s.group = g
	g.Go(func() error { return s.readPump(ctx) })
	g.Go(func() error { return s.writePump(ctx) })
	return s
}

func (s *wsSignaler) Incoming() <-chan protocol.Envelope { return s.incoming }

func (s *wsSignaler) Send(env protocol.Envelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSignalingClosed
	}
	select {
	case s.outgoing <- env:
		return nil
	case <-s.done:
		return ErrSignalingClosed
	}
}

// Close lets the write pump flush what is queued, then waits a short grace
// period for both pumps.
func (s *wsSignaler) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.outgoing)
	s.mu.Unlock()

	wait := make(chan error, 1)
	go func() { wait <- s.group.Wait() }()
	select {
	case err := <-wait:
		if errors.Is(err, errLocalClose) {
			return nil
		}
		return err
	case <-time.After(closeGrace):
		_ = s.conn.Close()
		return <-wait
	}
}

var errLocalClose = errors.New("closed locally")

func (s *wsSignaler) readPump(ctx context.Context) error {
	defer func() {
		close(s.done)
		close(s.incoming)
	}()
	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return errLocalClose
			}
			return err
		}
		_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
		env, err := protocol.Decode(data)
		if err != nil {
			log.Warn().Err(err).Str("module", "client.signaler").Msg("dropping undecodable envelope")
			continue
		}
		select {
		case s.incoming <- env:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (s *wsSignaler) writePump(ctx context.Context) error {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = s.conn.Close()
	}()

	for {
		select {
		case env, ok := <-s.outgoing:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return errLocalClose
			}
			b, err := protocol.Encode(env)
			if err != nil {
				log.Error().Err(err).Str("module", "client.signaler").Msg("encode")
				continue
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, b); err != nil {
				return err
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
