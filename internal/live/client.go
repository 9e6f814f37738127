// Package live maintains the single live quote subscription of the stock
// panel over the backend's /ws/stock/{symbol} WebSocket.
package live

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"stockdesk/pkg/stockdesk"
)

// ErrSuperseded is returned by Subscribe when a newer subscription request
// was made before this one got the connection slot.
var ErrSuperseded = errors.New("subscription superseded")

// Subscriber owns at most one open quote stream at a time. Opening a new
// stream closes the previous one first.
type Subscriber struct {
	wsBase string
	dialer *websocket.Dialer
	log    *slog.Logger

	mu     sync.Mutex
	latest uint64
	gen    uint64 // bumped by every Subscribe and Close
	cur    *Stream
}

// NewSubscriber creates a subscriber dialing wsBase (e.g. ws://host:8080).
func NewSubscriber(wsBase string, log *slog.Logger) *Subscriber {
	return &Subscriber{
		wsBase: strings.TrimRight(wsBase, "/"),
		dialer: &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		log:    log,
	}
}

// URL returns the stream URL for symbol.
func (s *Subscriber) URL(symbol string) string {
	return s.wsBase + "/ws/stock/" + url.PathEscape(symbol)
}

// Subscribe closes the current stream and opens one for symbol. seq orders
// concurrent requests: a request older than the newest one seen is refused
// with ErrSuperseded without dialing. The dial runs without holding the
// lock; if a newer Subscribe or a Close happened meanwhile, the fresh
// connection is dropped and ErrSuperseded returned.
func (s *Subscriber) Subscribe(ctx context.Context, seq uint64, symbol string) (*Stream, error) {
	s.mu.Lock()
	if seq < s.latest {
		s.mu.Unlock()
		return nil, ErrSuperseded
	}
	s.latest = seq
	s.gen++
	gen := s.gen
	prev := s.cur
	s.cur = nil
	s.mu.Unlock()

	if prev != nil {
		prev.Close()
	}

	conn, _, err := s.dialer.DialContext(ctx, s.URL(symbol), nil)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", symbol, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		conn.Close()
		s.log.Debug("dropping superseded connection", "symbol", symbol)
		return nil, ErrSuperseded
	}

	st := &Stream{
		Symbol:  symbol,
		conn:    conn,
		updates: make(chan stockdesk.StockQuote, 64),
		done:    make(chan struct{}),
		log:     s.log,
	}
	go st.readLoop()
	s.cur = st

	s.log.Info("websocket connected", "symbol", symbol)
	return st, nil
}

// Active reports the symbol of the open stream, if any.
func (s *Subscriber) Active() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur == nil || s.cur.Closed() {
		return "", false
	}
	return s.cur.Symbol, true
}

// Close tears down the open stream and abandons any dial in progress.
func (s *Subscriber) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	if s.cur != nil {
		s.cur.Close()
		s.cur = nil
	}
}

// Stream is one live quote subscription.
type Stream struct {
	Symbol string

	conn      *websocket.Conn
	updates   chan stockdesk.StockQuote
	done      chan struct{}
	closeOnce sync.Once
	log       *slog.Logger
}

// Updates delivers decoded quotes. It is closed when the connection ends.
func (st *Stream) Updates() <-chan stockdesk.StockQuote { return st.updates }

// Close closes the connection. It is safe to call more than once.
func (st *Stream) Close() {
	st.closeOnce.Do(func() {
		close(st.done)
		st.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		st.conn.Close()
	})
}

// Closed reports whether Close was called.
func (st *Stream) Closed() bool {
	select {
	case <-st.done:
		return true
	default:
		return false
	}
}

func (st *Stream) readLoop() {
	defer close(st.updates)
	for {
		_, data, err := st.conn.ReadMessage()
		if err != nil {
			switch {
			case st.Closed(), websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway):
			default:
				st.log.Error("websocket error", "symbol", st.Symbol, "error", err)
			}
			st.log.Info("websocket connection closed", "symbol", st.Symbol)
			return
		}

		var q stockdesk.StockQuote
		if err := json.Unmarshal(data, &q); err != nil {
			st.log.Warn("decoding quote message", "symbol", st.Symbol, "error", err)
			continue
		}
		if err := q.Validate(); err != nil {
			st.log.Warn("dropping quote message", "symbol", st.Symbol, "error", err)
			continue
		}

		select {
		case st.updates <- q:
		case <-st.done:
			return
		}
	}
}
