package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/websocket"

	"stockdesk/internal/csvpanel"
	"stockdesk/internal/live"
	"stockdesk/internal/stockpanel"
	"stockdesk/pkg/stockdesk"
)

// newTestModel wires both panels to a fake backend whose stream pushes one
// quote at 200 as soon as a client connects.
func newTestModel(t *testing.T) model {
	t.Helper()
	upgrader := websocket.Upgrader{}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/stock/{symbol}", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(stockdesk.StockQuote{Symbol: r.PathValue("symbol"), Price: 189.25, Volume: 100})
	})
	mux.HandleFunc("GET /api/news", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[]`)
	})
	mux.HandleFunc("GET /api/csv/models", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[{"fileName":"prices.csv","metadata":{"columns":2,"rows":5},"modelType":"Linear Regression","accuracy":0.5,"predictions":{}}]`)
	})
	mux.HandleFunc("/ws/stock/{symbol}", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		if err := conn.WriteJSON(stockdesk.StockQuote{Symbol: r.PathValue("symbol"), Price: 200, Volume: 150}); err != nil {
			return
		}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	client := stockdesk.NewClient(srv.URL)
	subs := live.NewSubscriber("ws"+strings.TrimPrefix(srv.URL, "http"), log)
	t.Cleanup(subs.Close)

	stocks := stockpanel.New(client, subs, log, stockpanel.Options{Currency: "₹", Debounce: 10 * time.Millisecond})
	models := csvpanel.New(client, log)
	return initialModel(stocks, models, client.BaseURL(), log)
}

// drive runs cmd through the root model, feeding every message back into
// Update. Commands that block are abandoned after a short wait.
func drive(m model, cmd tea.Cmd) model {
	if cmd == nil {
		return m
	}
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()

	var msg tea.Msg
	select {
	case msg = <-ch:
	case <-time.After(500 * time.Millisecond):
		return m
	}
	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, c := range batch {
			m = drive(m, c)
		}
		return m
	}
	next, cmd := m.Update(msg)
	return drive(next.(model), cmd)
}

func update(m model, msg tea.Msg) (model, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(model), cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestKeysReachOnlyActiveTab(t *testing.T) {
	m := newTestModel(t)
	m.tab = tabModels

	m, _ = update(m, runes("u"))
	m, _ = update(m, runes("x"))
	if m.models.Input() != "x" {
		t.Errorf("CSV input = %q, want x", m.models.Input())
	}
	if m.stocks.Query() != "" {
		t.Errorf("stock query = %q, want keys kept off the hidden tab", m.stocks.Query())
	}

	m, _ = update(m, tea.KeyMsg{Type: tea.KeyTab})
	if m.tab != tabStock {
		t.Fatalf("tab = %d after tab key, want stocks", m.tab)
	}
	m, _ = update(m, runes("q"))
	if m.stocks.Query() != "q" {
		t.Errorf("stock query = %q, want q typed into the search field", m.stocks.Query())
	}
	if m.models.Input() != "x" {
		t.Errorf("CSV input = %q changed while its tab was hidden", m.models.Input())
	}
}

func TestQuitOnlyWhenNotCapturing(t *testing.T) {
	m := newTestModel(t)
	m.tab = tabModels

	_, cmd := update(m, runes("q"))
	if cmd == nil {
		t.Fatal("q on the model list should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q on the model list did not return tea.Quit")
	}

	_, cmd = update(m, tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("ctrl+c should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("ctrl+c did not return tea.Quit")
	}
}

func TestStockUpdatesApplyWhileCSVTabShown(t *testing.T) {
	m := newTestModel(t)
	m.tab = tabModels

	m = drive(m, m.stocks.Search("aapl"))

	if m.tab != tabModels {
		t.Errorf("tab = %d, want CSV tab to stay active", m.tab)
	}
	q := m.stocks.Quote()
	if q.Symbol != "AAPL" || q.Price != 200 {
		t.Errorf("quote = %+v, want the pushed AAPL quote at 200", q)
	}
	if got := m.stocks.Window().Prices(); len(got) != 2 || got[0] != 189.25 || got[1] != 200 {
		t.Errorf("window = %v, want [189.25 200]", got)
	}
}

func TestCSVUpdatesApplyWhileStockTabShown(t *testing.T) {
	m := newTestModel(t)

	m = drive(m, m.models.List())

	if got := m.models.Models(); len(got) != 1 || got[0].FileName != "prices.csv" {
		t.Errorf("models = %+v, want [prices.csv]", got)
	}
}

func TestViewRendersTabs(t *testing.T) {
	m := newTestModel(t)
	if m.View() != "Loading..." {
		t.Errorf("View() before sizing = %q", m.View())
	}

	m, _ = update(m, tea.WindowSizeMsg{Width: 100, Height: 30})
	view := m.View()
	for _, want := range []string{"Stocks", "CSV Models", "Symbol:"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}
