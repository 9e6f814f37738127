// Package stockpanel is the stock search view: quote lookup, live price
// chart over a WebSocket subscription, and a periodically refreshed news
// feed.
package stockpanel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"stockdesk/internal/dashboard"
	"stockdesk/internal/live"
	"stockdesk/internal/news"
	"stockdesk/pkg/stockdesk"
)

// Backend is the subset of the SDK the panel needs.
type Backend interface {
	GetQuote(ctx context.Context, symbol string) (*stockdesk.StockQuote, error)
	GetNews(ctx context.Context) ([]stockdesk.NewsItem, error)
}

// Subscriber opens the live quote stream for a symbol.
type Subscriber interface {
	Subscribe(ctx context.Context, seq uint64, symbol string) (*live.Stream, error)
	Close()
}

const (
	ErrorText = "Stock not found or API error."
	LabelIdle = "Search"
	LabelBusy = "Searching..."
)

// Options are the panel's timing and presentation settings.
type Options struct {
	Currency     string
	Debounce     time.Duration
	NewsInterval time.Duration
	ChartPoints  int
	ExportDir    string
}

// Messages.
type quoteFetchedMsg struct {
	seq    uint64
	symbol string
	quote  *stockdesk.StockQuote
	err    error
}

type debounceMsg struct{ gen uint64 }

type subscribedMsg struct {
	seq    uint64
	symbol string
	stream *live.Stream
	err    error
}

type quotePushedMsg struct {
	stream *live.Stream
	quote  stockdesk.StockQuote
}

type streamClosedMsg struct{ stream *live.Stream }

type newsLoadedMsg struct {
	items []stockdesk.NewsItem
	err   error
}

type newsTickMsg time.Time

type exportedMsg struct {
	path string
	err  error
}

// Panel owns the stock view state: the current target symbol, the last
// rendered quote, the chart window and the single live stream.
type Panel struct {
	backend Backend
	subs    Subscriber
	log     *slog.Logger
	opts    Options
	now     func() time.Time

	input    textinput.Model
	symbol   string
	quote    stockdesk.StockQuote
	errMsg   string
	status   string
	inFlight int

	// fetchSeq tags quote requests, typeGen debounce ticks and subSeq
	// subscriptions; only the latest of each is applied.
	fetchSeq uint64
	typeGen  uint64
	subSeq   uint64

	stream *live.Stream
	window *dashboard.PriceWindow
	news   []news.Entry
	width  int
}

// New creates the panel. subs may be nil, in which case searches only fetch.
func New(backend Backend, subs Subscriber, log *slog.Logger, opts Options) *Panel {
	if opts.ChartPoints <= 0 {
		opts.ChartPoints = 20
	}
	if opts.Debounce <= 0 {
		opts.Debounce = 500 * time.Millisecond
	}
	if opts.NewsInterval <= 0 {
		opts.NewsInterval = 300 * time.Second
	}
	if opts.ExportDir == "" {
		opts.ExportDir = "."
	}

	ti := textinput.New()
	ti.Placeholder = "symbol, e.g. AAPL"
	ti.Prompt = "Symbol: "
	ti.CharLimit = 16
	ti.Focus()

	return &Panel{
		backend: backend,
		subs:    subs,
		log:     log,
		opts:    opts,
		now:     time.Now,
		input:   ti,
		window:  dashboard.NewPriceWindow(opts.ChartPoints),
	}
}

// Init loads the news feed and starts its refresh timer.
func (p *Panel) Init() tea.Cmd {
	return tea.Batch(p.FetchNews(), p.newsTick())
}

// Close tears down the live stream.
func (p *Panel) Close() {
	if p.subs != nil {
		p.subs.Close()
	}
}

// Symbol returns the current target symbol.
func (p *Panel) Symbol() string { return p.symbol }

// Quote returns the quote on display.
func (p *Panel) Quote() stockdesk.StockQuote { return p.quote }

// ErrorMessage returns the inline error, empty when the last fetch succeeded.
func (p *Panel) ErrorMessage() string { return p.errMsg }

// Loading reports whether a quote fetch is outstanding.
func (p *Panel) Loading() bool { return p.inFlight > 0 }

// SearchLabel is the label of the search control.
func (p *Panel) SearchLabel() string {
	if p.Loading() {
		return LabelBusy
	}
	return LabelIdle
}

// PriceText is the formatted price on display.
func (p *Panel) PriceText() string {
	return dashboard.FormatPrice(p.opts.Currency, p.quote.Price)
}

// VolumeText is the formatted volume on display.
func (p *Panel) VolumeText() string {
	return dashboard.FormatVolume(p.quote.Volume)
}

// Window returns the chart window.
func (p *Panel) Window() *dashboard.PriceWindow { return p.window }

// News returns the rendered headlines.
func (p *Panel) News() []news.Entry { return p.news }

// Query returns the search text typed so far.
func (p *Panel) Query() string { return p.input.Value() }

// Capturing reports whether keystrokes go to the search field.
func (p *Panel) Capturing() bool { return p.input.Focused() }

// StreamSymbol returns the symbol of the live stream the panel listens to.
func (p *Panel) StreamSymbol() string {
	if p.stream == nil {
		return ""
	}
	return p.stream.Symbol
}

// Search normalises raw, fetches the current quote and replaces the live
// subscription. Any pending debounced search is cancelled.
func (p *Panel) Search(raw string) tea.Cmd {
	sym := stockdesk.NormalizeSymbol(raw)
	if sym == "" {
		return nil
	}
	p.typeGen++
	if sym != p.symbol {
		// Queued pushes on the old stream are for the previous symbol.
		p.window.Reset()
		p.stream = nil
	}
	p.symbol = sym
	p.status = ""
	return tea.Batch(p.FetchQuote(sym), p.connect(sym))
}

// SetQuery replaces the search text and schedules a debounced search.
func (p *Panel) SetQuery(s string) tea.Cmd {
	p.input.SetValue(s)
	return p.debounce()
}

// debounce schedules a search of the input text after the quiet period.
// A newer keystroke or an immediate search invalidates the pending tick.
func (p *Panel) debounce() tea.Cmd {
	p.typeGen++
	gen := p.typeGen
	return tea.Tick(p.opts.Debounce, func(time.Time) tea.Msg {
		return debounceMsg{gen: gen}
	})
}

// FetchQuote requests the current quote for symbol and marks the panel busy
// until the response arrives.
func (p *Panel) FetchQuote(symbol string) tea.Cmd {
	p.fetchSeq++
	seq := p.fetchSeq
	p.inFlight++
	p.errMsg = ""

	b := p.backend
	return func() tea.Msg {
		q, err := b.GetQuote(context.Background(), symbol)
		return quoteFetchedMsg{seq: seq, symbol: symbol, quote: q, err: err}
	}
}

func (p *Panel) connect(symbol string) tea.Cmd {
	if p.subs == nil {
		return nil
	}
	p.subSeq++
	seq := p.subSeq
	subs := p.subs
	return func() tea.Msg {
		st, err := subs.Subscribe(context.Background(), seq, symbol)
		return subscribedMsg{seq: seq, symbol: symbol, stream: st, err: err}
	}
}

func waitForQuote(st *live.Stream) tea.Cmd {
	return func() tea.Msg {
		q, ok := <-st.Updates()
		if !ok {
			return streamClosedMsg{stream: st}
		}
		return quotePushedMsg{stream: st, quote: q}
	}
}

// FetchNews requests the news feed.
func (p *Panel) FetchNews() tea.Cmd {
	b := p.backend
	return func() tea.Msg {
		items, err := b.GetNews(context.Background())
		return newsLoadedMsg{items: items, err: err}
	}
}

func (p *Panel) newsTick() tea.Cmd {
	return tea.Tick(p.opts.NewsInterval, func(t time.Time) tea.Msg {
		return newsTickMsg(t)
	})
}

// ExportChart writes the chart window to a PNG file.
func (p *Panel) ExportChart() tea.Cmd {
	if p.symbol == "" {
		p.status = "nothing to export"
		return nil
	}
	win := p.window.Clone()
	dir, sym, now := p.opts.ExportDir, p.symbol, p.now()
	return func() tea.Msg {
		path, err := dashboard.ExportPNG(dir, sym, win, now)
		return exportedMsg{path: path, err: err}
	}
}

// Update applies a message to the panel state.
func (p *Panel) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case quoteFetchedMsg:
		if p.inFlight > 0 {
			p.inFlight--
		}
		if msg.seq != p.fetchSeq {
			p.log.Debug("discarding stale quote", "symbol", msg.symbol, "seq", msg.seq, "latest", p.fetchSeq)
			return nil
		}
		if msg.err != nil {
			p.log.Warn("fetching stock data", "symbol", msg.symbol, "error", msg.err)
			p.quote = stockdesk.StockQuote{Symbol: msg.symbol}
			p.errMsg = ErrorText
			return nil
		}
		p.apply(*msg.quote)
		return nil

	case debounceMsg:
		if msg.gen != p.typeGen {
			return nil
		}
		return p.Search(p.input.Value())

	case subscribedMsg:
		if msg.err != nil {
			if errors.Is(msg.err, live.ErrSuperseded) {
				p.log.Debug("subscription superseded", "symbol", msg.symbol)
			} else {
				p.log.Error("websocket error", "symbol", msg.symbol, "error", msg.err)
			}
			return nil
		}
		if msg.seq != p.subSeq {
			msg.stream.Close()
			return nil
		}
		p.stream = msg.stream
		return waitForQuote(msg.stream)

	case quotePushedMsg:
		if msg.stream == nil || msg.stream != p.stream || msg.stream.Symbol != p.symbol {
			return nil
		}
		p.apply(msg.quote)
		return waitForQuote(msg.stream)

	case streamClosedMsg:
		if msg.stream == p.stream {
			p.stream = nil
		}
		return nil

	case newsLoadedMsg:
		if msg.err != nil {
			p.log.Error("fetching news", "error", msg.err)
			return nil
		}
		p.news = news.Entries(msg.items)
		return nil

	case newsTickMsg:
		return tea.Batch(p.FetchNews(), p.newsTick())

	case exportedMsg:
		if msg.err != nil {
			p.log.Warn("exporting chart", "symbol", p.symbol, "error", msg.err)
			p.status = "export failed: " + msg.err.Error()
			return nil
		}
		p.status = "chart saved to " + msg.path
		return nil

	case tea.WindowSizeMsg:
		p.width = msg.Width
		return nil

	case tea.KeyMsg:
		return p.handleKey(msg)
	}

	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return cmd
}

func (p *Panel) apply(q stockdesk.StockQuote) {
	p.quote = q
	p.window.Push(q.Time(p.now()), q.Price)
}

func (p *Panel) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "enter":
		if p.Loading() {
			return nil
		}
		return p.Search(p.input.Value())
	case "ctrl+e":
		return p.ExportChart()
	}

	before := p.input.Value()
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	if p.input.Value() == before {
		return cmd
	}
	return tea.Batch(cmd, p.debounce())
}

// View renders the search bar, quote details, chart and news.
func (p *Panel) View() string {
	var b strings.Builder

	b.WriteString(p.input.View())
	b.WriteString("  ")
	if p.Loading() {
		b.WriteString(dashboard.BusyStyle.Render("⟳ " + LabelBusy))
	} else {
		b.WriteString(dashboard.ButtonStyle.Render(LabelIdle))
	}
	b.WriteString("\n")
	if p.errMsg != "" {
		b.WriteString(dashboard.ErrorStyle.Render(p.errMsg))
		b.WriteString("\n")
	}
	if p.status != "" {
		b.WriteString(dashboard.DimStyle.Render(p.status))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	field := func(label, value string, style func(...string) string) {
		b.WriteString(dashboard.LabelStyle.Render(label + " "))
		b.WriteString(style(value))
		b.WriteString("   ")
	}
	field("Symbol:", p.quote.Symbol, dashboard.TitleStyle.Render)
	field("Price:", p.PriceText(), dashboard.ValueStyle.Render)
	field("Change:", dashboard.FormatChange(p.quote.Change),
		dashboard.ChangeStyle(dashboard.ChangeClass(p.quote.Change)).Render)
	field("Volume:", p.VolumeText(), dashboard.ValueStyle.Render)
	if p.stream != nil {
		b.WriteString(dashboard.PositiveStyle.Render("● live"))
	}
	b.WriteString("\n\n")

	b.WriteString(dashboard.SectionStyle.Render(
		fmt.Sprintf(" Price chart  %d/%d ", p.window.Len(), p.window.Cap())))
	b.WriteString("\n")
	b.WriteString(renderChart(p.window, p.opts.Currency))
	b.WriteString("\n")

	b.WriteString(dashboard.SectionStyle.Render(" Market News "))
	b.WriteString("\n")
	b.WriteString(renderNews(p.news, p.width))
	return b.String()
}

func renderChart(w *dashboard.PriceWindow, currency string) string {
	if w.Len() == 0 {
		return dashboard.DimStyle.Render("  (no data)") + "\n"
	}
	prices := w.Prices()
	labels := w.Labels()
	lo, hi := prices[0], prices[0]
	for _, v := range prices {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	var b strings.Builder
	b.WriteString("  ")
	b.WriteString(dashboard.ChartStyle.Render(dashboard.Sparkline(prices)))
	b.WriteString(dashboard.DimStyle.Render(fmt.Sprintf("   low %s  high %s",
		dashboard.FormatPrice(currency, lo), dashboard.FormatPrice(currency, hi))))
	b.WriteString("\n")
	b.WriteString(dashboard.DimStyle.Render(fmt.Sprintf("  %s → %s", labels[0], labels[len(labels)-1])))
	b.WriteString("\n")
	return b.String()
}

func renderNews(entries []news.Entry, width int) string {
	if len(entries) == 0 {
		return dashboard.DimStyle.Render("  (no news)") + "\n"
	}
	summaryWidth := width - 4
	if summaryWidth < 40 {
		summaryWidth = 100
	}
	var b strings.Builder
	for _, e := range entries {
		b.WriteString("  ")
		b.WriteString(dashboard.TitleStyle.Render(e.Title))
		b.WriteString("\n")
		if e.Summary != "" {
			b.WriteString("    ")
			b.WriteString(news.Truncate(e.Summary, summaryWidth))
			b.WriteString("\n")
		}
		if e.Published != "" {
			b.WriteString("    ")
			b.WriteString(dashboard.DimStyle.Render(e.Published))
			b.WriteString("\n")
		}
	}
	return b.String()
}
