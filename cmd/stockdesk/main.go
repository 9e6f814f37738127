package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"stockdesk/internal/config"
	"stockdesk/internal/csvpanel"
	"stockdesk/internal/live"
	"stockdesk/internal/stockpanel"
	"stockdesk/internal/util"
	"stockdesk/pkg/stockdesk"
)

// Styles.
var (
	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("4"))
	tabActiveStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("6"))
	tabStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Background(lipgloss.Color("4"))
	footerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Background(lipgloss.Color("8"))
)

const (
	tabStock = iota
	tabModels
	tabCount
)

var tabNames = [tabCount]string{"Stocks", "CSV Models"}

// panel is what the root model needs from each tab.
type panel interface {
	Init() tea.Cmd
	Update(tea.Msg) tea.Cmd
	View() string
	Capturing() bool
}

// Model.
type model struct {
	stocks *stockpanel.Panel
	models *csvpanel.Panel
	tab    int

	baseURL       string
	viewport      viewport.Model
	ready         bool
	width, height int
	logger        *slog.Logger
}

func initialModel(stocks *stockpanel.Panel, models *csvpanel.Panel, baseURL string, logger *slog.Logger) model {
	return model{
		stocks:  stocks,
		models:  models,
		baseURL: baseURL,
		logger:  logger,
	}
}

func (m model) active() panel {
	if m.tab == tabModels {
		return m.models
	}
	return m.stocks
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.stocks.Init(), m.models.Init())
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "q":
			if !m.active().Capturing() {
				return m, tea.Quit
			}
		case "tab":
			m.tab = (m.tab + 1) % tabCount
			m.refresh()
			return m, nil
		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
		cmd := m.active().Update(msg)
		m.refresh()
		return m, cmd

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		h := max(m.height-2, 1)
		if !m.ready {
			m.viewport = viewport.New(m.width, h)
			m.ready = true
		} else {
			m.viewport.Width = m.width
			m.viewport.Height = h
		}
	}

	// Panels own disjoint message types, so everything else goes to both.
	cmd := tea.Batch(m.stocks.Update(msg), m.models.Update(msg))
	m.refresh()
	return m, cmd
}

func (m *model) refresh() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.active().View())
}

func (m model) View() string {
	if !m.ready {
		return "Loading..."
	}

	var tabs strings.Builder
	for i, name := range tabNames {
		label := fmt.Sprintf(" %s ", name)
		if i == m.tab {
			tabs.WriteString(tabActiveStyle.Render(label))
		} else {
			tabs.WriteString(tabStyle.Render(label))
		}
	}
	title := headerStyle.Render(padOrTrunc(fmt.Sprintf("  stockdesk  %s ", m.baseURL), max(m.width-lipgloss.Width(tabs.String()), 0)))
	header := tabs.String() + title

	footerText := " tab switch panel  ctrl+c quit  pgup/dn scroll"
	if m.tab == tabStock {
		footerText += "  enter search  ctrl+e export chart"
	} else {
		footerText += "  u upload  enter open  d delete  r refresh  q quit"
	}
	footer := footerStyle.Render(padOrTrunc(footerText, m.width))

	return header + "\n" + m.viewport.View() + "\n" + footer
}

func padOrTrunc(s string, width int) string {
	if len(s) >= width {
		return s[:width]
	}
	return s + strings.Repeat(" ", width-len(s))
}

func main() {
	configPath := flag.String("config", "stockdesk.yaml", "path to config file (optional)")
	envPath := flag.String("env", ".env", "path to .env file")
	flag.Parse()

	if err := config.LoadDotEnv(*envPath); err != nil {
		fmt.Fprintf(os.Stderr, "loading %s: %v\n", *envPath, err)
		os.Exit(1)
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}

	logPath := cfg.Logging.File
	if logPath == "" {
		logPath = util.DefaultLogPath(time.Now())
	}
	logger, logFile, err := util.NewFileLogger(logPath, cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "opening log file: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()
	util.SetDefault(logger)
	logger.Info("starting", "backend", cfg.Backend.BaseURL, "ws", cfg.Backend.WSURL)

	client := stockdesk.NewClient(cfg.Backend.BaseURL, stockdesk.WithTimeout(cfg.Backend.Timeout))
	subs := live.NewSubscriber(cfg.Backend.WSURL, logger)

	stocks := stockpanel.New(client, subs, logger, stockpanel.Options{
		Currency:     cfg.UI.Currency,
		Debounce:     cfg.UI.Debounce,
		NewsInterval: cfg.UI.NewsInterval,
		ChartPoints:  cfg.UI.ChartPoints,
		ExportDir:    cfg.UI.ExportDir,
	})
	defer stocks.Close()
	models := csvpanel.New(client, logger)

	p := tea.NewProgram(
		initialModel(stocks, models, client.BaseURL(), logger),
		tea.WithAltScreen(),
	)

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
