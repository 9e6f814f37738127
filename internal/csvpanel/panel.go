// Package csvpanel is the CSV model manager view: upload a CSV, browse the
// trained models, inspect one, delete one.
package csvpanel

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"stockdesk/internal/dashboard"
	"stockdesk/pkg/stockdesk"
)

// Backend is the subset of the SDK the panel needs.
type Backend interface {
	ListModels(ctx context.Context) ([]stockdesk.Model, error)
	GetModel(ctx context.Context, fileName string) (*stockdesk.Model, error)
	UploadFile(ctx context.Context, path string) (*stockdesk.Model, error)
	DeleteModel(ctx context.Context, fileName string) error
}

const (
	NoModelText       = "No model selected"
	AlertNoFile       = "Please select a CSV file"
	AlertUploadFailed = "Error uploading file"
)

type focusArea int

const (
	focusList focusArea = iota
	focusUpload
)

// Messages.
type modelsLoadedMsg struct {
	models []stockdesk.Model
	err    error
}

type uploadedMsg struct {
	path  string
	model *stockdesk.Model
	err   error
}

type modelLoadedMsg struct {
	fileName string
	model    *stockdesk.Model
	err      error
}

type deletedMsg struct {
	fileName string
	err      error
}

// Panel holds the CSV panel view state. All fields are mutated only from
// Update and the command constructors, which run on the program goroutine.
type Panel struct {
	backend Backend
	log     *slog.Logger

	models     []stockdesk.Model
	cursor     int
	detail     *stockdesk.Model
	input      textinput.Model
	focus      focusArea
	alert      string
	confirming string
	width      int
}

// New creates an empty panel.
func New(backend Backend, log *slog.Logger) *Panel {
	ti := textinput.New()
	ti.Placeholder = "path/to/data.csv"
	ti.Prompt = "CSV file: "
	ti.CharLimit = 512
	return &Panel{backend: backend, log: log, input: ti}
}

// Init loads the model list.
func (p *Panel) Init() tea.Cmd { return p.List() }

// Models returns the currently listed models.
func (p *Panel) Models() []stockdesk.Model { return p.models }

// Detail returns the model shown in the detail pane, or nil.
func (p *Panel) Detail() *stockdesk.Model { return p.detail }

// Alert returns the pending user-facing alert, if any.
func (p *Panel) Alert() string { return p.alert }

// Confirming returns the file name awaiting delete confirmation.
func (p *Panel) Confirming() string { return p.confirming }

// Input returns the upload path typed so far.
func (p *Panel) Input() string { return p.input.Value() }

// SetInput replaces the upload path.
func (p *Panel) SetInput(path string) { p.input.SetValue(path) }

// Capturing reports whether keystrokes are going to a text field or prompt,
// in which case global shortcuts should not fire.
func (p *Panel) Capturing() bool {
	return p.focus == focusUpload || p.confirming != "" || p.alert != ""
}

// List fetches the model listing. Failures are logged and the current list
// stays on screen.
func (p *Panel) List() tea.Cmd {
	b := p.backend
	return func() tea.Msg {
		models, err := b.ListModels(context.Background())
		return modelsLoadedMsg{models: models, err: err}
	}
}

// Upload sends the file named in the input. An empty input raises an alert
// without touching the network.
func (p *Panel) Upload() tea.Cmd {
	path := strings.TrimSpace(p.input.Value())
	if path == "" {
		p.alert = AlertNoFile
		return nil
	}
	b := p.backend
	return func() tea.Msg {
		m, err := b.UploadFile(context.Background(), path)
		return uploadedMsg{path: path, model: m, err: err}
	}
}

// Open fetches one model into the detail pane.
func (p *Panel) Open(fileName string) tea.Cmd {
	b := p.backend
	return func() tea.Msg {
		m, err := b.GetModel(context.Background(), fileName)
		return modelLoadedMsg{fileName: fileName, model: m, err: err}
	}
}

// RequestDelete asks for confirmation before deleting fileName.
func (p *Panel) RequestDelete(fileName string) {
	p.confirming = fileName
}

// Confirm answers the pending delete prompt.
func (p *Panel) Confirm(yes bool) tea.Cmd {
	name := p.confirming
	p.confirming = ""
	if !yes || name == "" {
		return nil
	}
	b := p.backend
	return func() tea.Msg {
		return deletedMsg{fileName: name, err: b.DeleteModel(context.Background(), name)}
	}
}

// Update applies a message to the panel state.
func (p *Panel) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case modelsLoadedMsg:
		if msg.err != nil {
			p.log.Error("loading models", "error", msg.err)
			return nil
		}
		p.models = msg.models
		p.clampCursor()
		return nil

	case uploadedMsg:
		if msg.err != nil {
			p.log.Error("uploading model", "path", msg.path, "error", msg.err)
			p.alert = AlertUploadFailed
			return nil
		}
		p.log.Info("model uploaded", "fileName", msg.model.FileName)
		p.detail = msg.model
		p.input.Reset()
		p.input.Blur()
		p.focus = focusList
		return p.List()

	case modelLoadedMsg:
		if msg.err != nil {
			p.log.Error("loading model", "fileName", msg.fileName, "error", msg.err)
			return nil
		}
		p.detail = msg.model
		return nil

	case deletedMsg:
		if msg.err != nil {
			p.log.Error("deleting model", "fileName", msg.fileName, "error", msg.err)
			return nil
		}
		p.log.Info("model deleted", "fileName", msg.fileName)
		p.detail = nil
		return p.List()

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

func (p *Panel) handleKey(msg tea.KeyMsg) tea.Cmd {
	if p.alert != "" {
		p.alert = ""
		return nil
	}

	if p.confirming != "" {
		switch msg.String() {
		case "y", "Y":
			return p.Confirm(true)
		case "n", "N", "esc":
			return p.Confirm(false)
		}
		return nil
	}

	if p.focus == focusUpload {
		switch msg.String() {
		case "enter":
			return p.Upload()
		case "esc":
			p.focus = focusList
			p.input.Blur()
			return nil
		}
		var cmd tea.Cmd
		p.input, cmd = p.input.Update(msg)
		return cmd
	}

	switch msg.String() {
	case "up", "k":
		if p.cursor > 0 {
			p.cursor--
		}
	case "down", "j":
		if p.cursor < len(p.models)-1 {
			p.cursor++
		}
	case "enter":
		if sel, ok := p.selected(); ok {
			return p.Open(sel)
		}
	case "d":
		if sel, ok := p.selected(); ok {
			p.RequestDelete(sel)
		}
	case "u":
		p.focus = focusUpload
		return p.input.Focus()
	case "r":
		return p.List()
	}
	return nil
}

func (p *Panel) selected() (string, bool) {
	if p.cursor < 0 || p.cursor >= len(p.models) {
		return "", false
	}
	return p.models[p.cursor].FileName, true
}

func (p *Panel) clampCursor() {
	if p.cursor >= len(p.models) {
		p.cursor = len(p.models) - 1
	}
	if p.cursor < 0 {
		p.cursor = 0
	}
}

// View renders the upload form, the model list and the detail pane.
func (p *Panel) View() string {
	var b strings.Builder

	b.WriteString(dashboard.SectionStyle.Render(" Upload CSV "))
	b.WriteString("\n")
	b.WriteString(p.input.View())
	b.WriteString("\n")
	if p.alert != "" {
		b.WriteString(dashboard.AlertStyle.Render(" " + p.alert + " "))
		b.WriteString(dashboard.DimStyle.Render("  (any key to dismiss)"))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString(dashboard.SectionStyle.Render(fmt.Sprintf(" Models  %d ", len(p.models))))
	b.WriteString("\n")
	if len(p.models) == 0 {
		b.WriteString(dashboard.DimStyle.Render("  (no models)"))
		b.WriteString("\n")
	}
	for i, m := range p.models {
		line := fmt.Sprintf("  %-32s Type: %s | Accuracy: %s",
			m.FileName, m.ModelType, dashboard.FormatFraction(m.Accuracy))
		if i == p.cursor && p.focus == focusList {
			b.WriteString(dashboard.SelectedStyle.Render(line))
		} else {
			b.WriteString(line)
		}
		b.WriteString("\n")
	}
	if p.confirming != "" {
		b.WriteString(dashboard.PromptStyle.Render(
			fmt.Sprintf("Are you sure you want to delete %s? [y/n]", p.confirming)))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString(dashboard.SectionStyle.Render(" Model Details "))
	b.WriteString("\n")
	b.WriteString(renderDetail(p.detail, p.barWidth()))
	return b.String()
}

func (p *Panel) barWidth() int {
	w := p.width - 4
	if w <= 0 || w > 50 {
		return 40
	}
	return w
}

func renderDetail(m *stockdesk.Model, barWidth int) string {
	if m == nil {
		return dashboard.DimStyle.Render("  "+NoModelText) + "\n"
	}
	var b strings.Builder
	field := func(label, value string) {
		b.WriteString(dashboard.LabelStyle.Render(fmt.Sprintf("  %-10s ", label)))
		b.WriteString(dashboard.ValueStyle.Render(value))
		b.WriteString("\n")
	}
	field("File:", m.FileName)
	field("Columns:", fmt.Sprintf("%d", m.Metadata.Columns))
	field("Rows:", fmt.Sprintf("%d", m.Metadata.Rows))
	field("Type:", m.ModelType)
	field("Accuracy:", dashboard.FormatFraction(m.Accuracy))
	if len(m.Headers) > 0 {
		field("Headers:", strings.Join(m.Headers, ", "))
	}

	if len(m.Predictions) > 0 {
		b.WriteString("\n")
		b.WriteString(dashboard.TitleStyle.Render("  Predictions"))
		b.WriteString("\n")
	}
	for _, pr := range m.Predictions {
		b.WriteString(fmt.Sprintf("  %s: %s\n", pr.Label, dashboard.FormatFraction(pr.Probability)))
		b.WriteString("  ")
		b.WriteString(dashboard.BarStyle.Render(dashboard.ProgressBar(pr.Probability, barWidth)))
		b.WriteString("\n")
	}
	return b.String()
}
