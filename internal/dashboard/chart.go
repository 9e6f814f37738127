package dashboard

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

var sparkRunes = []rune("▁▂▃▄▅▆▇█")

// Sparkline renders values as one block character per point, scaled
// between the window minimum and maximum.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	var b strings.Builder
	for _, v := range values {
		idx := len(sparkRunes) / 2
		if hi > lo {
			idx = int(math.Round((v - lo) / (hi - lo) * float64(len(sparkRunes)-1)))
		}
		b.WriteRune(sparkRunes[idx])
	}
	return b.String()
}

// ErrTooFewPoints is returned when a chart export has fewer than two points.
var ErrTooFewPoints = errors.New("need at least two points to draw a chart")

// RenderPNG draws the window as a line chart in PNG format.
func RenderPNG(w io.Writer, title string, win *PriceWindow) error {
	if win.Len() < 2 {
		return ErrTooFewPoints
	}
	graph := chart.Chart{
		Title: title,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatterWithFormat("15:04:05"),
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "Stock Price",
				XValues: win.Times(),
				YValues: win.Prices(),
				Style: chart.Style{
					StrokeColor: drawing.ColorFromHex("007bff"),
					StrokeWidth: 2,
				},
			},
		},
	}
	return graph.Render(chart.PNG, w)
}

// ExportPNG writes the window to <dir>/<SYMBOL>-<timestamp>.png and returns
// the file path.
func ExportPNG(dir, symbol string, win *PriceWindow, now time.Time) (string, error) {
	if win.Len() < 2 {
		return "", ErrTooFewPoints
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating export dir: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("%s-%s.png", symbol, now.Format("20060102-150405")))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", path, err)
	}
	if err := RenderPNG(f, symbol+" price", win); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("rendering chart: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return path, nil
}
