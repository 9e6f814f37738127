package stockdesk

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Model is a trained artifact derived from an uploaded CSV file. FileName is
// the key used to address it on the backend.
type Model struct {
	FileName    string      `json:"fileName" validate:"required"`
	Headers     []string    `json:"headers,omitempty"`
	Metadata    Metadata    `json:"metadata"`
	ModelType   string      `json:"modelType"`
	Accuracy    float64     `json:"accuracy" validate:"gte=0,lte=1"`
	Predictions Predictions `json:"predictions" validate:"dive"`
}

// Metadata holds the shape of the uploaded dataset.
type Metadata struct {
	Columns Count `json:"columns"`
	Rows    Count `json:"rows"`
}

// Count is a non-negative integer that the backend may send either as a
// JSON number or as a decimal string.
type Count int64

// ErrInvalidCount is returned for negative or fractional counts.
var ErrInvalidCount = errors.New("count must be a non-negative integer")

// UnmarshalJSON accepts 12, 12.0, "12" and null.
func (c *Count) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		*c = 0
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return fmt.Errorf("parsing count %s: %w", b, err)
		}
		if f != math.Trunc(f) || math.IsInf(f, 0) {
			return fmt.Errorf("parsing count %s: %w", b, ErrInvalidCount)
		}
		n = int64(f)
	}
	if n < 0 {
		return fmt.Errorf("parsing count %s: %w", b, ErrInvalidCount)
	}
	*c = Count(n)
	return nil
}

// Prediction is one label of a model's output distribution.
type Prediction struct {
	Label       string
	Probability float64 `validate:"gte=0,lte=1"`
}

// Predictions is an ordered label → probability mapping. It decodes from a
// JSON object and keeps the keys in the order the backend sent them.
type Predictions []Prediction

// UnmarshalJSON decodes a JSON object token by token to preserve key order.
func (p *Predictions) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*p = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("predictions: expected object, got %v", tok)
	}

	var out Predictions
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return err
		}
		label, ok := kt.(string)
		if !ok {
			return fmt.Errorf("predictions: unexpected key %v", kt)
		}
		var v float64
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("predictions[%s]: %w", label, err)
		}
		out = append(out, Prediction{Label: label, Probability: v})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*p = out
	return nil
}

// MarshalJSON writes the predictions back as a JSON object in slice order.
func (p Predictions) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, pr := range p {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(pr.Label)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(pr.Probability)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// StockQuote is a point-in-time price record for a ticker.
type StockQuote struct {
	Symbol    string  `json:"symbol"`
	Price     float64 `json:"price" validate:"gte=0"`
	Change    float64 `json:"change"`
	Volume    int64   `json:"volume" validate:"gte=0"`
	Timestamp int64   `json:"timestamp,omitempty"` // Unix ms, optional
}

// Time returns the quote timestamp, or fallback when the backend sent none.
func (q StockQuote) Time(fallback time.Time) time.Time {
	if q.Timestamp <= 0 {
		return fallback
	}
	return time.UnixMilli(q.Timestamp)
}

// NewsItem is a single market headline.
type NewsItem struct {
	Title       string `json:"title"`
	Summary     string `json:"summary"`
	URL         string `json:"url,omitempty"`
	PublishedAt int64  `json:"publishedAt"` // Unix ms
}

// Published returns PublishedAt as a time.Time.
func (n NewsItem) Published() time.Time {
	return time.UnixMilli(n.PublishedAt)
}

// NormalizeSymbol trims and uppercases a ticker as typed by a user.
func NormalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
