package stockdesk

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestCountAcceptsStringsAndNumbers(t *testing.T) {
	tests := []struct {
		in   string
		want Count
	}{
		{`12`, 12},
		{`"12"`, 12},
		{`12.0`, 12},
		{`null`, 0},
		{`""`, 0},
	}
	for _, tt := range tests {
		var c Count
		if err := json.Unmarshal([]byte(tt.in), &c); err != nil {
			t.Errorf("Unmarshal(%s): %v", tt.in, err)
			continue
		}
		if c != tt.want {
			t.Errorf("Unmarshal(%s) = %d, want %d", tt.in, c, tt.want)
		}
	}

	var c Count
	if err := json.Unmarshal([]byte(`"many"`), &c); err == nil {
		t.Error("expected error for non-numeric count")
	}
}

func TestCountRejectsNegativeAndFractional(t *testing.T) {
	for _, in := range []string{`-5`, `"-5"`, `"12.9"`, `0.5`} {
		var c Count
		err := json.Unmarshal([]byte(in), &c)
		if !errors.Is(err, ErrInvalidCount) {
			t.Errorf("Unmarshal(%s) error = %v, want ErrInvalidCount", in, err)
		}
	}

	var m Model
	if err := json.Unmarshal([]byte(`{"fileName":"a.csv","metadata":{"columns":3,"rows":"-1"}}`), &m); err == nil {
		t.Error("expected model with negative row count to fail decoding")
	}
}

func TestPredictionsKeepKeyOrder(t *testing.T) {
	var p Predictions
	if err := json.Unmarshal([]byte(`{"zeta":0.1,"alpha":0.7,"mid":0.2}`), &p); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	want := []string{"zeta", "alpha", "mid"}
	for i, l := range want {
		if p[i].Label != l {
			t.Errorf("p[%d] = %q, want %q", i, p[i].Label, l)
		}
	}

	out, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(out) != `{"zeta":0.1,"alpha":0.7,"mid":0.2}` {
		t.Errorf("Marshal = %s", out)
	}
}

func TestPredictionsRejectArray(t *testing.T) {
	var p Predictions
	if err := json.Unmarshal([]byte(`[0.1]`), &p); err == nil {
		t.Error("expected error for array predictions")
	}
}

func TestModelValidate(t *testing.T) {
	m := Model{FileName: "a.csv", Accuracy: 0.9, Predictions: Predictions{{Label: "x", Probability: 0.4}}}
	if err := m.Validate(); err != nil {
		t.Errorf("valid model: %v", err)
	}

	m.Accuracy = 1.2
	if err := m.Validate(); err == nil {
		t.Error("expected error for accuracy > 1")
	}

	m.Accuracy = 0.9
	m.Predictions[0].Probability = -0.1
	if err := m.Validate(); err == nil {
		t.Error("expected error for negative probability")
	}

	if err := (&Model{}).Validate(); err == nil {
		t.Error("expected error for missing fileName")
	}
}

func TestQuoteTime(t *testing.T) {
	fallback := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	if got := (StockQuote{}).Time(fallback); !got.Equal(fallback) {
		t.Errorf("Time() = %v, want fallback", got)
	}
	q := StockQuote{Timestamp: fallback.Add(time.Minute).UnixMilli()}
	if got := q.Time(fallback); !got.Equal(fallback.Add(time.Minute)) {
		t.Errorf("Time() = %v, want %v", got, fallback.Add(time.Minute))
	}
}

func TestNormalizeSymbol(t *testing.T) {
	if got := NormalizeSymbol("  aapl "); got != "AAPL" {
		t.Errorf("NormalizeSymbol = %q, want AAPL", got)
	}
}
