package dashboard

import (
	"testing"
	"unicode/utf8"
)

func TestFormatPrice(t *testing.T) {
	tests := []struct {
		price float64
		want  string
	}{
		{0, "₹0.00"},
		{1234.5, "₹1234.50"},
		{9.999, "₹10.00"},
	}
	for _, tt := range tests {
		if got := FormatPrice("₹", tt.price); got != tt.want {
			t.Errorf("FormatPrice(%v) = %q, want %q", tt.price, got, tt.want)
		}
	}
}

func TestFormatChange(t *testing.T) {
	tests := []struct {
		change    float64
		want      string
		wantClass string
	}{
		{1.234, "+1.23%", ClassPositive},
		{0, "+0.00%", ClassPositive},
		{-0.5, "-0.50%", ClassNegative},
	}
	for _, tt := range tests {
		if got := FormatChange(tt.change); got != tt.want {
			t.Errorf("FormatChange(%v) = %q, want %q", tt.change, got, tt.want)
		}
		if got := ChangeClass(tt.change); got != tt.wantClass {
			t.Errorf("ChangeClass(%v) = %q, want %q", tt.change, got, tt.wantClass)
		}
	}
}

func TestFormatVolume(t *testing.T) {
	tests := map[int64]string{
		0:       "0",
		999:     "999",
		1000:    "1,000",
		1234567: "1,234,567",
	}
	for in, want := range tests {
		if got := FormatVolume(in); got != want {
			t.Errorf("FormatVolume(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatFraction(t *testing.T) {
	if got := FormatFraction(0.87654); got != "87.65%" {
		t.Errorf("FormatFraction = %q, want 87.65%%", got)
	}
	if got := FormatFraction(1); got != "100.00%" {
		t.Errorf("FormatFraction = %q, want 100.00%%", got)
	}
}

func TestProgressBar(t *testing.T) {
	tests := []struct {
		frac   float64
		filled int
	}{
		{0, 0},
		{0.5, 10},
		{1, 20},
		{1.7, 20},
		{-3, 0},
	}
	for _, tt := range tests {
		bar := ProgressBar(tt.frac, 20)
		if n := utf8.RuneCountInString(bar); n != 20 {
			t.Errorf("ProgressBar(%v) width = %d, want 20", tt.frac, n)
		}
		filled := 0
		for _, r := range bar {
			if r == '█' {
				filled++
			}
		}
		if filled != tt.filled {
			t.Errorf("ProgressBar(%v) filled = %d, want %d", tt.frac, filled, tt.filled)
		}
	}
}
