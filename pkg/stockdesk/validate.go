package stockdesk

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks the ranges the views rely on: accuracy and prediction
// probabilities are fractions, FileName is present.
func (m *Model) Validate() error {
	if err := validate.Struct(m); err != nil {
		return fmt.Errorf("invalid model %q: %w", m.FileName, err)
	}
	return nil
}

// Validate checks that price and volume are non-negative.
func (q *StockQuote) Validate() error {
	if err := validate.Struct(q); err != nil {
		return fmt.Errorf("invalid quote %q: %w", q.Symbol, err)
	}
	return nil
}
