// Package store records live quotes to Parquet files on disk so a watch
// session can be replayed or analysed later.
package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"

	"stockdesk/pkg/stockdesk"
)

// QuoteStore persists and retrieves recorded quotes.
type QuoteStore interface {
	// WriteQuotes appends a batch of quotes, merging with what is on disk.
	WriteQuotes(ctx context.Context, quotes []QuoteRecord) error

	// ReadQuotes returns quotes for symbol within [start, end].
	ReadQuotes(ctx context.Context, symbol string, start, end time.Time) ([]QuoteRecord, error)
}

var _ QuoteStore = (*ParquetStore)(nil)

// ParquetStore implements QuoteStore with one Parquet file per symbol per day.
type ParquetStore struct {
	DataDir string
}

// NewParquetStore creates a ParquetStore rooted at dataDir.
func NewParquetStore(dataDir string) *ParquetStore {
	return &ParquetStore{DataDir: dataDir}
}

// QuoteRecord is the Parquet schema for a recorded quote.
type QuoteRecord struct {
	Symbol    string  `parquet:"symbol"`
	Timestamp int64   `parquet:"timestamp,timestamp(millisecond)"` // Unix ms
	Price     float64 `parquet:"price"`
	Change    float64 `parquet:"change"`
	Volume    int64   `parquet:"volume"`
}

// RecordFromQuote converts a wire quote, stamping it with received when the
// backend sent no timestamp.
func RecordFromQuote(q stockdesk.StockQuote, received time.Time) QuoteRecord {
	return QuoteRecord{
		Symbol:    q.Symbol,
		Timestamp: q.Time(received).UnixMilli(),
		Price:     q.Price,
		Change:    q.Change,
		Volume:    q.Volume,
	}
}

// Time returns the record timestamp.
func (r QuoteRecord) Time() time.Time { return time.UnixMilli(r.Timestamp) }

// WriteQuotes groups quotes by symbol and UTC day and merges each group into
// its file at:
//
//	<DataDir>/quotes/<SYMBOL>/<YYYY-MM-DD>.parquet
func (s *ParquetStore) WriteQuotes(_ context.Context, quotes []QuoteRecord) error {
	if len(quotes) == 0 {
		return nil
	}

	type key struct {
		symbol string
		date   string
	}
	groups := make(map[key][]QuoteRecord)
	for _, q := range quotes {
		k := key{symbol: strings.ToUpper(q.Symbol), date: q.Time().UTC().Format("2006-01-02")}
		groups[k] = append(groups[k], q)
	}

	for k, records := range groups {
		day, _ := time.Parse("2006-01-02", k.date)
		path := s.quotePath(k.symbol, day)

		existing, _ := readParquetFile[QuoteRecord](path)
		merged := mergeQuoteRecords(existing, records)

		if err := writeParquetFile(path, merged); err != nil {
			return fmt.Errorf("writing quotes for %s/%s: %w", k.symbol, k.date, err)
		}
	}
	return nil
}

// ReadQuotes reads recorded quotes for symbol within [start, end].
func (s *ParquetStore) ReadQuotes(_ context.Context, symbol string, start, end time.Time) ([]QuoteRecord, error) {
	var out []QuoteRecord
	first := start.UTC().Truncate(24 * time.Hour)
	for d := first; !d.After(end.UTC()); d = d.AddDate(0, 0, 1) {
		records, err := readParquetFile[QuoteRecord](s.quotePath(symbol, d))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		for _, r := range records {
			ts := r.Time()
			if !ts.Before(start) && !ts.After(end) {
				out = append(out, r)
			}
		}
	}
	return out, nil
}

// ListSymbols lists the symbols that have recorded quotes.
func (s *ParquetStore) ListSymbols() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.DataDir, "quotes"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var symbols []string
	for _, e := range entries {
		if e.IsDir() {
			symbols = append(symbols, e.Name())
		}
	}
	sort.Strings(symbols)
	return symbols, nil
}

func (s *ParquetStore) quotePath(symbol string, day time.Time) string {
	return filepath.Join(s.DataDir, "quotes", strings.ToUpper(symbol), day.Format("2006-01-02")+".parquet")
}

func writeParquetFile[T any](path string, records []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return parquet.WriteFile(path, records)
}

func readParquetFile[T any](path string) ([]T, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	return parquet.ReadFile[T](path)
}

// mergeQuoteRecords deduplicates by timestamp, preferring incoming records,
// and sorts by time.
func mergeQuoteRecords(existing, incoming []QuoteRecord) []QuoteRecord {
	seen := make(map[int64]QuoteRecord, len(existing)+len(incoming))
	for _, r := range existing {
		seen[r.Timestamp] = r
	}
	for _, r := range incoming {
		seen[r.Timestamp] = r
	}
	merged := make([]QuoteRecord, 0, len(seen))
	for _, r := range seen {
		merged = append(merged, r)
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Timestamp < merged[j].Timestamp
	})
	return merged
}
