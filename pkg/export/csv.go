package export

import (
    "context"
    "encoding/csv"
    "fmt"
    "io"

    "nivelador/internal/models"
)

// TableSink receives the flattened result table. Implementations write it to
// a CSV stream, a spreadsheet, or anything else tabular; the core never knows
// which.
type TableSink interface {
    WriteTable(ctx context.Context, table [][]string) error
}

// CSVSink streams the table as CSV.
type CSVSink struct {
    w io.Writer
}

func NewCSVSink(w io.Writer) *CSVSink {
    return &CSVSink{w: w}
}

func (s *CSVSink) WriteTable(ctx context.Context, table [][]string) error {
    cw := csv.NewWriter(s.w)
    for _, row := range table {
        select {
        case <-ctx.Done():
            return ctx.Err()
        default:
        }
        if err := cw.Write(row); err != nil {
            return fmt.Errorf("failed to write csv row: %w", err)
        }
    }
    cw.Flush()
    if err := cw.Error(); err != nil {
        return fmt.Errorf("failed to flush csv: %w", err)
    }
    return nil
}

// WriteResults builds the table from results and hands it to the sink.
func WriteResults(ctx context.Context, sink TableSink, results []models.ClassificationResult) error {
    return sink.WriteTable(ctx, BuildTable(results))
}
