package cefr

import (
    "fmt"
    "strings"
    "time"

    "nivelador/internal/models"
)

// DefaultModelVersion tags every assembled record so exported tables stay
// comparable across heuristic revisions.
const DefaultModelVersion = "cefr-heuristic-v1"

// AssembleRecord enriches a classification with filename-derived metadata, a
// UTC timestamp and the model version. Deterministic given its inputs.
func AssembleRecord(res models.ClassificationResult, filename string, now time.Time, modelVersion string) models.ClassificationResult {
    res.Filename = filename
    res.ISBN = GuessISBN(filename)
    res.ProcessedAt = now.UTC()
    res.ModelVersion = modelVersion
    return res
}

// AssembleErrorRecord produces an error-tagged record for documents that could
// not be graded (unsupported container format), keeping the result-set schema
// intact so one bad document never aborts a batch.
func AssembleErrorRecord(filename, reason string, now time.Time, modelVersion string) models.ClassificationResult {
    return models.ClassificationResult{
        Filename:     filename,
        ISBN:         GuessISBN(filename),
        ProcessedAt:  now.UTC(),
        ModelVersion: modelVersion,
        Error:        reason,
        Justification: fmt.Sprintf("not graded: %s", reason),
    }
}

// GuessISBN strips every non-digit rune from filename and accepts the result
// only when its length falls in [10, 13]. A best-effort guess, not a
// checksum-validated ISBN.
func GuessISBN(filename string) string {
    var digits strings.Builder
    for _, r := range filename {
        if r >= '0' && r <= '9' {
            digits.WriteRune(r)
        }
    }
    s := digits.String()
    if len(s) < 10 || len(s) > 13 {
        return ""
    }
    return s
}
