// Package export flattens classification results into the fixed-column table
// consumed by spreadsheets and CSV downloads. Column order never changes and
// missing values are written as an explicit sentinel so rows stay positionally
// stable.
package export

import (
    "fmt"
    "strconv"
    "time"

    "nivelador/internal/models"
)

// NullSentinel fills columns that have no value for a given row.
const NullSentinel = "N/A"

var columns = []string{
    "arquivo",
    "isbn",
    "tipo_livro",
    "nivel_ingles_cefr",
    "fre",
    "fk_grade",
    "avg_sentence_len",
    "pct_polysyllables",
    "palavras_por_pagina_media",
    "palavras_por_pagina_mediana",
    "sinais_atividade_hits",
    "justificativa_cefr",
    "versao_modelo",
    "data_processamento",
}

// Columns returns the fixed column order.
func Columns() []string {
    cols := make([]string, len(columns))
    copy(cols, columns)
    return cols
}

// Row serializes one result into the fixed column order.
func Row(r models.ClassificationResult) []string {
    return []string{
        orSentinel(r.Filename),
        orSentinel(r.ISBN),
        orSentinel(string(r.BookType)),
        orSentinel(string(r.CEFRLevel)),
        floatCol(r.ReadingEase),
        floatCol(r.GradeLevel),
        floatCol(r.AvgSentenceLen),
        floatCol(r.PctPolysyllables),
        fmt.Sprintf("%.1f", r.MeanWordsPerPage),
        fmt.Sprintf("%.1f", r.MedianWordsPerPage),
        strconv.Itoa(r.ActivityHits),
        orSentinel(r.Justification),
        orSentinel(r.ModelVersion),
        timeCol(r.ProcessedAt),
    }
}

// BuildTable prepends the header to the serialized rows, preserving row order.
func BuildTable(results []models.ClassificationResult) [][]string {
    table := make([][]string, 0, len(results)+1)
    table = append(table, Columns())
    for _, r := range results {
        table = append(table, Row(r))
    }
    return table
}

func floatCol(v *float64) string {
    if v == nil {
        return NullSentinel
    }
    return fmt.Sprintf("%.2f", *v)
}

func orSentinel(s string) string {
    if s == "" {
        return NullSentinel
    }
    return s
}

func timeCol(t time.Time) string {
    if t.IsZero() {
        return NullSentinel
    }
    return t.UTC().Format(time.RFC3339)
}
