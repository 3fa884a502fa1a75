// Package cefr maps readability statistics to a CEFR band and decides whether
// a document is continuous prose or an activity/illustrated book.
package cefr

import (
    "fmt"

    "nivelador/internal/activity"
    "nivelador/internal/density"
    "nivelador/internal/models"
    "nivelador/internal/textstat"
)

// Routing thresholds. Low density on either mean or median is sufficient on
// its own, as is the keyword signal at three or more hits.
const (
    minMeanWordsPerPage   = 40.0
    minMedianWordsPerPage = 30.0
    maxActivityHits       = 3
)

type Classifier struct {
    detector *activity.Detector
}

// NewClassifier builds a classifier around the given detector. A nil detector
// falls back to the default keyword list.
func NewClassifier(det *activity.Detector) *Classifier {
    if det == nil {
        det = activity.NewDetector(activity.DefaultKeywords())
    }
    return &Classifier{detector: det}
}

// Classify grades one document from its raw text and per-page word counts.
// Pure and deterministic: identical inputs yield identical results, including
// the justification string. Degenerate inputs (empty text, no pages) route to
// the activity/illustrated branch rather than producing nonsense scores.
func (c *Classifier) Classify(rawText string, wordsPerPage []int) models.ClassificationResult {
    mean := density.Mean(wordsPerPage)
    median := density.Median(wordsPerPage)
    hits := c.detector.Hits(rawText)

    if mean < minMeanWordsPerPage || median < minMedianWordsPerPage || hits >= maxActivityHits {
        return models.ClassificationResult{
            BookType:           models.ActivityIllustrated,
            CEFRLevel:          models.LevelPreA1,
            MeanWordsPerPage:   mean,
            MedianWordsPerPage: median,
            ActivityHits:       hits,
            Justification: fmt.Sprintf(
                "activity/illustrated book: mean %.1f words/page, median %.1f words/page, %d activity keyword hits; CEFR grading not applicable",
                mean, median, hits),
        }
    }

    m := textstat.ComputeMetrics(rawText)
    level, note := band(m)

    return models.ClassificationResult{
        BookType:           models.ContinuousText,
        CEFRLevel:          level,
        ReadingEase:        &m.ReadingEase,
        GradeLevel:         &m.GradeLevel,
        AvgSentenceLen:     &m.AvgSentenceLen,
        PctPolysyllables:   &m.PctPolysyllables,
        MeanWordsPerPage:   mean,
        MedianWordsPerPage: median,
        ActivityHits:       hits,
        Justification: fmt.Sprintf(
            "FK grade %.2f maps to %s%s (reading ease %.2f, avg sentence length %.2f, polysyllables %.2f%%)",
            m.GradeLevel, level, note, m.ReadingEase, m.AvgSentenceLen, m.PctPolysyllables),
    }
}

// band maps the metric bundle to a CEFR level. Both adjustments are checked
// against the base band from the grade mapping, in fixed order, never chained.
// A1 and C2 are deliberately never adjusted.
func band(m textstat.Metrics) (models.CEFRLevel, string) {
    base := baseBand(m.GradeLevel)

    if (base == models.LevelA2 || base == models.LevelB1) &&
        m.AvgSentenceLen > 20 && m.PctPolysyllables > 12 {
        adjusted := models.LevelB1
        if base == models.LevelB1 {
            adjusted = models.LevelB2
        }
        return adjusted, fmt.Sprintf(", raised from %s for long sentences with a high polysyllable share", base)
    }

    if (base == models.LevelB2 || base == models.LevelC1) && m.ReadingEase > 65 {
        adjusted := models.LevelB1
        if base == models.LevelC1 {
            adjusted = models.LevelB2
        }
        return adjusted, fmt.Sprintf(", lowered from %s for high reading ease", base)
    }

    return base, ""
}

func baseBand(grade float64) models.CEFRLevel {
    switch {
    case grade <= 3.5:
        return models.LevelA1
    case grade <= 6:
        return models.LevelA2
    case grade <= 8:
        return models.LevelB1
    case grade <= 10:
        return models.LevelB2
    case grade <= 12:
        return models.LevelC1
    default:
        return models.LevelC2
    }
}
