// Package activity flags documents whose content is non-prose (puzzles,
// coloring, mazes) and should not receive a CEFR grade.
package activity

import (
    "strings"
)

// DefaultKeywords are the signals looked for in extracted text. Matching is
// by substring containment, so short entries like "grid" also match inside
// longer words.
func DefaultKeywords() []string {
    return []string{
        "activity",
        "activities",
        "puzzle",
        "puzzles",
        "maze",
        "mazes",
        "coloring",
        "colouring",
        "color in",
        "colour in",
        "dot-to-dot",
        "dot to dot",
        "connect the dots",
        "crossword",
        "wordsearch",
        "word search",
        "sticker",
        "cut out",
        "cut and paste",
        "trace the",
        "match the",
        "circle the",
        "sudoku",
        "grid",
    }
}

// Detector counts keyword hits against an immutable list supplied at
// construction.
type Detector struct {
    keywords []string
}

// NewDetector copies keywords so later mutation by the caller cannot change
// detection behaviour. An empty list yields a detector that never fires.
func NewDetector(keywords []string) *Detector {
    kw := make([]string, len(keywords))
    for i, k := range keywords {
        kw[i] = strings.ToLower(k)
    }
    return &Detector{keywords: kw}
}

// Hits returns how many distinct keywords occur anywhere in text,
// case-insensitive. Each keyword contributes at most one hit no matter how
// often it repeats.
func (d *Detector) Hits(text string) int {
    lower := strings.ToLower(text)
    hits := 0
    for _, kw := range d.keywords {
        if strings.Contains(lower, kw) {
            hits++
        }
    }
    return hits
}

// Keywords returns a copy of the configured list.
func (d *Detector) Keywords() []string {
    kw := make([]string, len(d.keywords))
    copy(kw, d.keywords)
    return kw
}
