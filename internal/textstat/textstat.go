// Package textstat computes word-level and sentence-level statistics used by
// the CEFR classifier: tokenization, syllable estimation, Flesch Reading Ease,
// Flesch-Kincaid Grade, average sentence length and polysyllable percentage.
//
// The syllable counter is a vowel-group heuristic, not a phonetic analysis.
// Silent letters, diphthongs and loanwords produce wrong counts; that error is
// acceptable for the readability formulas built on top of it.
package textstat

import (
    "math"
    "regexp"
    "strings"
)

var (
    wordPattern     = regexp.MustCompile(`[A-Za-z']+`)
    sentencePattern = regexp.MustCompile(`[.!?]+`)
)

// Tokenize returns the maximal runs of ASCII letters and apostrophes in text.
func Tokenize(text string) []string {
    return wordPattern.FindAllString(text, -1)
}

// SplitSentences splits text on runs of '.', '!' and '?', discarding fragments
// that are empty or whitespace-only. Abbreviations overcount and unterminated
// sentences undercount; both are accepted.
func SplitSentences(text string) []string {
    parts := sentencePattern.Split(text, -1)
    sentences := make([]string, 0, len(parts))
    for _, p := range parts {
        if strings.TrimSpace(p) != "" {
            sentences = append(sentences, p)
        }
    }
    return sentences
}

// CountSyllables estimates the syllable count of word. A syllable is counted
// at the start of each maximal run of vowels (aeiouy) in the lowered word; a
// trailing 'e' removes one. Never returns less than 1.
func CountSyllables(word string) int {
    w := strings.ToLower(word)

    count := 0
    prevVowel := false
    for _, r := range w {
        vowel := strings.ContainsRune("aeiouy", r)
        if vowel && !prevVowel {
            count++
        }
        prevVowel = vowel
    }

    if strings.HasSuffix(w, "e") {
        count--
    }
    if count < 1 {
        count = 1
    }
    return count
}

// Stats is the shared intermediate for the four metric functions. All counts
// derive from the same tokenization and segmentation the individual functions
// would perform on their own.
type Stats struct {
    Words         int
    Sentences     int
    Syllables     int
    Polysyllables int
}

// Analyze tokenizes and segments text once and tallies the counts every
// readability formula needs.
func Analyze(text string) Stats {
    tokens := Tokenize(text)

    s := Stats{
        Words:     len(tokens),
        Sentences: len(SplitSentences(text)),
    }
    for _, tok := range tokens {
        n := CountSyllables(tok)
        s.Syllables += n
        if n >= 3 {
            s.Polysyllables++
        }
    }
    return s
}

// ReadingEase returns the Flesch Reading Ease score of text, rounded to two
// decimals. Returns 0.0 when the text has no words or no sentences.
func ReadingEase(text string) float64 {
    return readingEase(Analyze(text))
}

// GradeLevel returns the Flesch-Kincaid Grade of text, rounded to two
// decimals. Returns 0.0 when the text has no words or no sentences.
func GradeLevel(text string) float64 {
    return gradeLevel(Analyze(text))
}

// AvgSentenceLen returns words per sentence, rounded to two decimals, or 0.0
// when there are no sentences.
func AvgSentenceLen(text string) float64 {
    return avgSentenceLen(Analyze(text))
}

// PctPolysyllables returns the percentage of tokens with three or more
// syllables, rounded to two decimals, or 0.0 when there are no tokens.
func PctPolysyllables(text string) float64 {
    return pctPolysyllables(Analyze(text))
}

// Metrics bundles the four readability scores.
type Metrics struct {
    ReadingEase      float64 `json:"readingEase"`
    GradeLevel       float64 `json:"gradeLevel"`
    AvgSentenceLen   float64 `json:"avgSentenceLen"`
    PctPolysyllables float64 `json:"pctPolysyllables"`
}

// ComputeMetrics analyzes text once and evaluates all four formulas on the
// shared counts. Results are identical to calling the four functions
// separately.
func ComputeMetrics(text string) Metrics {
    s := Analyze(text)
    return Metrics{
        ReadingEase:      readingEase(s),
        GradeLevel:       gradeLevel(s),
        AvgSentenceLen:   avgSentenceLen(s),
        PctPolysyllables: pctPolysyllables(s),
    }
}

func readingEase(s Stats) float64 {
    if s.Words == 0 || s.Sentences == 0 {
        return 0.0
    }
    score := 206.835 - 1.015*(float64(s.Words)/float64(s.Sentences)) - 84.6*(float64(s.Syllables)/float64(s.Words))
    return Round2(score)
}

func gradeLevel(s Stats) float64 {
    if s.Words == 0 || s.Sentences == 0 {
        return 0.0
    }
    grade := 0.39*(float64(s.Words)/float64(s.Sentences)) + 11.8*(float64(s.Syllables)/float64(s.Words)) - 15.59
    return Round2(grade)
}

func avgSentenceLen(s Stats) float64 {
    if s.Sentences == 0 {
        return 0.0
    }
    return Round2(float64(s.Words) / float64(s.Sentences))
}

func pctPolysyllables(s Stats) float64 {
    if s.Words == 0 {
        return 0.0
    }
    return Round2(float64(s.Polysyllables) / float64(s.Words) * 100)
}

// Round2 rounds to two decimal places.
func Round2(v float64) float64 {
    return math.Round(v*100) / 100
}
