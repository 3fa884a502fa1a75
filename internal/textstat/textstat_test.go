package textstat

import (
    "strings"
    "testing"
)

func TestTokenize(t *testing.T) {
    tokens := Tokenize("It's a sunny day, isn't it? 42 birds!")
    want := []string{"It's", "a", "sunny", "day", "isn't", "it", "birds"}
    if len(tokens) != len(want) {
        t.Fatalf("expected %d tokens, got %d: %v", len(want), len(tokens), tokens)
    }
    for i, w := range want {
        if tokens[i] != w {
            t.Fatalf("token %d: expected %q, got %q", i, w, tokens[i])
        }
    }
}

func TestTokenizeNoLetters(t *testing.T) {
    if tokens := Tokenize("123 456 --- !!!"); len(tokens) != 0 {
        t.Fatalf("expected no tokens, got %v", tokens)
    }
}

func TestCountSyllables(t *testing.T) {
    cases := []struct {
        word string
        want int
    }{
        {"cat", 1},
        {"sunny", 2},
        {"beautiful", 3},
        {"queue", 1},     // ueue is one vowel run, trailing e drops it to zero, floored
        {"the", 1},       // trailing e decrement floored at 1
        {"table", 1},     // a + e runs, minus trailing e
        {"syllable", 2},  // y, a, e runs, minus trailing e
        {"rhythm", 1},    // single y run
        {"a", 1},
        {"e", 1},
        {"I", 1},
    }
    for _, c := range cases {
        if got := CountSyllables(c.word); got != c.want {
            t.Fatalf("CountSyllables(%q): expected %d, got %d", c.word, c.want, got)
        }
    }
}

func TestCountSyllablesConsonantsOnly(t *testing.T) {
    for _, w := range []string{"tsk", "hmm", "pfft", "zzz", "'"} {
        if got := CountSyllables(w); got != 1 {
            t.Fatalf("CountSyllables(%q): expected floor of 1, got %d", w, got)
        }
    }
}

func TestSplitSentences(t *testing.T) {
    sentences := SplitSentences("One. Two! Three?? ... Four")
    if len(sentences) != 4 {
        t.Fatalf("expected 4 sentences, got %d: %v", len(sentences), sentences)
    }
}

func TestMetricsDegenerateInput(t *testing.T) {
    for _, text := range []string{"", "   ", "12345", "!!! ???"} {
        m := ComputeMetrics(text)
        if m.ReadingEase != 0 || m.GradeLevel != 0 || m.AvgSentenceLen != 0 || m.PctPolysyllables != 0 {
            t.Fatalf("expected all-zero metrics for %q, got %+v", text, m)
        }
    }
}

func TestMetricsSimpleProse(t *testing.T) {
    text := "The cat sat on the mat. It was a sunny day. Birds sang songs."
    m := ComputeMetrics(text)

    // 14 words over 3 sentences.
    if m.AvgSentenceLen < 4.6 || m.AvgSentenceLen > 4.7 {
        t.Fatalf("unexpected avg sentence length: %v", m.AvgSentenceLen)
    }
    if m.GradeLevel > 3.5 {
        t.Fatalf("short monosyllabic prose should grade low, got %v", m.GradeLevel)
    }
    if m.ReadingEase < 80 {
        t.Fatalf("short monosyllabic prose should read easy, got %v", m.ReadingEase)
    }
}

func TestComputeMetricsMatchesIndividualFunctions(t *testing.T) {
    text := "Reading is a wonderful habit. Libraries preserve extraordinary knowledge for everybody. Do you agree?"
    m := ComputeMetrics(text)
    if m.ReadingEase != ReadingEase(text) {
        t.Fatalf("reading ease mismatch: %v vs %v", m.ReadingEase, ReadingEase(text))
    }
    if m.GradeLevel != GradeLevel(text) {
        t.Fatalf("grade level mismatch: %v vs %v", m.GradeLevel, GradeLevel(text))
    }
    if m.AvgSentenceLen != AvgSentenceLen(text) {
        t.Fatalf("sentence length mismatch: %v vs %v", m.AvgSentenceLen, AvgSentenceLen(text))
    }
    if m.PctPolysyllables != PctPolysyllables(text) {
        t.Fatalf("polysyllable pct mismatch: %v vs %v", m.PctPolysyllables, PctPolysyllables(text))
    }
}

func TestPctPolysyllables(t *testing.T) {
    // "wonderful" and "computers" have 3 syllables; the other two words have fewer.
    got := PctPolysyllables("Wonderful computers hum softly.")
    if got != 50.0 {
        t.Fatalf("expected 50.0, got %v", got)
    }
}

func TestLongSentencesRaiseGrade(t *testing.T) {
    short := "He ran. She sat. We ate."
    long := strings.Repeat("He ran and she sat and we ate and they sang and it rained all day long ", 3) + "."
    if GradeLevel(long) <= GradeLevel(short) {
        t.Fatalf("longer sentences should raise the grade: %v vs %v", GradeLevel(long), GradeLevel(short))
    }
}
