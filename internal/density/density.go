// Package density estimates textual density from per-page word counts.
// Sparse pages are the strongest signal that a book is illustrated or
// activity-based rather than continuous prose.
package density

import (
    "math"
    "sort"
)

// Mean returns the average words per page rounded to one decimal, or 0.0 for
// an empty sequence.
func Mean(wordsPerPage []int) float64 {
    if len(wordsPerPage) == 0 {
        return 0.0
    }
    sum := 0
    for _, n := range wordsPerPage {
        sum += n
    }
    return math.Round(float64(sum)/float64(len(wordsPerPage))*10) / 10
}

// Median returns the statistical median of the counts (average of the two
// middle values for even-length input), or 0.0 for an empty sequence.
func Median(wordsPerPage []int) float64 {
    n := len(wordsPerPage)
    if n == 0 {
        return 0.0
    }

    sorted := make([]int, n)
    copy(sorted, wordsPerPage)
    sort.Ints(sorted)

    if n%2 == 1 {
        return float64(sorted[n/2])
    }
    return float64(sorted[n/2-1]+sorted[n/2]) / 2
}
