package density

import (
    "testing"
)

func TestMean(t *testing.T) {
    cases := []struct {
        wpp  []int
        want float64
    }{
        {nil, 0.0},
        {[]int{}, 0.0},
        {[]int{5, 3, 4}, 4.0},
        {[]int{45, 50, 48}, 47.7},
        {[]int{1}, 1.0},
        {[]int{0, 0, 0}, 0.0},
        {[]int{1, 2}, 1.5},
    }
    for _, c := range cases {
        if got := Mean(c.wpp); got != c.want {
            t.Fatalf("Mean(%v): expected %v, got %v", c.wpp, c.want, got)
        }
    }
}

func TestMedian(t *testing.T) {
    cases := []struct {
        wpp  []int
        want float64
    }{
        {nil, 0.0},
        {[]int{7}, 7.0},
        {[]int{5, 3, 4}, 4.0},
        {[]int{10, 20, 30, 40}, 25.0},
        {[]int{40, 10, 30, 20}, 25.0},
        {[]int{3, 1}, 2.0},
    }
    for _, c := range cases {
        if got := Median(c.wpp); got != c.want {
            t.Fatalf("Median(%v): expected %v, got %v", c.wpp, c.want, got)
        }
    }
}

func TestMedianDoesNotMutateInput(t *testing.T) {
    wpp := []int{9, 1, 5}
    Median(wpp)
    if wpp[0] != 9 || wpp[1] != 1 || wpp[2] != 5 {
        t.Fatalf("input slice was reordered: %v", wpp)
    }
}
