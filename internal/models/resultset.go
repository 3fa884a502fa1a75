package models

import (
    "sync"
)

// ResultSet 是一次会话内累积的分级结果表。
// Append 是唯一的修改操作；行不会被删除或重排。
type ResultSet struct {
    mu   sync.Mutex
    rows []ClassificationResult
}

func NewResultSet() *ResultSet {
    return &ResultSet{
        rows: make([]ClassificationResult, 0),
    }
}

// Append adds one record to the end of the set.
func (s *ResultSet) Append(r ClassificationResult) {
    s.mu.Lock()
    defer s.mu.Unlock()
    s.rows = append(s.rows, r)
}

// AppendAll adds records preserving their order.
func (s *ResultSet) AppendAll(rs []ClassificationResult) {
    s.mu.Lock()
    defer s.mu.Unlock()
    s.rows = append(s.rows, rs...)
}

// Rows returns a copy of the accumulated records in insertion order.
func (s *ResultSet) Rows() []ClassificationResult {
    s.mu.Lock()
    defer s.mu.Unlock()

    rows := make([]ClassificationResult, len(s.rows))
    copy(rows, s.rows)
    return rows
}

func (s *ResultSet) Len() int {
    s.mu.Lock()
    defer s.mu.Unlock()
    return len(s.rows)
}
