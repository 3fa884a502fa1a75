package models

import (
    "time"
)

// FileType 文件类型
type FileType string

const (
    PDF  FileType = "pdf"
    EPUB FileType = "epub"
)

type GradingTask struct {
    ID        string            `json:"id"`
    Status    ProcessingStatus  `json:"status"`
    Type      string            `json:"type"`
    Priority  int               `json:"priority"`
    Progress  float64           `json:"progress"`
    Error     string            `json:"error,omitempty"`
    Metadata  map[string]string `json:"metadata"`
    CreatedAt time.Time         `json:"createdAt"`
    UpdatedAt time.Time         `json:"updatedAt,omitempty"`
}

type ProcessingStatus string

const (
    StatusPending   ProcessingStatus = "pending"
    StatusRunning   ProcessingStatus = "running"
    StatusCompleted ProcessingStatus = "completed"
    StatusFailed    ProcessingStatus = "failed"
    StatusCancelled ProcessingStatus = "cancelled"
)
