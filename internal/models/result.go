package models

import (
    "time"
)

// BookType 图书类型
type BookType string

const (
    ContinuousText      BookType = "continuous_text"
    ActivityIllustrated BookType = "activity_illustrated"
)

// CEFRLevel CEFR 等级
type CEFRLevel string

const (
    LevelA1    CEFRLevel = "A1"
    LevelA2    CEFRLevel = "A2"
    LevelB1    CEFRLevel = "B1"
    LevelB2    CEFRLevel = "B2"
    LevelC1    CEFRLevel = "C1"
    LevelC2    CEFRLevel = "C2"
    LevelPreA1 CEFRLevel = "Pre-A1/N/A"
)

// DocumentSample 提取结果：原始文本 + 每页词数
type DocumentSample struct {
    RawText      string `json:"rawText"`
    WordsPerPage []int  `json:"wordsPerPage"`
}

// ClassificationResult 单个文档的分级结果。
// 对于 activity/illustrated 图书，四个可读性指标为 nil。
type ClassificationResult struct {
    BookType           BookType  `json:"bookType"`
    CEFRLevel          CEFRLevel `json:"cefrLevel"`
    ReadingEase        *float64  `json:"readingEase,omitempty"`
    GradeLevel         *float64  `json:"gradeLevel,omitempty"`
    AvgSentenceLen     *float64  `json:"avgSentenceLen,omitempty"`
    PctPolysyllables   *float64  `json:"pctPolysyllables,omitempty"`
    MeanWordsPerPage   float64   `json:"meanWordsPerPage"`
    MedianWordsPerPage float64   `json:"medianWordsPerPage"`
    ActivityHits       int       `json:"activityHits"`
    Justification      string    `json:"justification"`
    Filename           string    `json:"filename"`
    ISBN               string    `json:"isbn"`
    ProcessedAt        time.Time `json:"processedAt"`
    ModelVersion       string    `json:"modelVersion"`
    Error              string    `json:"error,omitempty"`
}
