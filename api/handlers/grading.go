package handlers

import (
    "fmt"
    "net/http"
    "path/filepath"

    "github.com/gin-gonic/gin"

    "nivelador/internal/models"
    "nivelador/internal/service/grading"
    "nivelador/pkg/export"
    "nivelador/pkg/logger"
)

type GradingHandler struct {
    service grading.Grader
    results *models.ResultSet
    logger  logger.Logger
}

// GradeResponse 定义分级任务响应结构
type GradeResponse struct {
    TaskID    string `json:"taskId"`
    Status    string `json:"status"`
    Filename  string `json:"filename"`
    FileSize  int64  `json:"fileSize"`
    FileType  string `json:"fileType"`
    CreatedAt string `json:"createdAt"`
}

// ErrorResponse 定义错误响应结构
type ErrorResponse struct {
    Error   string `json:"error"`
    Message string `json:"message"`
}

func NewGradingHandler(service grading.Grader, results *models.ResultSet, logger logger.Logger) *GradingHandler {
    return &GradingHandler{
        service: service,
        results: results,
        logger:  logger,
    }
}

// GradeDocument 处理单个文档
func (h *GradingHandler) GradeDocument(c *gin.Context) {
    file, header, err := c.Request.FormFile("file")
    if err != nil {
        h.handleError(c, http.StatusBadRequest, "Invalid file upload", err)
        return
    }
    defer file.Close()

    task, err := h.service.ProcessFile(c.Request.Context(), file, header)
    if err != nil {
        h.handleError(c, http.StatusInternalServerError, "Failed to process file", err)
        return
    }

    c.JSON(http.StatusOK, GradeResponse{
        TaskID:    task.ID,
        Status:    string(task.Status),
        Filename:  header.Filename,
        FileSize:  header.Size,
        FileType:  filepath.Ext(header.Filename),
        CreatedAt: task.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
    })
}

// GradeBatch 批量处理文档
func (h *GradingHandler) GradeBatch(c *gin.Context) {
    form, err := c.MultipartForm()
    if err != nil {
        h.handleError(c, http.StatusBadRequest, "Invalid form data", err)
        return
    }

    files := form.File["files"]
    if len(files) == 0 {
        h.handleError(c, http.StatusBadRequest, "No files provided", nil)
        return
    }

    tasks, err := h.service.ProcessBatch(c.Request.Context(), files)
    if err != nil {
        h.handleError(c, http.StatusInternalServerError, "Failed to process files", err)
        return
    }

    responses := make([]GradeResponse, 0, len(tasks))
    for i, task := range tasks {
        if task == nil {
            continue
        }
        responses = append(responses, GradeResponse{
            TaskID:    task.ID,
            Status:    string(task.Status),
            Filename:  files[i].Filename,
            FileSize:  files[i].Size,
            FileType:  filepath.Ext(files[i].Filename),
            CreatedAt: task.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
        })
    }

    c.JSON(http.StatusOK, gin.H{
        "message": fmt.Sprintf("Grading %d documents", len(files)),
        "tasks":   responses,
    })
}

// GradeRemote 对远端存储中的文档批量分级
func (h *GradingHandler) GradeRemote(c *gin.Context) {
    var req struct {
        Prefix string `json:"prefix"`
    }
    if err := c.ShouldBindJSON(&req); err != nil {
        h.handleError(c, http.StatusBadRequest, "Invalid request body", err)
        return
    }

    records, err := h.service.ProcessRemote(c.Request.Context(), req.Prefix, h.results)
    if err != nil {
        h.handleError(c, http.StatusInternalServerError, "Failed to grade remote documents", err)
        return
    }

    c.JSON(http.StatusOK, gin.H{
        "message": fmt.Sprintf("Graded %d documents", len(records)),
        "results": records,
    })
}

// GetStatus 获取处理状态
func (h *GradingHandler) GetStatus(c *gin.Context) {
    taskID := c.Param("taskId")
    if taskID == "" {
        h.handleError(c, http.StatusBadRequest, "Task ID is required", nil)
        return
    }

    task, err := h.service.GetStatus(c.Request.Context(), taskID)
    if err != nil {
        h.handleError(c, http.StatusInternalServerError, "Failed to get status", err)
        return
    }

    c.JSON(http.StatusOK, gin.H{
        "taskId":    task.ID,
        "status":    string(task.Status),
        "progress":  task.Progress,
        "error":     task.Error,
        "createdAt": task.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
        "updatedAt": task.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
    })
}

// GetResult 获取单个分级结果
func (h *GradingHandler) GetResult(c *gin.Context) {
    taskID := c.Param("taskId")
    if taskID == "" {
        h.handleError(c, http.StatusBadRequest, "Task ID is required", nil)
        return
    }

    result, err := h.service.GetResult(c.Request.Context(), taskID)
    if err != nil {
        h.handleError(c, http.StatusInternalServerError, "Failed to get result", err)
        return
    }

    c.JSON(http.StatusOK, result)
}

// ExportResults 导出结果表为 CSV
func (h *GradingHandler) ExportResults(c *gin.Context) {
    c.Header("Content-Disposition", `attachment; filename=resultados_cefr.csv`)
    c.Header("Content-Type", "text/csv")

    sink := export.NewCSVSink(c.Writer)
    if err := h.service.ExportResults(c.Request.Context(), sink); err != nil {
        h.handleError(c, http.StatusInternalServerError, "Failed to export results", err)
        return
    }
}

// CancelTask 取消处理任务
func (h *GradingHandler) CancelTask(c *gin.Context) {
    taskID := c.Param("taskId")
    if taskID == "" {
        h.handleError(c, http.StatusBadRequest, "Task ID is required", nil)
        return
    }

    if err := h.service.CancelTask(c.Request.Context(), taskID); err != nil {
        h.handleError(c, http.StatusInternalServerError, "Failed to cancel task", err)
        return
    }

    c.JSON(http.StatusOK, gin.H{
        "message": "Task cancelled successfully",
        "taskId":  taskID,
    })
}

// handleError 统一错误处理
func (h *GradingHandler) handleError(c *gin.Context, status int, message string, err error) {
    h.logger.Error(message,
        logger.String("path", c.Request.URL.Path),
        logger.Error(err),
    )

    response := ErrorResponse{
        Message: message,
    }
    if err != nil {
        response.Error = err.Error()
    }

    c.JSON(status, response)
}
