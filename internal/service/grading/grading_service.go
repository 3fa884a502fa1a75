package grading

import (
    "context"
    "mime/multipart"

    "nivelador/internal/models"
    "nivelador/pkg/export"
    "nivelador/pkg/queue"
)

// Grader is the service surface used by the HTTP handlers and the worker.
type Grader interface {
    ProcessFile(ctx context.Context, file multipart.File, header *multipart.FileHeader) (*models.GradingTask, error)
    ProcessBatch(ctx context.Context, files []*multipart.FileHeader) ([]*models.GradingTask, error)
    ProcessRemote(ctx context.Context, prefix string, set *models.ResultSet) ([]models.ClassificationResult, error)
    HandleGrading(ctx context.Context, task *queue.Task) error
    GetStatus(ctx context.Context, taskID string) (*models.GradingTask, error)
    GetResult(ctx context.Context, taskID string) (*models.ClassificationResult, error)
    ExportResults(ctx context.Context, sink export.TableSink) error
    CancelTask(ctx context.Context, taskID string) error
    CleanupTasks(ctx context.Context) error
}
