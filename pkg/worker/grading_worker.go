package worker

import (
    "context"
    "encoding/json"
    "fmt"
    "time"

    "github.com/hibiken/asynq"

    "nivelador/internal/service/grading"
    "nivelador/pkg/logger"
    "nivelador/pkg/queue"
)

type GradingWorker struct {
    BaseWorker
    grader grading.Grader
}

func NewGradingWorker(cfg *Config, grader grading.Grader, logger logger.Logger) (*GradingWorker, error) {
    server := asynq.NewServer(
        asynq.RedisClientOpt{Addr: cfg.RedisAddr, DB: cfg.RedisDB},
        asynq.Config{
            Concurrency: cfg.Concurrency,
            Queues:      cfg.Queues,
            RetryDelayFunc: func(n int, err error, task *asynq.Task) time.Duration {
                return time.Duration(n) * time.Minute
            },
        },
    )

    w := &GradingWorker{
        BaseWorker: BaseWorker{
            server:   server,
            mux:      asynq.NewServeMux(),
            logger:   logger,
            stopChan: make(chan struct{}),
        },
        grader: grader,
    }

    w.registerHandlers()
    return w, nil
}

func (w *GradingWorker) registerHandlers() {
    w.mux.HandleFunc(queue.TaskTypeGradeDocument, w.handleGradeDocument)
}

func (w *GradingWorker) handleGradeDocument(ctx context.Context, t *asynq.Task) error {
    var task queue.Task
    if err := json.Unmarshal(t.Payload(), &task); err != nil {
        w.logger.Error("Failed to unmarshal task",
            logger.Error(err),
            logger.String("payload", string(t.Payload())),
        )
        return fmt.Errorf("failed to unmarshal task: %w", err)
    }

    w.logger.Info("Processing grading task",
        logger.String("taskId", task.ID),
        logger.Any("metadata", task.Metadata),
    )

    if task.ID == "" || task.Metadata == nil || task.Payload == nil {
        w.logger.Error("Invalid task data",
            logger.String("taskId", task.ID),
        )
        return fmt.Errorf("invalid task data: missing required fields")
    }

    info := t.ResultWriter()
    if _, err := info.Write([]byte(`{"status":"running","progress":0}`)); err != nil {
        w.logger.Error("Failed to write task status", logger.Error(err))
    }

    if err := w.grader.HandleGrading(ctx, &task); err != nil {
        if _, writeErr := info.Write([]byte(fmt.Sprintf(`{"status":"failed","error":%q}`, err.Error()))); writeErr != nil {
            w.logger.Error("Failed to write task failure", logger.Error(writeErr))
        }
        return err
    }

    if _, err := info.Write([]byte(`{"status":"completed","progress":100}`)); err != nil {
        w.logger.Error("Failed to write task completion", logger.Error(err))
    }

    return nil
}

func (w *GradingWorker) Start(ctx context.Context) error {
    go func() {
        if err := w.server.Run(w.mux); err != nil {
            w.logger.Error("Worker server stopped", logger.Error(err))
        }
    }()

    go func() {
        <-ctx.Done()
        w.Stop()
    }()

    return nil
}
