package grading

import (
    "bytes"
    "context"
    "encoding/json"
    "fmt"
    "io"
    "mime/multipart"
    "path/filepath"
    "strings"
    "time"

    "github.com/google/uuid"
    "golang.org/x/sync/errgroup"

    cfg "nivelador/config"
    "nivelador/internal/activity"
    "nivelador/internal/cefr"
    "nivelador/internal/extract"
    "nivelador/internal/models"
    "nivelador/internal/remote"
    "nivelador/internal/utils/validator"
    "nivelador/pkg/export"
    "nivelador/pkg/logger"
    "nivelador/pkg/queue"
    "nivelador/pkg/storage"
)

const (
    uploadPrefix = "uploads/"
    resultPrefix = "results/"
)

type GradingService struct {
    extractors *extract.Factory
    classifier *cefr.Classifier
    queue      queue.Queue
    storage    storage.Storage
    fetcher    remote.DocumentFetcher
    lister     remote.DocumentLister
    results    *models.ResultSet
    logger     logger.Logger
    config     *ServiceConfig
    now        func() time.Time
}

type ServiceConfig struct {
    MaxFileSize     int64
    AllowedTypes    []string
    QueuePriority   int
    ModelVersion    string
    MaxConcurrent   int
    RetentionPeriod time.Duration
}

func NewService(
    extractors *extract.Factory,
    classifier *cefr.Classifier,
    q queue.Queue,
    store storage.Storage,
    lister remote.DocumentLister,
    fetcher remote.DocumentFetcher,
    results *models.ResultSet,
    log logger.Logger,
    sc *ServiceConfig,
) Grader {
    if sc == nil {
        gc := cfg.GetGradingConfig()
        sc = &ServiceConfig{
            MaxFileSize:     gc.MaxFileSize,
            AllowedTypes:    gc.AllowedTypes,
            ModelVersion:    gc.ModelVersion,
            MaxConcurrent:   5,
            RetentionPeriod: 24 * time.Hour,
        }
    }

    return &GradingService{
        extractors: extractors,
        classifier: classifier,
        queue:      q,
        storage:    store,
        fetcher:    fetcher,
        lister:     lister,
        results:    results,
        logger:     log,
        config:     sc,
        now:        time.Now,
    }
}

// GetService 组装默认依赖
func GetService(log logger.Logger) (Grader, error) {
    store, err := storage.NewStorage(storage.StorageTypeMinio, log)
    if err != nil {
        return nil, fmt.Errorf("failed to initialize storage: %w", err)
    }

    q, err := queue.GetQueue()
    if err != nil {
        return nil, fmt.Errorf("failed to initialize queue: %w", err)
    }

    gc := cfg.GetGradingConfig()
    keywords := gc.ActivityKeywords
    if len(keywords) == 0 {
        keywords = activity.DefaultKeywords()
    }
    classifier := cefr.NewClassifier(activity.NewDetector(keywords))

    source := remote.NewBucketSource(store, log)
    return NewService(
        extract.NewFactory(log),
        classifier,
        q,
        store,
        source,
        source,
        models.NewResultSet(),
        log,
        nil,
    ), nil
}

// ProcessFile 校验并入队单个文件
func (s *GradingService) ProcessFile(
    ctx context.Context,
    file multipart.File,
    header *multipart.FileHeader,
) (*models.GradingTask, error) {
    s.logger.Info("Starting file grading",
        logger.String("filename", header.Filename),
        logger.Int64("size", header.Size),
    )

    if err := validator.ValidateUpload(header, s.config.MaxFileSize, s.config.AllowedTypes); err != nil {
        s.logger.Error("File validation failed",
            logger.String("filename", header.Filename),
            logger.Error(err),
        )
        return nil, err
    }

    taskID := uuid.New().String()
    ext := strings.ToLower(filepath.Ext(header.Filename))

    task := &models.GradingTask{
        ID:        taskID,
        Status:    models.StatusPending,
        Type:      queue.TaskTypeGradeDocument,
        Priority:  s.config.QueuePriority,
        Progress:  0,
        CreatedAt: s.now(),
        UpdatedAt: s.now(),
        Metadata: map[string]string{
            "filename": header.Filename,
            "size":     fmt.Sprintf("%d", header.Size),
            "type":     ext,
        },
    }

    fileID, err := s.storage.Store(ctx, file, uploadPrefix+taskID+ext)
    if err != nil {
        s.logger.Error("Failed to store file",
            logger.String("filename", header.Filename),
            logger.Error(err),
        )
        return nil, fmt.Errorf("failed to store file: %w", err)
    }

    queueTask := &queue.Task{
        ID:       taskID,
        Type:     task.Type,
        Priority: task.Priority,
        Payload: map[string]interface{}{
            "fileId":   fileID,
            "filename": header.Filename,
            "type":     ext,
        },
        Metadata:  task.Metadata,
        CreatedAt: task.CreatedAt,
    }

    if err := s.queue.Enqueue(ctx, queueTask); err != nil {
        s.logger.Error("Failed to enqueue task",
            logger.String("taskId", taskID),
            logger.Error(err),
        )
        return nil, fmt.Errorf("failed to enqueue task: %w", err)
    }

    initialStatus := &queue.TaskStatus{
        TaskID:    taskID,
        Status:    "pending",
        Progress:  0,
        StartedAt: s.now(),
    }
    if err := s.queue.SaveFinalStatus(ctx, initialStatus); err != nil {
        s.logger.Error("Failed to save initial status",
            logger.String("taskId", taskID),
            logger.Error(err),
        )
    }

    s.logger.Info("Grading task created",
        logger.String("taskId", taskID),
        logger.String("filename", header.Filename),
    )
    return task, nil
}

// ProcessBatch 批量入队。任务切片按提交顺序填充，与完成顺序无关。
func (s *GradingService) ProcessBatch(ctx context.Context, files []*multipart.FileHeader) ([]*models.GradingTask, error) {
    tasks := make([]*models.GradingTask, len(files))

    g, ctx := errgroup.WithContext(ctx)
    g.SetLimit(s.config.MaxConcurrent)

    for i, header := range files {
        i, header := i, header
        g.Go(func() error {
            file, err := header.Open()
            if err != nil {
                return fmt.Errorf("failed to open file %s: %w", header.Filename, err)
            }
            defer file.Close()

            task, err := s.ProcessFile(ctx, file, header)
            if err != nil {
                return fmt.Errorf("failed to process file %s: %w", header.Filename, err)
            }

            tasks[i] = task
            return nil
        })
    }

    if err := g.Wait(); err != nil {
        return tasks, err
    }
    return tasks, nil
}

// ProcessRemote grades every supported document under prefix. Documents are
// fetched and graded in parallel but the returned records and the appended
// result-set rows follow listing order, so repeated runs produce the same
// table. A failure on one document yields an error-tagged record and never
// aborts the rest.
func (s *GradingService) ProcessRemote(ctx context.Context, prefix string, set *models.ResultSet) ([]models.ClassificationResult, error) {
    docs, err := s.lister.ListDocuments(ctx, prefix)
    if err != nil {
        return nil, fmt.Errorf("failed to list remote documents: %w", err)
    }

    records := make([]models.ClassificationResult, len(docs))

    g, gctx := errgroup.WithContext(ctx)
    g.SetLimit(s.config.MaxConcurrent)

    for i, doc := range docs {
        i, doc := i, doc
        g.Go(func() error {
            reader, err := s.fetcher.FetchDocument(gctx, doc.Key)
            if err != nil {
                s.logger.Warn("Failed to fetch remote document",
                    logger.String("key", doc.Key),
                    logger.Error(err),
                )
                records[i] = cefr.AssembleErrorRecord(doc.Name, fmt.Sprintf("fetch failed: %v", err), s.now(), s.config.ModelVersion)
                return nil
            }
            defer reader.Close()

            records[i] = s.gradeStream(gctx, reader, doc.Name)
            return nil
        })
    }

    if err := g.Wait(); err != nil {
        return nil, err
    }

    set.AppendAll(records)

    s.logger.Info("Remote batch graded",
        logger.String("prefix", prefix),
        logger.Int("documents", len(records)),
    )
    return records, nil
}

// HandleGrading 处理队列中的分级任务
func (s *GradingService) HandleGrading(ctx context.Context, task *queue.Task) error {
    if task == nil || task.Payload == nil || task.Metadata == nil {
        return fmt.Errorf("invalid task: missing required data")
    }

    s.logger.Info("Grading document",
        logger.String("taskId", task.ID),
        logger.String("filename", task.Metadata["filename"]),
    )

    fileID, ok := task.Payload["fileId"].(string)
    if !ok {
        return fmt.Errorf("invalid task payload: missing fileId")
    }

    reader, err := s.storage.Get(ctx, fileID)
    if err != nil {
        return fmt.Errorf("failed to get file: %w", err)
    }
    defer reader.Close()

    record := s.gradeStream(ctx, reader, task.Metadata["filename"])

    data, err := json.Marshal(record)
    if err != nil {
        return fmt.Errorf("failed to marshal result: %w", err)
    }
    if _, err := s.storage.Store(ctx, bytes.NewReader(data), resultPrefix+task.ID+".json"); err != nil {
        return fmt.Errorf("failed to store result: %w", err)
    }

    s.results.Append(record)

    s.logger.Info("Document graded",
        logger.String("taskId", task.ID),
        logger.String("level", string(record.CEFRLevel)),
        logger.String("bookType", string(record.BookType)),
    )

    finalStatus := &queue.TaskStatus{
        TaskID:     task.ID,
        Status:     "completed",
        Progress:   1.0,
        StartedAt:  task.CreatedAt,
        FinishedAt: s.now(),
    }
    if err := s.queue.SaveFinalStatus(ctx, finalStatus); err != nil {
        s.logger.Error("Failed to save final status",
            logger.String("taskId", task.ID),
            logger.Error(err),
        )
    }

    return nil
}

// gradeStream runs extraction and classification for one document. Extraction
// failures degrade to an empty sample so the classifier routes the document to
// the activity branch instead of failing the batch; only an unsupported
// extension produces an error-tagged record.
func (s *GradingService) gradeStream(ctx context.Context, reader io.Reader, filename string) models.ClassificationResult {
    ext := strings.ToLower(filepath.Ext(filename))

    extractor, err := s.extractors.GetExtractor(ext)
    if err != nil {
        return cefr.AssembleErrorRecord(filename, err.Error(), s.now(), s.config.ModelVersion)
    }

    sample, err := extractor.Extract(ctx, reader)
    if err != nil {
        s.logger.Warn("Extraction failed, grading empty sample",
            logger.String("filename", filename),
            logger.Error(err),
        )
        sample = models.DocumentSample{}
    }

    res := s.classifier.Classify(sample.RawText, sample.WordsPerPage)
    return cefr.AssembleRecord(res, filename, s.now(), s.config.ModelVersion)
}

// GetStatus 获取任务状态
func (s *GradingService) GetStatus(ctx context.Context, taskID string) (*models.GradingTask, error) {
    status, err := s.queue.GetTaskStatus(ctx, taskID)
    if err != nil {
        return nil, fmt.Errorf("failed to get task status: %w", err)
    }

    var taskStatus models.ProcessingStatus
    switch status.Status {
    case "pending":
        taskStatus = models.StatusPending
    case "running", "active":
        taskStatus = models.StatusRunning
    case "completed":
        taskStatus = models.StatusCompleted
    case "failed":
        taskStatus = models.StatusFailed
    default:
        taskStatus = models.StatusPending
    }

    return &models.GradingTask{
        ID:        status.TaskID,
        Status:    taskStatus,
        Type:      queue.TaskTypeGradeDocument,
        Progress:  status.Progress,
        Error:     status.Error,
        Metadata:  make(map[string]string),
        CreatedAt: status.StartedAt,
        UpdatedAt: status.FinishedAt,
    }, nil
}

// GetResult 获取分级结果
func (s *GradingService) GetResult(ctx context.Context, taskID string) (*models.ClassificationResult, error) {
    status, err := s.GetStatus(ctx, taskID)
    if err != nil {
        return nil, err
    }
    if status.Status != models.StatusCompleted {
        return nil, fmt.Errorf("task is not completed: %s", status.Status)
    }

    reader, err := s.storage.Get(ctx, resultPrefix+taskID+".json")
    if err != nil {
        return nil, fmt.Errorf("failed to get result: %w", err)
    }
    defer reader.Close()

    var result models.ClassificationResult
    if err := json.NewDecoder(reader).Decode(&result); err != nil {
        return nil, fmt.Errorf("failed to decode result: %w", err)
    }
    return &result, nil
}

// ExportResults rebuilds the result table from every stored record and writes
// it to the sink. Keys list in stable order, so the export is reproducible
// across server restarts and worker processes.
func (s *GradingService) ExportResults(ctx context.Context, sink export.TableSink) error {
    keys, err := s.storage.List(ctx, resultPrefix)
    if err != nil {
        return fmt.Errorf("failed to list results: %w", err)
    }

    set := models.NewResultSet()
    for _, key := range keys {
        reader, err := s.storage.Get(ctx, key)
        if err != nil {
            s.logger.Warn("Skipping unreadable result",
                logger.String("key", key),
                logger.Error(err),
            )
            continue
        }

        var record models.ClassificationResult
        decodeErr := json.NewDecoder(reader).Decode(&record)
        reader.Close()
        if decodeErr != nil {
            s.logger.Warn("Skipping undecodable result",
                logger.String("key", key),
                logger.Error(decodeErr),
            )
            continue
        }
        set.Append(record)
    }

    return export.WriteResults(ctx, sink, set.Rows())
}

// CancelTask 取消任务
func (s *GradingService) CancelTask(ctx context.Context, taskID string) error {
    if err := s.queue.CancelTask(ctx, taskID); err != nil {
        return fmt.Errorf("failed to cancel task: %w", err)
    }

    s.logger.Info("Task cancelled",
        logger.String("taskId", taskID),
    )
    return nil
}

// CleanupTasks 清理过期任务
func (s *GradingService) CleanupTasks(ctx context.Context) error {
    threshold := s.now().Add(-s.config.RetentionPeriod)

    if err := s.storage.CleanupBefore(ctx, threshold); err != nil {
        return fmt.Errorf("failed to cleanup storage: %w", err)
    }

    s.logger.Info("Completed tasks cleanup",
        logger.Time("threshold", threshold),
    )
    return nil
}
