package queue

import (
    "context"
    "encoding/json"
    "fmt"
    "time"

    "github.com/hibiken/asynq"
    "github.com/redis/go-redis/v9"

    cfg "nivelador/config"
)

// TaskType 定义任务类型
const (
    TaskTypeGradeDocument = "grade:document"
    TaskTypeGradeRemote   = "grade:remote"
)

// Queue 接口定义
type Queue interface {
    Enqueue(ctx context.Context, task *Task) error
    GetTaskStatus(ctx context.Context, taskID string) (*TaskStatus, error)
    CancelTask(ctx context.Context, taskID string) error
    SaveFinalStatus(ctx context.Context, status *TaskStatus) error
}

// Task 定义任务结构
type Task struct {
    ID        string                 `json:"id"`
    Type      string                 `json:"type"`
    Priority  int                    `json:"priority"`
    Payload   map[string]interface{} `json:"payload"`
    Metadata  map[string]string      `json:"metadata"`
    CreatedAt time.Time              `json:"createdAt"`
}

// TaskStatus 定义任务状态
type TaskStatus struct {
    TaskID     string    `json:"taskId"`
    Status     string    `json:"status"`
    Progress   float64   `json:"progress"`
    Error      string    `json:"error,omitempty"`
    StartedAt  time.Time `json:"startedAt"`
    FinishedAt time.Time `json:"finishedAt,omitempty"`
}

// AsynqQueue 实现
type AsynqQueue struct {
    client    *asynq.Client
    inspector *asynq.Inspector
    redis     *redis.Client
}

// QueueConfig 定义队列配置
type QueueConfig struct {
    RedisAddr      string
    RedisDB        int
    MaxRetries     int
    ProcessTimeout time.Duration
    StatusTTL      time.Duration
}

// GetQueue 获取队列实例
func GetQueue() (*AsynqQueue, error) {
    redisCfg := cfg.GetRedisConfig()
    return NewAsynqQueue(&QueueConfig{
        RedisAddr:      redisCfg.Addr,
        RedisDB:        redisCfg.DB,
        MaxRetries:     3,
        ProcessTimeout: 30 * time.Minute,
        StatusTTL:      24 * time.Hour,
    })
}

// NewAsynqQueue 创建新的队列实例
func NewAsynqQueue(qc *QueueConfig) (*AsynqQueue, error) {
    redisOpt := asynq.RedisClientOpt{
        Addr: qc.RedisAddr,
        DB:   qc.RedisDB,
    }

    redisClient := redis.NewClient(&redis.Options{
        Addr: qc.RedisAddr,
        DB:   qc.RedisDB,
    })

    return &AsynqQueue{
        client:    asynq.NewClient(redisOpt),
        inspector: asynq.NewInspector(redisOpt),
        redis:     redisClient,
    }, nil
}

// Enqueue 将任务加入队列
func (q *AsynqQueue) Enqueue(ctx context.Context, task *Task) error {
    payload, err := json.Marshal(task)
    if err != nil {
        return fmt.Errorf("failed to marshal task: %w", err)
    }

    opts := []asynq.Option{
        asynq.ProcessIn(time.Second),
        asynq.MaxRetry(3),
        asynq.Timeout(30 * time.Minute),
        asynq.TaskID(task.ID),
    }

    // 根据优先选择队列
    switch task.Priority {
    case 1:
        opts = append(opts, asynq.Queue("critical"))
    case 2:
        opts = append(opts, asynq.Queue("default"))
    default:
        opts = append(opts, asynq.Queue("low"))
    }

    t := asynq.NewTask(task.Type, payload, opts...)
    info, err := q.client.EnqueueContext(ctx, t)
    if err != nil {
        return fmt.Errorf("failed to enqueue task: %w", err)
    }

    task.ID = info.ID
    return nil
}

// GetTaskStatus 获取任务状态
func (q *AsynqQueue) GetTaskStatus(ctx context.Context, taskID string) (*TaskStatus, error) {
    // 首先尝试从 Redis 获取状态
    key := statusKey(taskID)
    data, err := q.redis.Get(ctx, key).Bytes()
    if err != nil && err != redis.Nil {
        return nil, fmt.Errorf("failed to get status from redis: %w", err)
    }

    if err == nil {
        var status TaskStatus
        if err := json.Unmarshal(data, &status); err != nil {
            return nil, fmt.Errorf("failed to unmarshal status: %w", err)
        }
        return &status, nil
    }

    // 如果 Redis 中没有，从所有队列中查找
    queues := []string{"critical", "default", "low"}
    var info *asynq.TaskInfo
    var lastErr error

    for _, queueName := range queues {
        info, err = q.inspector.GetTaskInfo(queueName, taskID)
        if err == nil {
            break
        }
        lastErr = err
    }

    if info == nil {
        return nil, fmt.Errorf("task not found in any queue: %w", lastErr)
    }

    status := convertAsynqStatus(info)

    if err := q.SaveFinalStatus(ctx, status); err != nil {
        return status, nil
    }

    return status, nil
}

// CancelTask 取消任务
func (q *AsynqQueue) CancelTask(ctx context.Context, taskID string) error {
    queues := []string{"critical", "default", "low"}
    var lastErr error

    for _, queue := range queues {
        err := q.inspector.DeleteTask(queue, taskID)
        if err == nil {
            return nil
        }
        lastErr = err
    }

    return fmt.Errorf("failed to cancel task: %w", lastErr)
}

// SaveFinalStatus 保存最终任务状态
func (q *AsynqQueue) SaveFinalStatus(ctx context.Context, status *TaskStatus) error {
    key := statusKey(status.TaskID)
    data, err := json.Marshal(status)
    if err != nil {
        return fmt.Errorf("failed to marshal status: %w", err)
    }

    if err := q.redis.Set(ctx, key, data, 24*time.Hour).Err(); err != nil {
        return fmt.Errorf("failed to save status: %w", err)
    }

    return nil
}

func statusKey(taskID string) string {
    return fmt.Sprintf("task_status:%s", taskID)
}

// convertAsynqStatus 将 asynq 状态转换为 TaskStatus
func convertAsynqStatus(info *asynq.TaskInfo) *TaskStatus {
    status := &TaskStatus{
        TaskID:     info.ID,
        StartedAt:  info.NextProcessAt,
        FinishedAt: time.Now(),
    }

    switch info.State {
    case asynq.TaskStatePending:
        status.Status = "pending"
    case asynq.TaskStateActive:
        status.Status = "running"
        status.Progress = 0.5
    case asynq.TaskStateCompleted:
        status.Status = "completed"
        status.Progress = 1.0
        status.FinishedAt = info.CompletedAt
    case asynq.TaskStateRetry:
        status.Status = "failed"
        status.Error = info.LastErr
    }

    return status
}
