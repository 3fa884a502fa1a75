package main

import (
    "context"
    "os"
    "os/signal"
    "syscall"

    "nivelador/config"
    "nivelador/internal/service/grading"
    "nivelador/pkg/logger"
    "nivelador/pkg/worker"
)

func main() {

    // 初始化日志
    log, err := logger.NewLogger(
        logger.WithLevel("info"),
        logger.WithEncoding("json"),
        logger.WithOutputPaths([]string{"stdout", "logs/worker.log"}),
    )
    if err != nil {
        panic(err)
    }
    defer log.Sync()

    // 创建分级服务
    gradingService, err := grading.GetService(log)
    if err != nil {
        log.Error("Failed to create grading service", logger.Error(err))
        os.Exit(1)
    }

    // 创建 worker 配置
    redisCfg := config.GetRedisConfig()
    workerCfg := &worker.Config{
        RedisAddr:   redisCfg.Addr,
        RedisDB:     redisCfg.DB,
        Concurrency: 10,
        Queues: map[string]int{
            "critical": 6,
            "default":  3,
            "low":      1,
        },
    }

    // 创建 worker
    gradingWorker, err := worker.NewGradingWorker(workerCfg, gradingService, log)
    if err != nil {
        log.Error("Failed to create grading worker", logger.Error(err))
        os.Exit(1)
    }

    // 创建上下文和取消函数
    ctx, cancel := context.WithCancel(context.Background())
    defer cancel()

    // 启动 worker
    if err := gradingWorker.Start(ctx); err != nil {
        log.Error("Failed to start worker", logger.Error(err))
        os.Exit(1)
    }

    // 等待中断信号
    sigChan := make(chan os.Signal, 1)
    signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
    <-sigChan

    // 优雅关闭
    log.Info("Shutting down worker...")
    gradingWorker.Stop()
    log.Info("Worker stopped")
}
