package config

import (
    "log"
    "os"
    "path/filepath"
    "runtime"
    "strconv"
    "sync"

    "github.com/joho/godotenv"
)

var (
    redisOnce   sync.Once
    redisConfig *RedisConfig
)

type RedisConfig struct {
    Addr string
    DB   int
}

func GetRedisConfig() *RedisConfig {
    redisOnce.Do(func() {
        loadEnv()

        addr := os.Getenv("REDIS_ADDR")
        if addr == "" {
            addr = "localhost:6379"
        }
        db := 0
        if v := os.Getenv("REDIS_DB"); v != "" {
            if parsed, err := strconv.Atoi(v); err == nil {
                db = parsed
            }
        }

        redisConfig = &RedisConfig{
            Addr: addr,
            DB:   db,
        }
    })
    return redisConfig
}

var envOnce sync.Once

// loadEnv 加载项目根目录的 .env 文件
func loadEnv() {
    envOnce.Do(func() {
        _, filename, _, _ := runtime.Caller(0)
        configDir := filepath.Dir(filename)
        rootDir := filepath.Dir(configDir)
        envPath := filepath.Join(rootDir, ".env")

        if err := godotenv.Load(envPath); err != nil {
            log.Printf("Warning: .env file not found at %s, falling back to environment variables", envPath)
        }
    })
}
