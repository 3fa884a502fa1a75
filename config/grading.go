package config

import (
    "log"
    "os"
    "sync"

    "gopkg.in/yaml.v3"
)

var (
    gradingOnce   sync.Once
    gradingConfig *GradingConfig
)

// GradingConfig holds classifier and upload knobs. The activity keyword list
// can be overridden from a YAML file so deployments can localize it without a
// rebuild.
type GradingConfig struct {
    ModelVersion     string   `yaml:"modelVersion"`
    MaxFileSize      int64    `yaml:"maxFileSize"`
    AllowedTypes     []string `yaml:"allowedTypes"`
    ActivityKeywords []string `yaml:"activityKeywords"`
    RemoteBucket     string   `yaml:"remoteBucket"`
    RemotePrefix     string   `yaml:"remotePrefix"`
}

func GetGradingConfig() *GradingConfig {
    gradingOnce.Do(func() {
        loadEnv()

        gradingConfig = &GradingConfig{
            ModelVersion: "cefr-heuristic-v1",
            MaxFileSize:  50 * 1024 * 1024, // 50MB
            AllowedTypes: []string{".pdf", ".epub"},
            RemoteBucket: os.Getenv("REMOTE_BUCKET_NAME"),
            RemotePrefix: os.Getenv("REMOTE_BUCKET_PREFIX"),
        }

        if path := os.Getenv("GRADING_CONFIG_FILE"); path != "" {
            data, err := os.ReadFile(path)
            if err != nil {
                log.Printf("Warning: grading config file %s not readable: %v", path, err)
                return
            }
            if err := yaml.Unmarshal(data, gradingConfig); err != nil {
                log.Printf("Warning: grading config file %s not parseable: %v", path, err)
            }
        }
    })
    return gradingConfig
}
