package extract

import (
    "context"
    "io"

    "nivelador/internal/models"
)

// Extractor 文本提取器接口
type Extractor interface {
    // CanProcess 检查是否可以处理指定扩展名的文件
    CanProcess(ext string) bool

    // Extract 提取纯文本和每页词数
    Extract(ctx context.Context, reader io.Reader) (models.DocumentSample, error)

    // Close 清理资源
    Close() error
}
