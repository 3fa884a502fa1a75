package extract

import (
    "fmt"
    "strings"

    "nivelador/internal/extract/epub"
    "nivelador/internal/extract/pdf"
    "nivelador/pkg/logger"
)

type Factory struct {
    extractors map[string]Extractor
    logger     logger.Logger
}

func NewFactory(log logger.Logger) *Factory {
    factory := &Factory{
        extractors: make(map[string]Extractor),
        logger:     log,
    }

    factory.extractors[".pdf"] = pdf.NewExtractor(log)
    factory.extractors[".epub"] = epub.NewExtractor(log)

    return factory
}

// GetExtractor resolves a file extension (".pdf", ".epub") to its extractor.
// Unknown extensions are an UnsupportedFormat condition for the caller to turn
// into an error-tagged record.
func (f *Factory) GetExtractor(ext string) (Extractor, error) {
    extractor, ok := f.extractors[strings.ToLower(ext)]
    if !ok {
        f.logger.Warn("Unsupported file type",
            logger.String("ext", ext),
        )
        return nil, fmt.Errorf("unsupported file type: %s", ext)
    }
    return extractor, nil
}

// SupportedExtensions lists the registered extensions.
func (f *Factory) SupportedExtensions() []string {
    exts := make([]string, 0, len(f.extractors))
    for ext := range f.extractors {
        exts = append(exts, ext)
    }
    return exts
}
