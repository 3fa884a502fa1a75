package pdf

import (
    "bytes"
    "context"
    "fmt"
    "io"
    "strings"

    "github.com/ledongthuc/pdf"
    "golang.org/x/sync/errgroup"

    "nivelador/internal/models"
    "nivelador/internal/textstat"
    "nivelador/pkg/logger"
)

type Extractor struct {
    logger logger.Logger
}

func NewExtractor(logger logger.Logger) *Extractor {
    return &Extractor{
        logger: logger,
    }
}

func (e *Extractor) CanProcess(ext string) bool {
    return strings.EqualFold(ext, ".pdf")
}

// Extract reads the PDF text layer page by page. Pages are processed in
// parallel but reassembled in page order so word counts line up with the
// original pagination.
func (e *Extractor) Extract(ctx context.Context, reader io.Reader) (models.DocumentSample, error) {
    content, err := io.ReadAll(reader)
    if err != nil {
        return models.DocumentSample{}, err
    }

    // pdf.NewReader 需要 io.ReaderAt
    r := bytes.NewReader(content)
    pdfReader, err := pdf.NewReader(r, r.Size())
    if err != nil {
        return models.DocumentSample{}, fmt.Errorf("failed to open pdf: %w", err)
    }

    numPages := pdfReader.NumPage()
    pageTexts := make([]string, numPages)

    g, ctx := errgroup.WithContext(ctx)

    // 设置最大并发数
    maxWorkers := 4
    sem := make(chan struct{}, maxWorkers)

    for i := 1; i <= numPages; i++ {
        pageNum := i
        g.Go(func() error {
            select {
            case sem <- struct{}{}:
                defer func() { <-sem }()
            case <-ctx.Done():
                return ctx.Err()
            }

            page := pdfReader.Page(pageNum)
            if page.V.IsNull() {
                return nil
            }

            text, err := page.GetPlainText(nil)
            if err != nil {
                // Pages with a broken text layer contribute an empty page
                // rather than failing the document.
                e.logger.Warn("Failed to extract page text",
                    logger.Int("page", pageNum),
                    logger.Error(err),
                )
                return nil
            }

            pageTexts[pageNum-1] = text
            return nil
        })
    }

    if err := g.Wait(); err != nil {
        return models.DocumentSample{}, err
    }

    wordsPerPage := make([]int, numPages)
    for i, text := range pageTexts {
        wordsPerPage[i] = len(textstat.Tokenize(text))
    }

    return models.DocumentSample{
        RawText:      strings.Join(pageTexts, "\n"),
        WordsPerPage: wordsPerPage,
    }, nil
}

// Close 实现 extract.Extractor 接口的 Close 方法
func (e *Extractor) Close() error {
    return nil
}
