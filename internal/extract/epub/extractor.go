package epub

import (
    "archive/zip"
    "bytes"
    "context"
    "encoding/xml"
    "fmt"
    "html"
    "io"
    "path"
    "regexp"
    "strings"

    "nivelador/internal/models"
    "nivelador/internal/textstat"
    "nivelador/pkg/logger"
)

// EPUB is a zip container: META-INF/container.xml points at the OPF package,
// whose spine orders the XHTML content documents. Each spine document is
// treated as one page unit for density purposes.

type container struct {
    XMLName   xml.Name   `xml:"container"`
    RootFiles []rootFile `xml:"rootfiles>rootfile"`
}

type rootFile struct {
    FullPath  string `xml:"full-path,attr"`
    MediaType string `xml:"media-type,attr"`
}

type opfPackage struct {
    XMLName  xml.Name `xml:"package"`
    Manifest manifest `xml:"manifest"`
    Spine    spine    `xml:"spine"`
}

type manifest struct {
    Items []manifestItem `xml:"item"`
}

type manifestItem struct {
    ID        string `xml:"id,attr"`
    Href      string `xml:"href,attr"`
    MediaType string `xml:"media-type,attr"`
}

type spine struct {
    ItemRefs []itemRef `xml:"itemref"`
}

type itemRef struct {
    IDRef string `xml:"idref,attr"`
}

var (
    tagPattern        = regexp.MustCompile(`<[^>]*>`)
    whitespacePattern = regexp.MustCompile(`\s+`)
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
    return strings.EqualFold(ext, ".epub")
}

func (e *Extractor) Extract(ctx context.Context, reader io.Reader) (models.DocumentSample, error) {
    content, err := io.ReadAll(reader)
    if err != nil {
        return models.DocumentSample{}, err
    }

    zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
    if err != nil {
        return models.DocumentSample{}, fmt.Errorf("failed to open epub container: %w", err)
    }

    files := make(map[string]*zip.File, len(zr.File))
    for _, f := range zr.File {
        files[f.Name] = f
    }

    opfPath, err := rootFilePath(files)
    if err != nil {
        return models.DocumentSample{}, err
    }

    pkg, err := readPackage(files, opfPath)
    if err != nil {
        return models.DocumentSample{}, err
    }

    docPaths := spineDocuments(pkg, path.Dir(opfPath))
    if len(docPaths) == 0 {
        return models.DocumentSample{}, fmt.Errorf("no content documents in spine")
    }

    pageTexts := make([]string, 0, len(docPaths))
    for _, docPath := range docPaths {
        select {
        case <-ctx.Done():
            return models.DocumentSample{}, ctx.Err()
        default:
        }

        f, ok := files[docPath]
        if !ok {
            e.logger.Warn("Spine document missing from archive",
                logger.String("path", docPath),
            )
            continue
        }

        text, err := readDocumentText(f)
        if err != nil {
            e.logger.Warn("Failed to read spine document",
                logger.String("path", docPath),
                logger.Error(err),
            )
            continue
        }
        pageTexts = append(pageTexts, text)
    }

    wordsPerPage := make([]int, len(pageTexts))
    for i, text := range pageTexts {
        wordsPerPage[i] = len(textstat.Tokenize(text))
    }

    return models.DocumentSample{
        RawText:      strings.Join(pageTexts, "\n"),
        WordsPerPage: wordsPerPage,
    }, nil
}

func (e *Extractor) Close() error {
    return nil
}

func rootFilePath(files map[string]*zip.File) (string, error) {
    f, ok := files["META-INF/container.xml"]
    if !ok {
        return "", fmt.Errorf("container.xml not found in epub")
    }

    rc, err := f.Open()
    if err != nil {
        return "", fmt.Errorf("failed to open container.xml: %w", err)
    }
    defer rc.Close()

    var c container
    if err := xml.NewDecoder(rc).Decode(&c); err != nil {
        return "", fmt.Errorf("failed to parse container.xml: %w", err)
    }
    if len(c.RootFiles) == 0 {
        return "", fmt.Errorf("no rootfile in container.xml")
    }
    return c.RootFiles[0].FullPath, nil
}

func readPackage(files map[string]*zip.File, opfPath string) (*opfPackage, error) {
    f, ok := files[opfPath]
    if !ok {
        return nil, fmt.Errorf("opf package not found: %s", opfPath)
    }

    rc, err := f.Open()
    if err != nil {
        return nil, fmt.Errorf("failed to open opf package: %w", err)
    }
    defer rc.Close()

    var pkg opfPackage
    if err := xml.NewDecoder(rc).Decode(&pkg); err != nil {
        return nil, fmt.Errorf("failed to parse opf package: %w", err)
    }
    return &pkg, nil
}

func spineDocuments(pkg *opfPackage, opfDir string) []string {
    byID := make(map[string]manifestItem, len(pkg.Manifest.Items))
    for _, item := range pkg.Manifest.Items {
        byID[item.ID] = item
    }

    docs := make([]string, 0, len(pkg.Spine.ItemRefs))
    for _, ref := range pkg.Spine.ItemRefs {
        item, ok := byID[ref.IDRef]
        if !ok {
            continue
        }
        if item.MediaType != "application/xhtml+xml" && item.MediaType != "text/html" {
            continue
        }
        p := item.Href
        if opfDir != "." && opfDir != "" {
            p = path.Join(opfDir, item.Href)
        }
        docs = append(docs, p)
    }
    return docs
}

func readDocumentText(f *zip.File) (string, error) {
    rc, err := f.Open()
    if err != nil {
        return "", err
    }
    defer rc.Close()

    raw, err := io.ReadAll(rc)
    if err != nil {
        return "", err
    }

    text := tagPattern.ReplaceAllString(string(raw), " ")
    text = html.UnescapeString(text)
    text = whitespacePattern.ReplaceAllString(text, " ")
    return strings.TrimSpace(text), nil
}
