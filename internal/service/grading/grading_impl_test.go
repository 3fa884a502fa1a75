package grading

import (
    "archive/zip"
    "bytes"
    "context"
    "encoding/json"
    "fmt"
    "io"
    "mime/multipart"
    "net/http"
    "net/http/httptest"
    "sort"
    "strings"
    "sync"
    "testing"
    "time"

    "nivelador/internal/activity"
    "nivelador/internal/cefr"
    "nivelador/internal/extract"
    "nivelador/internal/models"
    "nivelador/internal/remote"
    "nivelador/pkg/export"
    "nivelador/pkg/logger"
    "nivelador/pkg/queue"
)

// memStorage is an in-memory Storage for tests. List returns keys sorted,
// matching the bucket backends.
type memStorage struct {
    mu      sync.Mutex
    objects map[string][]byte
}

func newMemStorage() *memStorage {
    return &memStorage{objects: make(map[string][]byte)}
}

func (m *memStorage) Store(ctx context.Context, reader io.Reader, filename string) (string, error) {
    data, err := io.ReadAll(reader)
    if err != nil {
        return "", err
    }
    m.mu.Lock()
    defer m.mu.Unlock()
    m.objects[filename] = data
    return filename, nil
}

func (m *memStorage) Get(ctx context.Context, fileID string) (io.ReadCloser, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    data, ok := m.objects[fileID]
    if !ok {
        return nil, fmt.Errorf("object not found: %s", fileID)
    }
    return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memStorage) List(ctx context.Context, prefix string) ([]string, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    var keys []string
    for k := range m.objects {
        if strings.HasPrefix(k, prefix) {
            keys = append(keys, k)
        }
    }
    sort.Strings(keys)
    return keys, nil
}

func (m *memStorage) Delete(ctx context.Context, id string) error {
    m.mu.Lock()
    defer m.mu.Unlock()
    delete(m.objects, id)
    return nil
}

func (m *memStorage) CleanupBefore(ctx context.Context, threshold time.Time) error {
    return nil
}

// memQueue records enqueued tasks and saved statuses.
type memQueue struct {
    mu       sync.Mutex
    enqueued []*queue.Task
    statuses map[string]*queue.TaskStatus
}

func newMemQueue() *memQueue {
    return &memQueue{statuses: make(map[string]*queue.TaskStatus)}
}

func (q *memQueue) Enqueue(ctx context.Context, task *queue.Task) error {
    q.mu.Lock()
    defer q.mu.Unlock()
    q.enqueued = append(q.enqueued, task)
    return nil
}

func (q *memQueue) GetTaskStatus(ctx context.Context, taskID string) (*queue.TaskStatus, error) {
    q.mu.Lock()
    defer q.mu.Unlock()
    status, ok := q.statuses[taskID]
    if !ok {
        return nil, fmt.Errorf("status not found: %s", taskID)
    }
    return status, nil
}

func (q *memQueue) CancelTask(ctx context.Context, taskID string) error {
    return nil
}

func (q *memQueue) SaveFinalStatus(ctx context.Context, status *queue.TaskStatus) error {
    q.mu.Lock()
    defer q.mu.Unlock()
    q.statuses[status.TaskID] = status
    return nil
}

type memSource struct {
    docs    []remote.Document
    files   map[string][]byte
    failKey string
}

func (s *memSource) ListDocuments(ctx context.Context, prefix string) ([]remote.Document, error) {
    return s.docs, nil
}

func (s *memSource) FetchDocument(ctx context.Context, key string) (io.ReadCloser, error) {
    if key == s.failKey {
        return nil, fmt.Errorf("connection reset")
    }
    data, ok := s.files[key]
    if !ok {
        return nil, fmt.Errorf("object not found: %s", key)
    }
    return io.NopCloser(bytes.NewReader(data)), nil
}

func fixedNow() time.Time {
    return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
}

func newTestService(t *testing.T, store *memStorage, q *memQueue, src *memSource) (*GradingService, *models.ResultSet) {
    t.Helper()
    log := logger.NewTestLogger()
    results := models.NewResultSet()
    sc := &ServiceConfig{
        MaxFileSize:     50 * 1024 * 1024,
        AllowedTypes:    []string{".pdf", ".epub"},
        ModelVersion:    "cefr-heuristic-v1",
        MaxConcurrent:   4,
        RetentionPeriod: time.Hour,
    }
    svc := NewService(
        extract.NewFactory(log),
        cefr.NewClassifier(activity.NewDetector(activity.DefaultKeywords())),
        q,
        store,
        src,
        src,
        results,
        log,
        sc,
    ).(*GradingService)
    svc.now = fixedNow
    return svc, results
}

// makeEPUB builds a one-chapter EPUB in memory.
func makeEPUB(t *testing.T, body string) []byte {
    t.Helper()
    var buf bytes.Buffer
    w := zip.NewWriter(&buf)

    files := map[string]string{
        "META-INF/container.xml": `<?xml version="1.0"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`,
        "OEBPS/content.opf": `<?xml version="1.0"?>
<package xmlns="http://www.idpf.org/2007/opf" version="3.0">
  <manifest>
    <item id="ch1" href="ch1.xhtml" media-type="application/xhtml+xml"/>
  </manifest>
  <spine>
    <itemref idref="ch1"/>
  </spine>
</package>`,
        "OEBPS/ch1.xhtml": "<html><body><p>" + body + "</p></body></html>",
    }
    for name, content := range files {
        f, err := w.Create(name)
        if err != nil {
            t.Fatalf("create zip entry %s: %v", name, err)
        }
        if _, err := f.Write([]byte(content)); err != nil {
            t.Fatalf("write zip entry %s: %v", name, err)
        }
    }
    if err := w.Close(); err != nil {
        t.Fatalf("close zip: %v", err)
    }
    return buf.Bytes()
}

// uploadHeader builds a real multipart.FileHeader around content.
func uploadHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
    t.Helper()
    var body bytes.Buffer
    mw := multipart.NewWriter(&body)
    part, err := mw.CreateFormFile("file", filename)
    if err != nil {
        t.Fatalf("create form file: %v", err)
    }
    if _, err := part.Write(content); err != nil {
        t.Fatalf("write form file: %v", err)
    }
    mw.Close()

    req := httptest.NewRequest(http.MethodPost, "/", &body)
    req.Header.Set("Content-Type", mw.FormDataContentType())
    if err := req.ParseMultipartForm(32 << 20); err != nil {
        t.Fatalf("parse multipart form: %v", err)
    }
    return req.MultipartForm.File["file"][0]
}

func TestProcessFileStoresAndEnqueues(t *testing.T) {
    store := newMemStorage()
    q := newMemQueue()
    svc, _ := newTestService(t, store, q, &memSource{})

    header := uploadHeader(t, "gatsby.epub", makeEPUB(t, "The quiet reader turned another page."))
    file, err := header.Open()
    if err != nil {
        t.Fatalf("open header: %v", err)
    }
    defer file.Close()

    task, err := svc.ProcessFile(context.Background(), file, header)
    if err != nil {
        t.Fatalf("ProcessFile: %v", err)
    }
    if task.ID == "" {
        t.Fatal("expected task ID to be set")
    }
    if task.Status != models.StatusPending {
        t.Fatalf("status = %s, want pending", task.Status)
    }

    if len(q.enqueued) != 1 {
        t.Fatalf("enqueued %d tasks, want 1", len(q.enqueued))
    }
    if q.enqueued[0].Type != queue.TaskTypeGradeDocument {
        t.Fatalf("task type = %s", q.enqueued[0].Type)
    }

    keys, _ := store.List(context.Background(), uploadPrefix)
    if len(keys) != 1 {
        t.Fatalf("stored %d uploads, want 1", len(keys))
    }
}

func TestProcessFileRejectsBadSignature(t *testing.T) {
    svc, _ := newTestService(t, newMemStorage(), newMemQueue(), &memSource{})

    header := uploadHeader(t, "fake.pdf", []byte("this is not a pdf at all"))
    file, err := header.Open()
    if err != nil {
        t.Fatalf("open header: %v", err)
    }
    defer file.Close()

    if _, err := svc.ProcessFile(context.Background(), file, header); err == nil {
        t.Fatal("expected validation error for wrong magic bytes")
    }
}

func TestHandleGradingEPUB(t *testing.T) {
    store := newMemStorage()
    q := newMemQueue()
    svc, results := newTestService(t, store, q, &memSource{})

    epubData := makeEPUB(t, strings.Repeat("The cat sat on the mat. ", 30))
    fileID, err := store.Store(context.Background(), bytes.NewReader(epubData), uploadPrefix+"task-1.epub")
    if err != nil {
        t.Fatalf("store: %v", err)
    }

    task := &queue.Task{
        ID:   "task-1",
        Type: queue.TaskTypeGradeDocument,
        Payload: map[string]interface{}{
            "fileId": fileID,
        },
        Metadata: map[string]string{
            "filename": "cat.epub",
        },
        CreatedAt: fixedNow(),
    }

    if err := svc.HandleGrading(context.Background(), task); err != nil {
        t.Fatalf("HandleGrading: %v", err)
    }

    if results.Len() != 1 {
        t.Fatalf("result set has %d rows, want 1", results.Len())
    }
    record := results.Rows()[0]
    if record.Filename != "cat.epub" {
        t.Fatalf("filename = %q", record.Filename)
    }
    if record.Error != "" {
        t.Fatalf("unexpected error tag: %q", record.Error)
    }
    if record.ModelVersion != "cefr-heuristic-v1" {
        t.Fatalf("model version = %q", record.ModelVersion)
    }

    // persisted copy must decode back to the same record
    reader, err := store.Get(context.Background(), resultPrefix+"task-1.json")
    if err != nil {
        t.Fatalf("stored result missing: %v", err)
    }
    defer reader.Close()
    var stored models.ClassificationResult
    if err := json.NewDecoder(reader).Decode(&stored); err != nil {
        t.Fatalf("decode stored result: %v", err)
    }
    if stored.CEFRLevel != record.CEFRLevel {
        t.Fatalf("stored level %q != appended level %q", stored.CEFRLevel, record.CEFRLevel)
    }

    status, err := q.GetTaskStatus(context.Background(), "task-1")
    if err != nil {
        t.Fatalf("final status missing: %v", err)
    }
    if status.Status != "completed" {
        t.Fatalf("final status = %q", status.Status)
    }
}

func TestHandleGradingMissingPayload(t *testing.T) {
    svc, _ := newTestService(t, newMemStorage(), newMemQueue(), &memSource{})

    if err := svc.HandleGrading(context.Background(), &queue.Task{}); err == nil {
        t.Fatal("expected error for task without payload")
    }
}

func TestGradeStreamUnsupportedExtension(t *testing.T) {
    svc, _ := newTestService(t, newMemStorage(), newMemQueue(), &memSource{})

    record := svc.gradeStream(context.Background(), strings.NewReader("hello"), "notes.txt")
    if record.Error == "" {
        t.Fatal("expected error-tagged record for unsupported extension")
    }
    if record.Filename != "notes.txt" {
        t.Fatalf("filename = %q", record.Filename)
    }
    if !strings.HasPrefix(record.Justification, "not graded:") {
        t.Fatalf("justification = %q", record.Justification)
    }
}

func TestGradeStreamCorruptFileRoutesToActivity(t *testing.T) {
    svc, _ := newTestService(t, newMemStorage(), newMemQueue(), &memSource{})

    // not a zip, so extraction fails and the empty sample takes the
    // activity/illustrated branch
    record := svc.gradeStream(context.Background(), strings.NewReader("garbage"), "broken.epub")
    if record.Error != "" {
        t.Fatalf("corrupt file should degrade, not error: %q", record.Error)
    }
    if record.BookType != models.ActivityIllustrated {
        t.Fatalf("book type = %q, want activity_illustrated", record.BookType)
    }
    if record.CEFRLevel != models.LevelPreA1 {
        t.Fatalf("level = %q", record.CEFRLevel)
    }
}

func TestProcessRemoteKeepsListingOrder(t *testing.T) {
    prose := strings.Repeat("A small bird flew over the green field near the river. ", 20)
    src := &memSource{
        docs: []remote.Document{
            {Key: "books/alpha.epub", Name: "alpha.epub"},
            {Key: "books/broken.epub", Name: "broken.epub"},
            {Key: "books/omega.epub", Name: "omega.epub"},
        },
        files: map[string][]byte{
            "books/alpha.epub": makeEPUB(t, prose),
            "books/omega.epub": makeEPUB(t, prose),
        },
        failKey: "books/broken.epub",
    }

    svc, _ := newTestService(t, newMemStorage(), newMemQueue(), src)
    set := models.NewResultSet()

    records, err := svc.ProcessRemote(context.Background(), "books/", set)
    if err != nil {
        t.Fatalf("ProcessRemote: %v", err)
    }
    if len(records) != 3 {
        t.Fatalf("got %d records, want 3", len(records))
    }

    if records[0].Filename != "alpha.epub" || records[1].Filename != "broken.epub" || records[2].Filename != "omega.epub" {
        t.Fatalf("records out of listing order: %s, %s, %s",
            records[0].Filename, records[1].Filename, records[2].Filename)
    }
    if records[1].Error == "" {
        t.Fatal("fetch failure should produce an error-tagged record")
    }
    if records[0].Error != "" || records[2].Error != "" {
        t.Fatal("healthy documents must not carry error tags")
    }

    if set.Len() != 3 {
        t.Fatalf("result set has %d rows, want 3", set.Len())
    }
    rows := set.Rows()
    for i := range rows {
        if rows[i].Filename != records[i].Filename {
            t.Fatalf("row %d = %q, record %d = %q", i, rows[i].Filename, i, records[i].Filename)
        }
    }
}

func TestExportResultsRebuildsFromStorage(t *testing.T) {
    store := newMemStorage()
    svc, _ := newTestService(t, store, newMemQueue(), &memSource{})

    storeRecord := func(key, filename string) {
        record := cefr.AssembleErrorRecord(filename, "fetch failed", fixedNow(), "cefr-heuristic-v1")
        data, err := json.Marshal(record)
        if err != nil {
            t.Fatalf("marshal: %v", err)
        }
        if _, err := store.Store(context.Background(), bytes.NewReader(data), key); err != nil {
            t.Fatalf("store: %v", err)
        }
    }
    storeRecord(resultPrefix+"b.json", "beta.pdf")
    storeRecord(resultPrefix+"a.json", "alpha.pdf")

    var buf bytes.Buffer
    if err := svc.ExportResults(context.Background(), export.NewCSVSink(&buf)); err != nil {
        t.Fatalf("ExportResults: %v", err)
    }

    lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
    if len(lines) != 3 {
        t.Fatalf("got %d lines, want header + 2 rows", len(lines))
    }
    if !strings.HasPrefix(lines[0], "arquivo,") {
        t.Fatalf("header = %q", lines[0])
    }
    // key order, not insertion order
    if !strings.HasPrefix(lines[1], "alpha.pdf,") {
        t.Fatalf("first row = %q", lines[1])
    }
    if !strings.HasPrefix(lines[2], "beta.pdf,") {
        t.Fatalf("second row = %q", lines[2])
    }
}

func TestGetResultRequiresCompletion(t *testing.T) {
    store := newMemStorage()
    q := newMemQueue()
    svc, _ := newTestService(t, store, q, &memSource{})

    q.SaveFinalStatus(context.Background(), &queue.TaskStatus{
        TaskID: "task-pending",
        Status: "pending",
    })

    if _, err := svc.GetResult(context.Background(), "task-pending"); err == nil {
        t.Fatal("expected error for incomplete task")
    }

    record := cefr.AssembleErrorRecord("x.pdf", "boom", fixedNow(), "cefr-heuristic-v1")
    data, _ := json.Marshal(record)
    store.Store(context.Background(), bytes.NewReader(data), resultPrefix+"task-done.json")
    q.SaveFinalStatus(context.Background(), &queue.TaskStatus{
        TaskID: "task-done",
        Status: "completed",
    })

    got, err := svc.GetResult(context.Background(), "task-done")
    if err != nil {
        t.Fatalf("GetResult: %v", err)
    }
    if got.Filename != "x.pdf" {
        t.Fatalf("filename = %q", got.Filename)
    }
}
