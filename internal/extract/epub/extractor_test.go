package epub

import (
    "archive/zip"
    "bytes"
    "context"
    "strings"
    "testing"

    "nivelador/pkg/logger"
)

const containerXML = `<?xml version="1.0"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`

const contentOPF = `<?xml version="1.0"?>
<package xmlns="http://www.idpf.org/2007/opf" version="3.0" unique-identifier="uid">
  <manifest>
    <item id="ch1" href="ch1.xhtml" media-type="application/xhtml+xml"/>
    <item id="ch2" href="ch2.xhtml" media-type="application/xhtml+xml"/>
    <item id="css" href="style.css" media-type="text/css"/>
  </manifest>
  <spine>
    <itemref idref="ch2"/>
    <itemref idref="ch1"/>
    <itemref idref="css"/>
  </spine>
</package>`

func buildEPUB(t *testing.T, entries map[string]string) *bytes.Reader {
    t.Helper()

    var buf bytes.Buffer
    w := zip.NewWriter(&buf)
    for name, body := range entries {
        f, err := w.Create(name)
        if err != nil {
            t.Fatalf("failed to add %s: %v", name, err)
        }
        if _, err := f.Write([]byte(body)); err != nil {
            t.Fatalf("failed to write %s: %v", name, err)
        }
    }
    if err := w.Close(); err != nil {
        t.Fatalf("failed to close archive: %v", err)
    }
    return bytes.NewReader(buf.Bytes())
}

func TestExtractFollowsSpineOrder(t *testing.T) {
    r := buildEPUB(t, map[string]string{
        "META-INF/container.xml": containerXML,
        "OEBPS/content.opf":      contentOPF,
        "OEBPS/ch1.xhtml":        "<html><body><p>First chapter text here.</p></body></html>",
        "OEBPS/ch2.xhtml":        "<html><body><p>Second one.</p></body></html>",
        "OEBPS/style.css":        "p { margin: 0 }",
    })

    e := NewExtractor(logger.NewTestLogger())
    sample, err := e.Extract(context.Background(), r)
    if err != nil {
        t.Fatalf("unexpected error: %v", err)
    }

    // Spine lists ch2 before ch1; the css item is skipped.
    if len(sample.WordsPerPage) != 2 {
        t.Fatalf("expected 2 page units, got %d", len(sample.WordsPerPage))
    }
    if sample.WordsPerPage[0] != 2 || sample.WordsPerPage[1] != 4 {
        t.Fatalf("unexpected word counts: %v", sample.WordsPerPage)
    }
    if !strings.HasPrefix(sample.RawText, "Second one.") {
        t.Fatalf("spine order not honored: %q", sample.RawText)
    }
    if strings.Contains(sample.RawText, "<p>") || strings.Contains(sample.RawText, "margin") {
        t.Fatalf("markup leaked into extracted text: %q", sample.RawText)
    }
}

func TestExtractUnescapesEntities(t *testing.T) {
    r := buildEPUB(t, map[string]string{
        "META-INF/container.xml": containerXML,
        "OEBPS/content.opf":      contentOPF,
        "OEBPS/ch1.xhtml":        "<html><body><p>Tom &amp; Jerry don&#8217;t stop.</p></body></html>",
        "OEBPS/ch2.xhtml":        "<html><body><p>Hello.</p></body></html>",
    })

    e := NewExtractor(logger.NewTestLogger())
    sample, err := e.Extract(context.Background(), r)
    if err != nil {
        t.Fatalf("unexpected error: %v", err)
    }
    if !strings.Contains(sample.RawText, "Tom & Jerry") {
        t.Fatalf("entity not unescaped: %q", sample.RawText)
    }
}

func TestExtractMissingContainer(t *testing.T) {
    r := buildEPUB(t, map[string]string{
        "mimetype": "application/epub+zip",
    })

    e := NewExtractor(logger.NewTestLogger())
    if _, err := e.Extract(context.Background(), r); err == nil {
        t.Fatal("expected error for archive without container.xml")
    }
}

func TestExtractNotAZip(t *testing.T) {
    e := NewExtractor(logger.NewTestLogger())
    if _, err := e.Extract(context.Background(), strings.NewReader("plain text, not an epub")); err == nil {
        t.Fatal("expected error for non-zip input")
    }
}

func TestCanProcess(t *testing.T) {
    e := NewExtractor(logger.NewTestLogger())
    if !e.CanProcess(".epub") || !e.CanProcess(".EPUB") {
        t.Fatal("expected .epub to be accepted")
    }
    if e.CanProcess(".pdf") {
        t.Fatal("expected .pdf to be rejected")
    }
}
