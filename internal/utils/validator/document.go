package validator

import (
    "bytes"
    "fmt"
    "io"
    "mime/multipart"
    "path/filepath"
    "strings"
)

// Magic prefixes for the supported containers. EPUB is a zip archive, so it
// shares the zip signature.
var magicPrefixes = map[string][]byte{
    ".pdf":  []byte("%PDF"),
    ".epub": []byte("PK\x03\x04"),
}

// ValidateUpload checks size, extension and the file's magic bytes. The
// reader inside header is reopened, so the caller's own handle is untouched.
func ValidateUpload(header *multipart.FileHeader, maxSize int64, allowedTypes []string) error {
    if header.Size > maxSize {
        return fmt.Errorf("file size exceeds maximum limit of %d bytes", maxSize)
    }

    ext := strings.ToLower(filepath.Ext(header.Filename))
    if !extAllowed(ext, allowedTypes) {
        return fmt.Errorf("unsupported file type: %s", ext)
    }

    magic, ok := magicPrefixes[ext]
    if !ok {
        return nil
    }

    f, err := header.Open()
    if err != nil {
        return fmt.Errorf("failed to open upload: %w", err)
    }
    defer f.Close()

    prefix := make([]byte, len(magic))
    if _, err := io.ReadFull(f, prefix); err != nil {
        return fmt.Errorf("file too short to be a %s document", ext)
    }
    if !bytes.Equal(prefix, magic) {
        return fmt.Errorf("file content does not match %s signature", ext)
    }

    return nil
}

func extAllowed(ext string, allowedTypes []string) bool {
    for _, t := range allowedTypes {
        if strings.EqualFold(t, ext) {
            return true
        }
    }
    return false
}
