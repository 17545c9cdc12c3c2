package zerobounce

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/gabriel-vasile/mimetype"
)

// FileSink receives a downloaded result file.
type FileSink interface {
	WriteResultFile(name, contentType string, content []byte) error
}

// DetectResultType sniffs result content: ZIP archives map to ("zip",
// "application/zip"), everything else to ("csv", "text/csv").
func DetectResultType(content []byte) (ext, contentType string) {
	if mimetype.Detect(content).Is("application/zip") {
		return "zip", "application/zip"
	}
	return "csv", "text/csv"
}

var unsafeFileNameChars = regexp.MustCompile(`[^-_A-Za-z0-9.]`)

// SanitizeFileName drops every character outside [-_A-Za-z0-9.].
func SanitizeFileName(name string) string {
	return unsafeFileNameChars.ReplaceAllString(name, "")
}

// HTTPSink serves the result file as an attachment download.
type HTTPSink struct {
	W http.ResponseWriter
}

func (s HTTPSink) WriteResultFile(name, contentType string, content []byte) error {
	h := s.W.Header()
	h.Set("Content-Type", contentType)
	h.Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	h.Set("Expires", "-1")
	h.Set("Cache-Control", "no-cache")
	h.Set("Pragma", "no-cache")
	h.Set("Content-Length", strconv.Itoa(len(content)))
	s.W.WriteHeader(http.StatusOK)
	_, err := s.W.Write(content)
	return err
}

// DirSink writes result files into a directory, creating it if needed.
type DirSink struct {
	Dir string

	// Written is the path of the last file written.
	Written string
}

func (s *DirSink) WriteResultFile(name, _ string, content []byte) error {
	dir := s.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return err
	}
	s.Written = path
	return nil
}
