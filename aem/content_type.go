package aem

import (
	"mime"
	"path/filepath"
)

const fallbackContentType = "application/octet-stream"

// DetectContentType guesses a MIME type from the file extension.
func DetectContentType(name string) string {
	if mimeType := mime.TypeByExtension(filepath.Ext(name)); mimeType != "" {
		return mimeType
	}
	return fallbackContentType
}
