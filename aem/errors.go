package aem

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	md "github.com/JohannesKaufmann/html-to-markdown"
)

const maxErrorBody = 2048

// AssetError is a failed repository operation: either the request never got an answer (Err is
// set) or the server answered outside the success set.
type AssetError struct {
	Op         string // "create folder", "upload", "remove properties"
	Path       string // local file or repository path the operation was about
	URL        string
	StatusCode int
	Status     string
	Body       []byte
	Err        error
}

func (e *AssetError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "aem: failed to %s %s", e.Op, e.Path)
	if e.URL != "" && e.URL != e.Path {
		fmt.Fprintf(&b, " (%s)", e.URL)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	} else {
		fmt.Fprintf(&b, ": %s", e.Status)
	}
	if body := readableBody(e.Body); body != "" {
		b.WriteString("\n")
		b.WriteString(body)
	}
	return b.String()
}

func (e *AssetError) Unwrap() error { return e.Err }

// IsAssetError reports whether err is (or wraps) an AssetError.
func IsAssetError(err error) bool {
	var ae *AssetError
	return errors.As(err, &ae)
}

// Sling answers failures with an HTML status page; turn it into something that reads well in a
// terminal.
func readableBody(body []byte) string {
	s := strings.TrimSpace(string(body))
	if s == "" {
		return ""
	}

	if looksLikeHTML(s) {
		converter := md.NewConverter("", true, nil)
		if text, err := converter.ConvertString(s); err == nil {
			s = strings.TrimSpace(text)
		}
	}

	return truncate(s, maxErrorBody)
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}

func looksLikeHTML(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "<!doctype html") ||
		strings.Contains(lower, "<html") ||
		strings.Contains(lower, "<body")
}

func isSuccess(statusCode int) bool {
	return statusCode == 200 || statusCode == 201
}
