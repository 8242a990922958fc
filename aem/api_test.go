package aem

import (
	"context"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedRequest struct {
	Method   string
	Path     string
	User     string
	Password string
	Form     map[string][]string

	FileName        string
	FileContentType string
	FileBody        string
}

// fakeRepository records every request and answers with status.
type fakeRepository struct {
	mu       sync.Mutex
	requests []capturedRequest
	status   int
	body     string
}

func (f *fakeRepository) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c := capturedRequest{Method: r.Method, Path: r.URL.Path}
	c.User, c.Password, _ = r.BasicAuth()

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "multipart/form-data":
		if err := r.ParseMultipartForm(1 << 20); err == nil {
			c.Form = r.MultipartForm.Value
			if fhs := r.MultipartForm.File["file"]; len(fhs) == 1 {
				c.FileName = fhs[0].Filename
				c.FileContentType = fhs[0].Header.Get("Content-Type")
				if fh, err := fhs[0].Open(); err == nil {
					b, _ := io.ReadAll(fh)
					c.FileBody = string(b)
					fh.Close()
				}
			}
		}
	default:
		if err := r.ParseForm(); err == nil {
			c.Form = r.PostForm
		}
	}

	f.mu.Lock()
	f.requests = append(f.requests, c)
	status := f.status
	f.mu.Unlock()

	if status == 0 {
		status = http.StatusCreated
	}
	w.WriteHeader(status)
	io.WriteString(w, f.body)
}

func newTestAPI(t *testing.T, repo http.Handler) *API {
	t.Helper()
	srv := httptest.NewServer(repo)
	t.Cleanup(srv.Close)

	api, err := NewAPI(Server{Host: srv.URL, Username: "admin", Password: "admin"})
	require.NoError(t, err)
	return api
}

func TestServerURL(t *testing.T) {
	tests := []struct {
		host, path, want string
	}{
		{"http://localhost:4502", "/content/dam/site", "http://localhost:4502/content/dam/site"},
		{"localhost:4502", "/content/dam/site", "http://localhost:4502/content/dam/site"},
		{"", "/content/dam", "http://localhost:4502/content/dam"},
		{"https://author.example.com", "/content/dam/my folder", "https://author.example.com/content/dam/my%20folder"},
		{"http://localhost:4502", "/content/dam/a#b", "http://localhost:4502/content/dam/a%23b"},
	}
	for _, tt := range tests {
		got, err := Server{Host: tt.host}.URL(tt.path)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "host=%q path=%q", tt.host, tt.path)
	}
}

func TestServerIdentity(t *testing.T) {
	assert.Equal(t, "prod", Server{Name: "prod", Host: "http://x"}.Identity())
	assert.Equal(t, "http://x", Server{Host: "http://x"}.Identity())
	assert.Equal(t, DefaultHost, Server{}.Identity())
}

func TestNewAPI_requiresUsername(t *testing.T) {
	_, err := NewAPI(Server{Host: "http://localhost:4502"})
	require.Error(t, err)
}

func TestCreateFolder(t *testing.T) {
	repo := &fakeRepository{}
	api := newTestAPI(t, repo)

	require.NoError(t, api.CreateFolder(context.Background(), "/content/dam/site", false))

	require.Len(t, repo.requests, 1)
	req := repo.requests[0]
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/content/dam/site", req.Path)
	assert.Equal(t, "admin", req.User)
	assert.Equal(t, "admin", req.Password)
	assert.Equal(t, []string{"sling:OrderedFolder"}, req.Form["jcr:primaryType"])
}

func TestCreateFolder_dryRun(t *testing.T) {
	repo := &fakeRepository{}
	api := newTestAPI(t, repo)

	require.NoError(t, api.CreateFolder(context.Background(), "/content/dam/site", true))
	assert.Empty(t, repo.requests)
}

func TestCreateFolder_serverError(t *testing.T) {
	repo := &fakeRepository{
		status: http.StatusInternalServerError,
		body:   "<html><body><h1>Status 500</h1><p>javax.jcr.RepositoryException: boom</p></body></html>",
	}
	api := newTestAPI(t, repo)

	err := api.CreateFolder(context.Background(), "/content/dam/site", false)
	require.Error(t, err)

	var ae *AssetError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, http.StatusInternalServerError, ae.StatusCode)
	assert.Contains(t, ae.URL, "/content/dam/site")
	assert.Contains(t, err.Error(), "javax.jcr.RepositoryException: boom")
	assert.NotContains(t, err.Error(), "<p>")
	assert.True(t, IsAssetError(err))
}

func TestCreateFolder_acceptsOK(t *testing.T) {
	repo := &fakeRepository{status: http.StatusOK}
	api := newTestAPI(t, repo)

	require.NoError(t, api.CreateFolder(context.Background(), "/content/dam/site", false))
}

func TestCreateFolder_rejectsRelativePath(t *testing.T) {
	api := newTestAPI(t, &fakeRepository{})
	require.Error(t, api.CreateFolder(context.Background(), "content/dam", false))
}

func TestCreateFolder_connectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	host := srv.URL
	srv.Close()

	api, err := NewAPI(Server{Host: host, Username: "admin"})
	require.NoError(t, err)

	err = api.CreateFolder(context.Background(), "/content/dam/site", false)
	require.Error(t, err)

	var ae *AssetError
	require.ErrorAs(t, err, &ae)
	assert.NotNil(t, ae.Err)
	assert.Zero(t, ae.StatusCode)
}

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	return p
}

func TestCreateAsset(t *testing.T) {
	repo := &fakeRepository{}
	api := newTestAPI(t, repo)
	local := writeTempFile(t, "a.png", "not really a png")

	require.NoError(t, api.CreateAsset(context.Background(), local, "/content/dam/site", false))

	require.Len(t, repo.requests, 1)
	req := repo.requests[0]
	assert.Equal(t, "/content/dam/site.createasset.html", req.Path)
	assert.Equal(t, "a.png", req.FileName)
	assert.Equal(t, "image/png", req.FileContentType)
	assert.Equal(t, "not really a png", req.FileBody)
	assert.Equal(t, []string{"a.png"}, req.Form["fileName"])
	assert.Equal(t, "admin", req.User)
}

func TestCreateAsset_unknownExtension(t *testing.T) {
	repo := &fakeRepository{}
	api := newTestAPI(t, repo)
	local := writeTempFile(t, "blob.unknownext", "x")

	require.NoError(t, api.CreateAsset(context.Background(), local, "/content/dam/site", false))
	require.Len(t, repo.requests, 1)
	assert.Equal(t, "application/octet-stream", repo.requests[0].FileContentType)
}

func TestCreateAsset_dryRun(t *testing.T) {
	repo := &fakeRepository{}
	api := newTestAPI(t, repo)

	// dry run must not even touch the file
	require.NoError(t, api.CreateAsset(context.Background(), "/nonexistent/a.png", "/content/dam/site", true))
	assert.Empty(t, repo.requests)
}

func TestCreateAsset_serverError(t *testing.T) {
	repo := &fakeRepository{status: http.StatusForbidden, body: "denied"}
	api := newTestAPI(t, repo)
	local := writeTempFile(t, "a.png", "x")

	err := api.CreateAsset(context.Background(), local, "/content/dam/site", false)

	var ae *AssetError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, http.StatusForbidden, ae.StatusCode)
	assert.Equal(t, local, ae.Path)
	assert.Contains(t, err.Error(), "denied")
}

func TestCreateAsset_missingLocalFile(t *testing.T) {
	repo := &fakeRepository{}
	api := newTestAPI(t, repo)

	err := api.CreateAsset(context.Background(), filepath.Join(t.TempDir(), "gone.png"), "/content/dam/site", false)
	require.Error(t, err)
	assert.False(t, IsAssetError(err), "local filesystem errors are not asset errors")
	assert.Empty(t, repo.requests)
}

func TestRemoveProperties(t *testing.T) {
	repo := &fakeRepository{status: http.StatusOK}
	api := newTestAPI(t, repo)

	require.NoError(t, api.RemoveProperties(context.Background(), "/content/path/node", []string{"prop0", "prop1"}))

	require.Len(t, repo.requests, 1)
	req := repo.requests[0]
	assert.Equal(t, "/content/path/node", req.Path)
	assert.Equal(t, map[string][]string{
		"prop0@Delete": {""},
		"prop1@Delete": {""},
	}, req.Form)
}

func TestRemoveProperties_noProps(t *testing.T) {
	api := newTestAPI(t, &fakeRepository{})
	require.Error(t, api.RemoveProperties(context.Background(), "/content/path/node", nil))
}

func TestDetectContentType(t *testing.T) {
	assert.Equal(t, "image/png", DetectContentType("a.png"))
	assert.Equal(t, "image/jpeg", DetectContentType("photo.jpg"))
	assert.Equal(t, "application/octet-stream", DetectContentType("README"))
}

func TestWriteAssetForm_quotesFilename(t *testing.T) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(writeAssetForm(mw, &nopReader{}, `we"ird.png`, "image/png"))
	}()

	mr := multipart.NewReader(pr, mw.Boundary())
	part, err := mr.NextPart()
	require.NoError(t, err)
	assert.Equal(t, "file", part.FormName())
	assert.Equal(t, `we"ird.png`, part.FileName())
	io.Copy(io.Discard, pr)
}

type nopReader struct{}

func (nopReader) Read([]byte) (int, error) { return 0, io.EOF }

func TestReadableBody_truncatesOnRuneBoundary(t *testing.T) {
	// "é" is two bytes, so the limit falls inside a rune
	body := "x" + strings.Repeat("é", maxErrorBody)

	got := readableBody([]byte(body))
	assert.True(t, utf8.ValidString(got))
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.LessOrEqual(t, len(got), maxErrorBody+len("..."))
	assert.Equal(t, body[:maxErrorBody-1], strings.TrimSuffix(got, "..."))
}

func TestAssetError_longBodyStaysValidUTF8(t *testing.T) {
	err := &AssetError{Op: "upload", Path: "/content/dam/a", StatusCode: 500, Status: "500 Internal Server Error",
		Body: []byte(strings.Repeat("日本", maxErrorBody))}
	assert.True(t, utf8.ValidString(err.Error()))
}
