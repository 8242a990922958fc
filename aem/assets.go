package aem

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"
)

// CreateFolder creates an ordered folder at remotePath.  The server is free to answer a
// duplicate create with success; only a status outside {200, 201} is an error.
func (api *API) CreateFolder(ctx context.Context, remotePath string, dryRun bool) error {
	if dryRun {
		api.log().Debug("Skipping creating folder, dry run", "path", remotePath)
		return nil
	}

	ep, err := api.createFolderEndpoint(remotePath)
	if err != nil {
		return err
	}

	form, err := folderFormBody()
	if err != nil {
		return err
	}

	resp, err := api.post(ctx, ep, "application/x-www-form-urlencoded", strings.NewReader(form))
	if err != nil {
		return &AssetError{Op: "create folder", Path: remotePath, URL: ep.String(), Err: err}
	}
	if !isSuccess(resp.StatusCode) {
		return &AssetError{
			Op:         "create folder",
			Path:       remotePath,
			URL:        ep.String(),
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       resp.Body,
		}
	}

	return nil
}

// CreateAsset streams localPath into remoteDir through the createasset servlet.
func (api *API) CreateAsset(ctx context.Context, localPath, remoteDir string, dryRun bool) error {
	if dryRun {
		return nil
	}

	ep, err := api.createAssetEndpoint(remoteDir)
	if err != nil {
		return err
	}

	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("aem: couldn't open %s: %w", localPath, err)
	}
	defer f.Close()

	filename := filepath.Base(localPath)
	contentType := DetectContentType(filename)
	api.log().Debug("Uploading", "file", localPath, "mime", contentType)

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	var grp errgroup.Group
	grp.Go(func() error {
		err := writeAssetForm(mw, f, filename, contentType)
		pw.CloseWithError(err)
		return err
	})

	resp, reqErr := api.post(ctx, ep, mw.FormDataContentType(), pr)
	// unblocks the writer if the server stopped reading early
	pr.Close()

	if writeErr := grp.Wait(); writeErr != nil && !errors.Is(writeErr, io.ErrClosedPipe) {
		return fmt.Errorf("aem: couldn't read %s: %w", localPath, writeErr)
	}

	if reqErr != nil {
		return &AssetError{Op: "upload", Path: localPath, URL: ep.String(), Err: reqErr}
	}
	if !isSuccess(resp.StatusCode) {
		return &AssetError{
			Op:         "upload",
			Path:       localPath,
			URL:        ep.String(),
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       resp.Body,
		}
	}

	return nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func writeAssetForm(mw *multipart.Writer, r io.Reader, filename, contentType string) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(filename)))
	h.Set("Content-Type", contentType)

	part, err := mw.CreatePart(h)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, r); err != nil {
		return err
	}

	if err := mw.WriteField("fileName", filename); err != nil {
		return err
	}

	return mw.Close()
}
