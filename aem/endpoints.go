package aem

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/google/go-querystring/query"
)

const (
	orderedFolderType = "sling:OrderedFolder"
	createAssetSuffix = ".createasset.html"
)

// FolderForm is the Sling POST body that creates an ordered folder at the request path, i.e.
//
//	curl -u admin:admin -F "jcr:primaryType=sling:OrderedFolder" $HOST$dampath
type FolderForm struct {
	PrimaryType string `url:"jcr:primaryType"`
}

func folderFormBody() (string, error) {
	v, err := query.Values(FolderForm{PrimaryType: orderedFolderType})
	if err != nil {
		return "", fmt.Errorf("aem: couldn't encode folder form: %w", err)
	}
	return v.Encode(), nil
}

// createFolderEndpoint is simply the folder's own path; Sling creates the node on POST.
func (api *API) createFolderEndpoint(remotePath string) (*url.URL, error) {
	if remotePath == "" || !strings.HasPrefix(remotePath, "/") {
		return nil, fmt.Errorf("aem: folder path must be absolute, got %q", remotePath)
	}
	return api.resolveEndpoint(remotePath), nil
}

// createAssetEndpoint is the DAM upload servlet selector on the destination folder:
//
//	curl -u admin:admin -F "file=@\"$FILENAME\"" $HOST$dampath.createasset.html
func (api *API) createAssetEndpoint(remoteDir string) (*url.URL, error) {
	if remoteDir == "" || !strings.HasPrefix(remoteDir, "/") {
		return nil, fmt.Errorf("aem: asset folder must be absolute, got %q", remoteDir)
	}
	return api.resolveEndpoint(strings.TrimSuffix(remoteDir, "/") + createAssetSuffix), nil
}

func (api *API) nodeEndpoint(nodePath string) (*url.URL, error) {
	if nodePath == "" || !strings.HasPrefix(nodePath, "/") {
		return nil, fmt.Errorf("aem: node path must be absolute, got %q", nodePath)
	}
	return api.resolveEndpoint(nodePath), nil
}

// Repository paths are used verbatim, so build the reference from a Path rather than parsing it:
// DAM folders may well contain '#', '?' or spaces.
func (api *API) resolveEndpoint(endpoint string) *url.URL {
	return api.BaseURI.ResolveReference(&url.URL{Path: endpoint})
}
