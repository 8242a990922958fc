package aem

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// RemoveProperties deletes props from the node at nodePath using the Sling @Delete suffix.
func (api *API) RemoveProperties(ctx context.Context, nodePath string, props []string) error {
	if len(props) == 0 {
		return fmt.Errorf("aem: no properties given to remove from %s", nodePath)
	}

	ep, err := api.nodeEndpoint(nodePath)
	if err != nil {
		return err
	}

	form := url.Values{}
	for _, p := range props {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		form.Set(p+"@Delete", "")
	}

	resp, err := api.post(ctx, ep, "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	if err != nil {
		return &AssetError{Op: "remove properties", Path: nodePath, URL: ep.String(), Err: err}
	}
	if !isSuccess(resp.StatusCode) {
		return &AssetError{
			Op:         "remove properties",
			Path:       nodePath,
			URL:        ep.String(),
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       resp.Body,
		}
	}

	return nil
}
