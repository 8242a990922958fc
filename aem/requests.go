package aem

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

type response struct {
	StatusCode int
	Status     string
	Body       []byte
}

// post implements the basic POST; it only fails when no response could be had at all.  Status
// checking is left to the caller.
func (api *API) post(ctx context.Context, ep *url.URL, contentType string, body io.Reader) (*response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ep.String(), body)
	if err != nil {
		return nil, fmt.Errorf("aem: couldn't instantiate http request: %w", err)
	}

	req.Header.Set("Content-Type", contentType)
	req.Header.Add("Accept", "text/html, application/json, */*")

	if api.Server.Username != "" {
		req.SetBasicAuth(api.Server.Username, api.Server.Password)
	}

	api.log().Debug("POSTing", "url", ep.String())

	resp, err := api.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("aem: couldn't perform http request: %w", err)
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		resp.Body.Close()
		return nil, fmt.Errorf("aem: couldn't read http response body: %w", err)
	}

	if err := resp.Body.Close(); err != nil {
		return nil, fmt.Errorf("aem: couldn't close response body: %w", err)
	}

	return &response{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       b,
	}, nil
}
