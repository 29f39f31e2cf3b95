// Package gateway implements the remote side of a document session over the
// collaboration host's REST API.
//
// Every operation returns a normalized [docsession.Result]: HTTP-level
// failures are reported through the status field, never as errors. Only a
// transport failure, where no response was received at all, surfaces as an
// error. There are no retries and no timeouts beyond what the supplied
// http.Client and context impose.
package gateway

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	docsession "github.com/collabhost/docsession.go"
	"github.com/collabhost/docsession.go/internal/codec"
	"github.com/collabhost/docsession.go/internal/rand"
	"github.com/collabhost/docsession.go/pkg/logger"
)

const requestIDLength = 16

// Params configures an HTTP gateway. BaseURL is required and carries no
// trailing slash, e.g. "https://host.example.com/api/v2".
type Params struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     logger.Logger
}

// HTTP talks to the host REST API. Instances are safe for concurrent use.
type HTTP struct {
	baseURL     string
	httpClient  *http.Client
	marshaler   codec.Marshaler
	unmarshaler codec.Unmarshaler
	logger      logger.Logger
}

func New(p Params) (*HTTP, error) {
	if p.BaseURL == "" {
		return nil, fmt.Errorf("base url not set")
	}

	httpClient := p.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	jsonCodec := codec.JSON{}

	return &HTTP{
		baseURL:     p.BaseURL,
		httpClient:  httpClient,
		marshaler:   jsonCodec,
		unmarshaler: jsonCodec,
		logger:      p.Logger,
	}, nil
}

// GetContent fetches the current content snapshot.
func (g *HTTP) GetContent(ctx context.Context, workspaceID, contentID int) (docsession.Result[docsession.Content], error) {
	var body docsession.Content
	status, err := g.do(ctx, http.MethodGet,
		fmt.Sprintf("/workspaces/%d/html-documents/%d", workspaceID, contentID), nil, &body)
	return docsession.Result[docsession.Content]{Status: status, Body: body}, err
}

// GetComments fetches the ordered comment list.
func (g *HTTP) GetComments(ctx context.Context, workspaceID, contentID int) (docsession.Result[[]docsession.Comment], error) {
	var body []docsession.Comment
	status, err := g.do(ctx, http.MethodGet,
		fmt.Sprintf("/workspaces/%d/contents/%d/comments", workspaceID, contentID), nil, &body)
	return docsession.Result[[]docsession.Comment]{Status: status, Body: body}, err
}

// GetRevisions fetches the ordered revision list.
func (g *HTTP) GetRevisions(ctx context.Context, workspaceID, contentID int) (docsession.Result[[]docsession.Revision], error) {
	var body []docsession.Revision
	status, err := g.do(ctx, http.MethodGet,
		fmt.Sprintf("/workspaces/%d/html-documents/%d/revisions", workspaceID, contentID), nil, &body)
	return docsession.Result[[]docsession.Revision]{Status: status, Body: body}, err
}

// PostComment posts text as a new comment on the content.
func (g *HTTP) PostComment(ctx context.Context, workspaceID, contentID int, text string) (docsession.Result[docsession.Comment], error) {
	payload := map[string]string{"raw_content": text}
	var body docsession.Comment
	status, err := g.do(ctx, http.MethodPost,
		fmt.Sprintf("/workspaces/%d/contents/%d/comments", workspaceID, contentID), payload, &body)
	return docsession.Result[docsession.Comment]{Status: status, Body: body}, err
}

// PutContent writes a new title and body, creating a new version remotely.
func (g *HTTP) PutContent(ctx context.Context, workspaceID, contentID int, label, rawContent string) (docsession.Result[docsession.Content], error) {
	payload := map[string]string{"label": label, "raw_content": rawContent}
	var body docsession.Content
	status, err := g.do(ctx, http.MethodPut,
		fmt.Sprintf("/workspaces/%d/html-documents/%d", workspaceID, contentID), payload, &body)
	return docsession.Result[docsession.Content]{Status: status, Body: body}, err
}

// PutStatus writes a new workflow status. The host answers 204 on success.
func (g *HTTP) PutStatus(ctx context.Context, workspaceID, contentID int, status string) (docsession.Result[struct{}], error) {
	payload := map[string]string{"status": status}
	code, err := g.do(ctx, http.MethodPut,
		fmt.Sprintf("/workspaces/%d/html-documents/%d/status", workspaceID, contentID), payload, nil)
	return docsession.Result[struct{}]{Status: code}, err
}

// do performs one request and decodes a 2xx body into out when out is
// non-nil. Non-2xx responses are not decoded and not errors; the status
// alone is returned.
func (g *HTTP) do(ctx context.Context, method, path string, reqBody, out any) (int, error) {
	var bodyReader io.Reader
	if reqBody != nil {
		data, err := g.marshaler.Marshal(reqBody)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, bodyReader)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", rand.NewRequestID(requestIDLength))

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if g.logger != nil {
			g.logger.Debug("remote answered non-success",
				"method", method, "path", path, "status", resp.StatusCode)
		}
		return resp.StatusCode, nil
	}

	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := g.unmarshaler.Unmarshal(respBytes, out); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return resp.StatusCode, nil
}
