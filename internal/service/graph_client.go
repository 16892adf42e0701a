package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/maheshrc27/crosspost-api/internal/transfer"
)

// graphClient speaks to the Facebook Graph API. Non-2xx bodies are returned
// as-is so the caller can store them; only transport and decode failures
// are errors.
type graphClient struct {
	baseURL    string
	httpClient *http.Client
}

func newGraphClient(baseURL string) *graphClient {
	return &graphClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

func (g *graphClient) post(ctx context.Context, path string, form url.Values) (transfer.GraphResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint(path), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return g.do(req)
}

func (g *graphClient) get(ctx context.Context, path string, query url.Values) (transfer.GraphResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.endpoint(path)+"?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}
	return g.do(req)
}

func (g *graphClient) endpoint(path string) string {
	return fmt.Sprintf("%s/%s", g.baseURL, strings.TrimPrefix(path, "/"))
}

func (g *graphClient) do(req *http.Request) (transfer.GraphResponse, error) {
	resp, err := g.httpClient.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("graph request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("failed to read graph response: %w", err)
	}

	var result transfer.GraphResponse
	if err := json.Unmarshal(body, &result); err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("failed to decode graph response (status code: %d)", resp.StatusCode)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var graphErr transfer.GraphErrorResponse
		if json.Unmarshal(body, &graphErr) == nil {
			slog.Warn("graph api error",
				"path", req.URL.Path,
				"status", resp.StatusCode,
				"message", graphErr.Error.Message,
				"code", graphErr.Error.Code,
				"fbtrace_id", graphErr.Error.FbtraceID,
			)
		}
	}

	return result, nil
}

// errorResponse is stored in place of a platform response when the call
// never produced one.
func errorResponse(message string) transfer.GraphResponse {
	return transfer.GraphResponse{"error": message}
}
