package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/MuthuAjay/contracts-v3/config"
	"github.com/MuthuAjay/contracts-v3/model"
)

// AnalyzerGateway is the HTTP client for the backend analysis API. The
// response shapes are owned entirely by the backend and are passed through
// untyped; coercion happens later in the normalize package.
type AnalyzerGateway struct {
	config     *config.AnalyzerConfig
	httpClient *http.Client
}

func NewAnalyzerGateway(cfg *config.AnalyzerConfig) *AnalyzerGateway {
	return &AnalyzerGateway{
		config: cfg,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
	}
}

// Upload posts a contract file to the backend and returns the extracted
// fields object as-is.
func (g *AnalyzerGateway) Upload(ctx context.Context, fileName string, data []byte, contentType string) (map[string]any, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to build upload form: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("failed to write upload form: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize upload form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.config.APIURL+"/api/upload", &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	g.authorize(req)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("upload failed with status %d: %s", resp.StatusCode, truncate(respBody))
	}

	var fields map[string]any
	if err := json.Unmarshal(respBody, &fields); err != nil {
		return nil, fmt.Errorf("failed to parse upload response: %w, body: %s", err, truncate(respBody))
	}

	return fields, nil
}

// Analyze posts the extracted fields merged with {type, custom_query} and
// returns the opaque result.
func (g *AnalyzerGateway) Analyze(ctx context.Context, extractedData map[string]any, typ model.AnalysisType, customQuery string) (any, error) {
	payload := make(map[string]any, len(extractedData)+2)
	for k, v := range extractedData {
		payload[k] = v
	}
	payload["type"] = string(typ)
	payload["custom_query"] = customQuery

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.config.APIURL+"/api/analyze", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	g.authorize(req)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("analyze failed with status %d: %s", resp.StatusCode, truncate(respBody))
	}

	var result any
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to parse analyze response: %w, body: %s", err, truncate(respBody))
	}

	return result, nil
}

func (g *AnalyzerGateway) authorize(req *http.Request) {
	if g.config.APIToken != "" {
		req.Header.Set("Authorization", "Bearer "+g.config.APIToken)
	}
}

func truncate(body []byte) string {
	const limit = 512
	if len(body) > limit {
		return string(body[:limit]) + "..."
	}
	return string(body)
}
