package actions

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const KindAPICall = "api_call"

const maxResponseBytes = 1 << 20

// APICall performs an outbound HTTP request: {url, method, data, headers}.
// Responses with status >= 400 fail the action.
type APICall struct {
	client *http.Client
}

func NewAPICall(client *http.Client) *APICall {
	if client == nil {
		client = http.DefaultClient
	}
	return &APICall{client: client}
}

func (h *APICall) Execute(ctx context.Context, req Request) (any, error) {
	target, err := requiredString(req.Config, "url")
	if err != nil {
		return nil, err
	}
	parsed, err := url.Parse(target)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return nil, fmt.Errorf("invalid url: %q", target)
	}

	method, err := optionalString(req.Config, "method")
	if err != nil {
		return nil, err
	}
	method = strings.ToUpper(method)
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if data, ok := req.Config["data"]; ok && data != nil && method != http.MethodGet && method != http.MethodHead {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("data: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	headers, err := objectParam(req.Config, "headers")
	if err != nil {
		return nil, err
	}
	for name, value := range headers {
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("header %q must be a string", name)
		}
		httpReq.Header.Set(name, s)
	}

	resp, err := h.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("API call failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("API call failed: reading response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("API call failed with status %d", resp.StatusCode)
	}

	return map[string]any{"status": resp.StatusCode, "data": decodeBody(raw)}, nil
}

// decodeBody returns parsed JSON when the body is JSON, the raw text otherwise.
func decodeBody(raw []byte) any {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err == nil {
		return decoded
	}
	return string(raw)
}
