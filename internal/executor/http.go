package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/kode4food/remedy/pkg/api"
	"github.com/kode4food/remedy/pkg/log"
)

// HTTPExecutor posts each step to a remediation gateway endpoint named after
// the step type
type HTTPExecutor struct {
	httpClient *http.Client
	baseURL    string
}

var (
	ErrHTTPError      = errors.New("step returned HTTP error")
	ErrMissingStep    = errors.New("step request has no step")
	ErrInvalidBaseURL = errors.New("invalid executor base URL")
)

var _ StepExecutor = (*HTTPExecutor)(nil)

// NewHTTPExecutor creates an executor for the gateway at baseURL. The
// timeout bounds each request independently of the engine's step deadline
func NewHTTPExecutor(baseURL string, timeout time.Duration) *HTTPExecutor {
	return &HTTPExecutor{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Endpoint returns the URL a step of the given type is posted to
func (e *HTTPExecutor) Endpoint(typ api.StepType) string {
	return e.baseURL + "/" + string(typ)
}

// Run posts the request and converts the gateway's StepResult into an
// Outcome
func (e *HTTPExecutor) Run(
	ctx context.Context, req *api.StepRequest,
) (api.Outcome, error) {
	if req == nil || req.Step == nil {
		return api.Outcome{}, ErrMissingStep
	}
	if e.baseURL == "" {
		return api.Outcome{}, ErrInvalidBaseURL
	}
	step := req.Step

	body, err := json.Marshal(req)
	if err != nil {
		slog.Error("Failed to marshal step request",
			log.StepOrder(step.Order),
			log.Error(err))
		return api.Outcome{}, err
	}

	httpReq, err := http.NewRequestWithContext(
		ctx, "POST", e.Endpoint(step.Type), bytes.NewBuffer(body),
	)
	if err != nil {
		slog.Error("Failed to create HTTP request",
			log.StepOrder(step.Order),
			log.Error(err))
		return api.Outcome{}, err
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", "Remedy-Engine/1.0")

	start := time.Now()
	resp, err := e.httpClient.Do(httpReq)
	dur := time.Since(start)

	if err != nil {
		slog.Error("HTTP request failed",
			log.RunID(req.RunID),
			log.StepOrder(step.Order),
			log.StepType(step.Type),
			slog.Duration("duration", dur),
			log.Error(err))
		return api.Outcome{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		slog.Error("Failed to read response body",
			log.StepOrder(step.Order),
			log.Error(err))
		return api.Outcome{}, err
	}

	if resp.StatusCode != http.StatusOK {
		slog.Error("HTTP error",
			log.RunID(req.RunID),
			log.StepOrder(step.Order),
			slog.Int("status_code", resp.StatusCode),
			slog.String("response_body", string(respBody)))
		return api.Outcome{}, fmt.Errorf("%w: HTTP %d",
			ErrHTTPError, resp.StatusCode)
	}

	var result api.StepResult
	if err := json.Unmarshal(respBody, &result); err != nil {
		slog.Error("Failed to unmarshal response",
			log.StepOrder(step.Order),
			log.Error(err))
		return api.Outcome{}, err
	}

	slog.Debug("Step gateway responded",
		log.RunID(req.RunID),
		log.StepOrder(step.Order),
		slog.Bool("success", result.Success),
		slog.Duration("duration", dur))

	return result.Outcome(), nil
}
