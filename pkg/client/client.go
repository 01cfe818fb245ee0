package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kode4food/remedy/pkg/api"
)

type (
	// Client talks to a remedy engine over HTTP
	Client struct {
		httpClient *http.Client
		baseURL    string
	}

	// StatusError is returned when the engine answers with an unexpected
	// HTTP status
	StatusError struct {
		Op      error
		Message string
		Status  int
	}
)

var (
	ErrHealth      = errors.New("failed to check health")
	ErrGetState    = errors.New("failed to get workflow state")
	ErrLoadPlan    = errors.New("failed to load plan")
	ErrExecuteStep = errors.New("failed to execute step")
	ErrRun         = errors.New("failed to start auto execution")
	ErrStop        = errors.New("failed to stop auto execution")
	ErrReset       = errors.New("failed to reset workflow")
	ErrProgress    = errors.New("failed to get progress")
	ErrGetLog      = errors.New("failed to get execution log")
)

const (
	DefaultTimeout = 10 * time.Second

	routeHealth   = "/health"
	routeWorkflow = "/workflow"
	routePlan     = "/workflow/plan"
	routeStep     = "/workflow/step/%d"
	routeRun      = "/workflow/run"
	routeStop     = "/workflow/stop"
	routeReset    = "/workflow/reset"
	routeProgress = "/workflow/progress"
	routeLog      = "/workflow/log"
)

// NewClient creates a client for the engine at baseURL
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Health reports the engine's liveness and derived workflow status
func (c *Client) Health(ctx context.Context) (*api.HealthResponse, error) {
	var res api.HealthResponse
	err := c.do(ctx, ErrHealth, http.MethodGet, c.url(routeHealth), nil,
		&res, http.StatusOK)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// State returns a full snapshot of the engine's workflow
func (c *Client) State(ctx context.Context) (*api.WorkflowState, error) {
	var res api.WorkflowState
	err := c.do(ctx, ErrGetState, http.MethodGet, c.url(routeWorkflow), nil,
		&res, http.StatusOK)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// LoadPlan replaces the engine's plan
func (c *Client) LoadPlan(
	ctx context.Context, plan *api.WorkflowPlan,
) (*api.PlanLoadedResponse, error) {
	data, err := json.Marshal(plan)
	if err != nil {
		return nil, err
	}
	return c.loadPlan(ctx, c.url(routePlan), data)
}

// LoadPlanText sends raw planner output to the engine, which extracts the
// plan itself
func (c *Client) LoadPlanText(
	ctx context.Context, text []byte,
) (*api.PlanLoadedResponse, error) {
	return c.loadPlan(ctx, c.url(routePlan)+"?format=text", text)
}

func (c *Client) loadPlan(
	ctx context.Context, target string, body []byte,
) (*api.PlanLoadedResponse, error) {
	var res api.PlanLoadedResponse
	err := c.do(ctx, ErrLoadPlan, http.MethodPost, target, body,
		&res, http.StatusCreated)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// ExecuteStep asks the engine to run the step at index. The engine accepts
// the request and runs the step in the background
func (c *Client) ExecuteStep(
	ctx context.Context, index int,
) (*api.ExecuteStepResponse, error) {
	var res api.ExecuteStepResponse
	err := c.do(ctx, ErrExecuteStep, http.MethodPost,
		c.url(routeStep, index), nil, &res, http.StatusAccepted)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// Run turns on auto mode starting at the first step that has not succeeded
func (c *Client) Run(ctx context.Context) error {
	return c.do(ctx, ErrRun, http.MethodPost, c.url(routeRun), nil,
		nil, http.StatusAccepted)
}

// Stop turns off auto mode
func (c *Client) Stop(ctx context.Context) error {
	return c.do(ctx, ErrStop, http.MethodPost, c.url(routeStop), nil,
		nil, http.StatusOK)
}

// Reset discards the engine's plan
func (c *Client) Reset(ctx context.Context) error {
	return c.do(ctx, ErrReset, http.MethodPost, c.url(routeReset), nil,
		nil, http.StatusOK)
}

// Progress returns the completion percentage and derived status
func (c *Client) Progress(
	ctx context.Context,
) (*api.ProgressResponse, error) {
	var res api.ProgressResponse
	err := c.do(ctx, ErrProgress, http.MethodGet, c.url(routeProgress), nil,
		&res, http.StatusOK)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// Log returns execution log entries with an id greater than since. Pass 0
// for the whole log
func (c *Client) Log(
	ctx context.Context, since int64,
) (*api.LogResponse, error) {
	target := c.url(routeLog)
	if since > 0 {
		q := url.Values{"since": {strconv.FormatInt(since, 10)}}
		target += "?" + q.Encode()
	}

	var res api.LogResponse
	err := c.do(ctx, ErrGetLog, http.MethodGet, target, nil,
		&res, http.StatusOK)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) do(
	ctx context.Context, op error, method, target string, body []byte,
	out any, expect int,
) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("%w: %w", op, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != expect {
		return newStatusError(op, resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %w", op, err)
	}
	return nil
}

func (c *Client) url(format string, args ...any) string {
	path := fmt.Sprintf(format, args...)
	return c.baseURL + path
}

func newStatusError(op error, resp *http.Response) *StatusError {
	body, _ := io.ReadAll(resp.Body)
	msg := strings.TrimSpace(string(body))

	var er api.ErrorResponse
	if err := json.Unmarshal(body, &er); err == nil && er.Error != "" {
		msg = er.Error
	}

	return &StatusError{
		Op:      op,
		Status:  resp.StatusCode,
		Message: msg,
	}
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", e.Op, e.Status, e.Message)
}

func (e *StatusError) Unwrap() error {
	return e.Op
}

// IsStatus reports whether err is a StatusError carrying the given status
func IsStatus(err error, status int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Status == status
}
