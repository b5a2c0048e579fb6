package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/security-plan-auditor/internal/core/domain"
	"github.com/kirillkom/security-plan-auditor/internal/core/ports"
	"github.com/kirillkom/security-plan-auditor/internal/core/reportschema"
	"github.com/kirillkom/security-plan-auditor/internal/infrastructure/llm"
	"github.com/kirillkom/security-plan-auditor/internal/infrastructure/resilience"
)

const (
	ProviderName = "ollama"
	DefaultModel = "llama3.1:8b"
	operation    = "ollama.generate"
)

type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
	executor   *resilience.Executor
	extractor  ports.PDFTextExtractor
	schema     json.RawMessage
}

func New(baseURL, model string, executor *resilience.Executor, extractor ports.PDFTextExtractor) (*Client, error) {
	if strings.TrimSpace(model) == "" {
		model = DefaultModel
	}
	schema, err := reportschema.JSON()
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: 300 * time.Second},
		executor:   executor,
		extractor:  extractor,
		schema:     schema,
	}, nil
}

func (c *Client) Name() string  { return ProviderName }
func (c *Client) Model() string { return c.model }

// GenerateReport asks the local model for a report. The schema is passed as
// the structured output format and repeated in the system prompt.
func (c *Client) GenerateReport(ctx context.Context, input domain.AuditInput) (string, error) {
	userText, err := llm.UserText(ctx, input, c.extractor)
	if err != nil {
		return "", err
	}

	reqBody := map[string]any{
		"model":   c.model,
		"system":  llm.SystemInstruction() + "\n" + llm.SchemaReminder(c.schema),
		"prompt":  userText,
		"stream":  false,
		"format":  c.schema,
		"options": map[string]any{"temperature": llm.Temperature},
	}

	slog.Info("audit_request_started", "provider", ProviderName, "model", c.model, "input_kind", string(input.Kind()))
	start := time.Now()

	var response struct {
		Response string `json:"response"`
	}
	call := func(ctx context.Context) error {
		return c.postJSON(ctx, "/api/generate", reqBody, &response, "generate")
	}
	if c.executor != nil {
		err = c.executor.Execute(ctx, operation, call, llm.Classify(statusCode))
	} else {
		err = call(ctx)
	}
	if err != nil {
		slog.Error("audit_request_failed", "provider", ProviderName, "error", err,
			"duration_ms", float64(time.Since(start).Microseconds())/1000.0)
		return "", llm.MapFailure(operation, statusCode(err), err)
	}

	slog.Info("audit_request_finished", "provider", ProviderName, "response_chars", len(response.Response),
		"duration_ms", float64(time.Since(start).Microseconds())/1000.0)
	return response.Response, nil
}

type HTTPStatusError struct {
	Operation  string
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	if e == nil {
		return "ollama status error"
	}
	if strings.TrimSpace(e.Body) == "" {
		return fmt.Sprintf("ollama %s status: %s", e.Operation, e.Status)
	}
	return fmt.Sprintf("ollama %s status: %s: %s", e.Operation, e.Status, strings.TrimSpace(e.Body))
}

func statusCode(err error) int {
	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode
	}
	return 0
}
