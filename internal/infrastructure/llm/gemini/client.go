package gemini

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"google.golang.org/genai"

	"github.com/kirillkom/security-plan-auditor/internal/core/domain"
	"github.com/kirillkom/security-plan-auditor/internal/core/reportschema"
	"github.com/kirillkom/security-plan-auditor/internal/infrastructure/llm"
	"github.com/kirillkom/security-plan-auditor/internal/infrastructure/resilience"
)

const (
	ProviderName = "gemini"
	DefaultModel = "gemini-2.5-flash"
	operation    = "gemini.generate_content"
)

type Options struct {
	APIKey string
	Model  string
	// BaseURL overrides the Gemini endpoint.
	BaseURL    string
	HTTPClient *http.Client
	Executor   *resilience.Executor
}

// Client generates audit reports with the Gemini API, sending PDFs inline.
type Client struct {
	opts   Options
	schema *genai.Schema

	mu     sync.Mutex
	models *genai.Models
}

func New(opts Options) *Client {
	if strings.TrimSpace(opts.Model) == "" {
		opts.Model = DefaultModel
	}
	return &Client{
		opts:   opts,
		schema: toGenaiSchema(reportschema.Report()),
	}
}

func (c *Client) Name() string  { return ProviderName }
func (c *Client) Model() string { return c.opts.Model }

func (c *Client) GenerateReport(ctx context.Context, input domain.AuditInput) (string, error) {
	if err := domain.ValidateAPIKey(c.opts.APIKey); err != nil {
		return "", err
	}
	models, err := c.client(ctx)
	if err != nil {
		return "", err
	}

	parts, err := buildParts(input)
	if err != nil {
		return "", err
	}
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(llm.SystemInstruction(), genai.RoleUser),
		Temperature:       genai.Ptr(llm.Temperature),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    c.schema,
	}

	slog.Info("audit_request_started",
		"provider", ProviderName,
		"model", c.opts.Model,
		"input_kind", string(input.Kind()),
		"api_key_length", len(c.opts.APIKey),
	)
	start := time.Now()

	var text string
	call := func(ctx context.Context) error {
		resp, err := models.GenerateContent(ctx, c.opts.Model, []*genai.Content{
			genai.NewContentFromParts(parts, genai.RoleUser),
		}, config)
		if err != nil {
			return err
		}
		text = resp.Text()
		return nil
	}

	if c.opts.Executor != nil {
		err = c.opts.Executor.Execute(ctx, operation, call, llm.Classify(statusCode))
	} else {
		err = call(ctx)
	}
	if err != nil {
		slog.Error("audit_request_failed", "provider", ProviderName, "error", err,
			"duration_ms", float64(time.Since(start).Microseconds())/1000.0)
		return "", llm.MapFailure(operation, statusCode(err), err)
	}

	slog.Info("audit_request_finished", "provider", ProviderName, "response_chars", len(text),
		"duration_ms", float64(time.Since(start).Microseconds())/1000.0)
	return text, nil
}

func (c *Client) client(ctx context.Context) (*genai.Models, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.models != nil {
		return c.models, nil
	}

	cfg := &genai.ClientConfig{
		APIKey:     c.opts.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: c.opts.HTTPClient,
	}
	if c.opts.BaseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: c.opts.BaseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, domain.WrapError(domain.ErrConfigurationInvalid, "create gemini client", err)
	}
	c.models = client.Models
	return c.models, nil
}

func buildParts(input domain.AuditInput) ([]*genai.Part, error) {
	switch v := input.(type) {
	case domain.PDFInput:
		data, err := base64.StdEncoding.DecodeString(v.Data)
		if err != nil {
			return nil, domain.WrapError(domain.ErrInvalidInput, "decode pdf payload", err)
		}
		return []*genai.Part{genai.NewPartFromBytes(data, domain.PDFMimeType)}, nil
	case domain.TextInput:
		return []*genai.Part{genai.NewPartFromText(llm.PlanText(v.Content))}, nil
	default:
		return nil, domain.WrapError(domain.ErrInvalidInput, "build gemini parts", fmt.Errorf("unsupported input %T", input))
	}
}

func statusCode(err error) int {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code
	}
	return 0
}
