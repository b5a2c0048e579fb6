package openai

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/kirillkom/security-plan-auditor/internal/core/domain"
	"github.com/kirillkom/security-plan-auditor/internal/core/ports"
	"github.com/kirillkom/security-plan-auditor/internal/core/reportschema"
	"github.com/kirillkom/security-plan-auditor/internal/infrastructure/llm"
	"github.com/kirillkom/security-plan-auditor/internal/infrastructure/resilience"
)

const (
	ProviderName = "openai"
	DefaultModel = "gpt-4o-mini"
	operation    = "openai.chat_completion"
	schemaName   = "security_audit_report"
)

type Options struct {
	APIKey string
	Model  string
	// BaseURL points at any OpenAI-compatible endpoint.
	BaseURL    string
	HTTPClient *http.Client
	Executor   *resilience.Executor
	Extractor  ports.PDFTextExtractor
}

// Client generates audit reports through the chat completions API with a
// declared JSON schema response format.
type Client struct {
	opts   Options
	client *goopenai.Client
}

func New(opts Options) *Client {
	if strings.TrimSpace(opts.Model) == "" {
		opts.Model = DefaultModel
	}
	cfg := goopenai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	}
	if opts.HTTPClient != nil {
		cfg.HTTPClient = opts.HTTPClient
	}
	return &Client{opts: opts, client: goopenai.NewClientWithConfig(cfg)}
}

func (c *Client) Name() string  { return ProviderName }
func (c *Client) Model() string { return c.opts.Model }

func (c *Client) GenerateReport(ctx context.Context, input domain.AuditInput) (string, error) {
	if err := domain.ValidateAPIKey(c.opts.APIKey); err != nil {
		return "", err
	}
	userText, err := llm.UserText(ctx, input, c.opts.Extractor)
	if err != nil {
		return "", err
	}

	req := goopenai.ChatCompletionRequest{
		Model:       c.opts.Model,
		Temperature: llm.Temperature,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: llm.SystemInstruction()},
			{Role: goopenai.ChatMessageRoleUser, Content: userText},
		},
		ResponseFormat: &goopenai.ChatCompletionResponseFormat{
			Type: goopenai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &goopenai.ChatCompletionResponseFormatJSONSchema{
				Name:   schemaName,
				Schema: reportschema.Report(),
			},
		},
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
		resp, err := c.client.CreateChatCompletion(ctx, req)
		if err != nil {
			return err
		}
		if len(resp.Choices) > 0 {
			text = resp.Choices[0].Message.Content
		}
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

func statusCode(err error) int {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}
