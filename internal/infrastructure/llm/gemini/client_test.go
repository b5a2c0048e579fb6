package gemini

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/kirillkom/security-plan-auditor/internal/core/domain"
	"github.com/kirillkom/security-plan-auditor/internal/infrastructure/resilience"
)

const testAPIKey = "AIzaSyTestKey-0123456789"

func candidateBody(text string) string {
	raw, _ := json.Marshal(map[string]any{
		"candidates": []any{
			map[string]any{
				"content": map[string]any{
					"role":  "model",
					"parts": []any{map[string]any{"text": text}},
				},
			},
		},
	})
	return string(raw)
}

func TestGenerateReportRejectsMissingKeyWithoutNetworkCall(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer server.Close()

	for _, key := range []string{"", "   ", "PLACEHOLDER_API_KEY", "short"} {
		client := New(Options{APIKey: key, BaseURL: server.URL})
		_, err := client.GenerateReport(context.Background(), domain.TextInput{Content: "plan de seguridad"})
		if err == nil {
			t.Fatalf("expected configuration error for key %q", key)
		}
		if !domain.IsKind(err, domain.ErrConfigurationMissing) && !domain.IsKind(err, domain.ErrConfigurationInvalid) {
			t.Fatalf("expected configuration error for key %q, got %v", key, err)
		}
	}
	if atomic.LoadInt32(&hits) != 0 {
		t.Fatalf("expected no provider calls, got %d", hits)
	}
}

func TestGenerateReportSendsSchemaAndPlanText(t *testing.T) {
	var payload map[string]any
	var path string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(candidateBody(`{"overallScore":42}`)))
	}))
	defer server.Close()

	client := New(Options{APIKey: testAPIKey, BaseURL: server.URL})
	text, err := client.GenerateReport(context.Background(), domain.TextInput{Content: "Backups diarios cifrados."})
	if err != nil {
		t.Fatalf("GenerateReport() error = %v", err)
	}
	if text != `{"overallScore":42}` {
		t.Fatalf("unexpected text %q", text)
	}
	if !strings.HasSuffix(path, "models/"+DefaultModel+":generateContent") {
		t.Fatalf("unexpected path %q", path)
	}

	raw, _ := json.Marshal(payload)
	body := string(raw)
	for _, want := range []string{"Backups diarios cifrados.", "application/json", "detailedAnalysis", "Auditor Senior"} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected request body to contain %q, got %s", want, body)
		}
	}
}

func TestGenerateReportSendsPDFInline(t *testing.T) {
	pdf := []byte("%PDF-1.4 fake")
	var body string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		_ = json.NewDecoder(r.Body).Decode(&payload)
		raw, _ := json.Marshal(payload)
		body = string(raw)
		_, _ = w.Write([]byte(candidateBody(`{}`)))
	}))
	defer server.Close()

	client := New(Options{APIKey: testAPIKey, BaseURL: server.URL})
	_, err := client.GenerateReport(context.Background(), domain.PDFInput{Data: base64.StdEncoding.EncodeToString(pdf)})
	if err != nil {
		t.Fatalf("GenerateReport() error = %v", err)
	}
	if !strings.Contains(body, domain.PDFMimeType) {
		t.Fatalf("expected inline pdf mime type in request, got %s", body)
	}
	if !strings.Contains(body, base64.StdEncoding.EncodeToString(pdf)) {
		t.Fatalf("expected inline pdf bytes in request, got %s", body)
	}
}

func TestGenerateReportMapsProviderStatus(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{name: "forbidden", status: http.StatusForbidden, want: domain.ErrPermissionDenied},
		{name: "quota", status: http.StatusTooManyRequests, want: domain.ErrQuotaExceeded},
		{name: "bad_request", status: http.StatusBadRequest, want: domain.ErrTransport},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(`{"error":{"code":` + strconv.Itoa(tc.status) + `,"message":"nope","status":"FAILED"}}`))
			}))
			defer server.Close()

			client := New(Options{
				APIKey:   testAPIKey,
				BaseURL:  server.URL,
				Executor: resilience.NewExecutor(resilience.DefaultConfig()),
			})
			_, err := client.GenerateReport(context.Background(), domain.TextInput{Content: "plan"})
			if !domain.IsKind(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestToGenaiSchemaKeepsPropertyOrder(t *testing.T) {
	client := New(Options{APIKey: testAPIKey})
	if client.schema == nil {
		t.Fatalf("expected schema")
	}
	if len(client.schema.PropertyOrdering) != 8 || client.schema.PropertyOrdering[0] != "overallScore" {
		t.Fatalf("unexpected property ordering %v", client.schema.PropertyOrdering)
	}
	detailed := client.schema.Properties["detailedAnalysis"]
	if detailed == nil || detailed.Items == nil || detailed.MinItems == nil || *detailed.MinItems != 4 {
		t.Fatalf("unexpected detailedAnalysis schema %+v", detailed)
	}
	if got := client.schema.Properties["riskLevel"].Enum; len(got) != len(domain.RiskLevels) {
		t.Fatalf("unexpected risk level enum %v", got)
	}
}
