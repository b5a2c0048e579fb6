package reportschema

import (
	"context"
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/kirillkom/security-plan-auditor/internal/core/domain"
)

const validReport = `{
  "overallScore": 42,
  "riskLevel": "ALTO",
  "executiveSummary": "El plan cubre lo básico pero carece de BIA.",
  "complianceAlignment": "Alineación parcial con ISO 27001.",
  "detailedAnalysis": [
    {"category": "Análisis de Riesgos", "score": 60, "status": "Aceptable", "observation": "Inventario de activos incompleto."},
    {"category": "Análisis de Impacto (BIA)", "score": 20, "status": "Crítico", "observation": "No define RTO ni RPO."},
    {"category": "Plan de Contingencia", "score": 45, "status": "Deficiente", "observation": "Backups sin pruebas de restauración."},
    {"category": "Políticas de Seguridad", "score": 80, "status": "Optimizado", "observation": "Política de contraseñas clara."}
  ],
  "strengths": ["Política de contraseñas"],
  "weaknesses": [{"title": "Sin BIA", "description": "No hay análisis de impacto.", "severity": "Alta"}],
  "recommendations": ["Definir RTO/RPO", "Probar restauraciones"]
}`

func TestDecodeValidReport(t *testing.T) {
	report, err := Decode(validReport)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if report.OverallScore != 42 || report.RiskLevel != domain.RiskHigh {
		t.Fatalf("unexpected header %+v", report)
	}
	if len(report.DetailedAnalysis) != 4 || report.DetailedAnalysis[1].Status != domain.StatusCritical {
		t.Fatalf("unexpected analysis %+v", report.DetailedAnalysis)
	}
	if len(report.Recommendations) != 2 || report.Recommendations[0] != "Definir RTO/RPO" {
		t.Fatalf("recommendations must keep order, got %v", report.Recommendations)
	}
}

func TestDecodeRoundTrip(t *testing.T) {
	report, err := Decode(validReport)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	raw, err := json.Marshal(report)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	again, err := Decode(string(raw))
	if err != nil {
		t.Fatalf("Decode(round trip) error = %v", err)
	}
	if !reflect.DeepEqual(again, report) {
		t.Fatalf("round trip changed report:\n got %+v\nwant %+v", again, report)
	}
}

func TestDecodeRoundTripWithoutLists(t *testing.T) {
	report, err := Decode(validReport)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	report.Strengths = nil
	report.Weaknesses = nil
	report.Recommendations = nil

	raw, err := json.Marshal(report)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(raw), `"strengths":[]`) {
		t.Fatalf("expected empty list in %s", raw)
	}
	again, err := Decode(string(raw))
	if err != nil {
		t.Fatalf("Decode(round trip) error = %v", err)
	}
	if !reflect.DeepEqual(again, report) {
		t.Fatalf("round trip changed report:\n got %+v\nwant %+v", again, report)
	}
}

func TestDecodeErrorNamesFieldWithoutSchemaDump(t *testing.T) {
	_, err := Decode(strings.Replace(validReport, `"ALTO"`, `"EXTREMO"`, 1))
	if !domain.IsKind(err, domain.ErrParseFailure) {
		t.Fatalf("expected parse failure, got %v", err)
	}
	msg := err.Error()
	if !strings.Contains(msg, "/riskLevel") {
		t.Fatalf("expected field pointer in %q", msg)
	}
	if strings.Contains(msg, "Schema:") || strings.Contains(msg, "executiveSummary") {
		t.Fatalf("error must not embed the schema: %q", msg)
	}
}

func TestDecodeEmptyResponse(t *testing.T) {
	for _, raw := range []string{"", "  \n "} {
		if _, err := Decode(raw); !domain.IsKind(err, domain.ErrEmptyResponse) {
			t.Fatalf("expected empty response for %q, got %v", raw, err)
		}
	}
}

func TestDecodeRejectsMalformedReports(t *testing.T) {
	cases := map[string]string{
		"not json":        "```json\n{}\n```",
		"missing field":   strings.Replace(validReport, `"complianceAlignment": "Alineación parcial con ISO 27001.",`, "", 1),
		"bad risk level":  strings.Replace(validReport, `"ALTO"`, `"EXTREMO"`, 1),
		"bad status":      strings.Replace(validReport, `"Aceptable"`, `"Regular"`, 1),
		"bad severity":    strings.Replace(validReport, `"Alta"`, `"Urgente"`, 1),
		"score too high":  strings.Replace(validReport, `"overallScore": 42`, `"overallScore": 142`, 1),
		"extra field":     strings.Replace(validReport, `"overallScore": 42,`, `"overallScore": 42, "extra": true,`, 1),
		"wrong order":     strings.NewReplacer("Análisis de Riesgos", "Plan de Contingencia", "Plan de Contingencia", "Análisis de Riesgos").Replace(validReport),
		"three pillars":   strings.Replace(validReport, "},\n    {\"category\": \"Políticas de Seguridad\", \"score\": 80, \"status\": \"Optimizado\", \"observation\": \"Política de contraseñas clara.\"}", "}", 1),
		"null strengths":  strings.Replace(validReport, `["Política de contraseñas"]`, "null", 1),
		"string as score": strings.Replace(validReport, `"overallScore": 42`, `"overallScore": "42"`, 1),
	}
	for name, raw := range cases {
		if _, err := Decode(raw); !domain.IsKind(err, domain.ErrParseFailure) {
			t.Fatalf("%s: expected parse failure, got %v", name, err)
		}
	}
}

func TestSchemaDocument(t *testing.T) {
	if err := Validate(context.Background()); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	raw, err := JSON()
	if err != nil {
		t.Fatalf("JSON() error = %v", err)
	}
	for _, want := range []string{`"overallScore"`, `"CRITICO"`, `"Optimizado"`, `"maxItems":4`} {
		if !strings.Contains(string(raw), want) {
			t.Fatalf("schema JSON misses %s: %s", want, raw)
		}
	}
}
