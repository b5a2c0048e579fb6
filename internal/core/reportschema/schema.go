// Package reportschema declares the JSON shape the AI provider is contracted
// to return and validates responses against it.
package reportschema

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/kirillkom/security-plan-auditor/internal/core/domain"
)

const (
	FieldOverallScore        = "overallScore"
	FieldRiskLevel           = "riskLevel"
	FieldExecutiveSummary    = "executiveSummary"
	FieldComplianceAlignment = "complianceAlignment"
	FieldDetailedAnalysis    = "detailedAnalysis"
	FieldStrengths           = "strengths"
	FieldWeaknesses          = "weaknesses"
	FieldRecommendations     = "recommendations"
)

// Report builds the response schema. Required lists properties in the order
// the provider should emit them.
func Report() *openapi3.Schema {
	category := closedObject().
		WithProperty("category", openapi3.NewStringSchema()).
		WithProperty("score", score("Score from 0 to 100 for this pillar.")).
		WithProperty("status", enumString(toAny(domain.CategoryStatuses), "")).
		WithProperty("observation", describe(openapi3.NewStringSchema(), "Specific finding for this category."))
	category.Required = []string{"category", "score", "status", "observation"}

	issue := closedObject().
		WithProperty("title", openapi3.NewStringSchema()).
		WithProperty("description", openapi3.NewStringSchema()).
		WithProperty("severity", enumString(toAny(domain.Severities), ""))
	issue.Required = []string{"title", "description", "severity"}

	detailed := openapi3.NewArraySchema().WithItems(category)
	detailed.Description = "Specific analysis for Risk Analysis, Impact Analysis, Contingency Plan, and Security Policies."
	four := uint64(len(domain.Pillars))
	detailed.MinItems = four
	detailed.MaxItems = &four

	report := closedObject().
		WithProperty(FieldOverallScore, score("A score from 0 to 100 representing the overall robustness.")).
		WithProperty(FieldRiskLevel, enumString(toAny(domain.RiskLevels), "The overall calculated risk level.")).
		WithProperty(FieldExecutiveSummary, describe(openapi3.NewStringSchema(), "A concise executive summary in Spanish.")).
		WithProperty(FieldComplianceAlignment, describe(openapi3.NewStringSchema(), "Alignment with ISO 27001/NIST/GDPR.")).
		WithProperty(FieldDetailedAnalysis, detailed).
		WithProperty(FieldStrengths, openapi3.NewArraySchema().WithItems(openapi3.NewStringSchema())).
		WithProperty(FieldWeaknesses, openapi3.NewArraySchema().WithItems(issue)).
		WithProperty(FieldRecommendations, openapi3.NewArraySchema().WithItems(openapi3.NewStringSchema()))
	report.Required = []string{
		FieldOverallScore,
		FieldRiskLevel,
		FieldExecutiveSummary,
		FieldComplianceAlignment,
		FieldDetailedAnalysis,
		FieldStrengths,
		FieldWeaknesses,
		FieldRecommendations,
	}
	return report
}

// JSON renders the schema as a JSON Schema document.
func JSON() (json.RawMessage, error) {
	raw, err := json.Marshal(Report())
	if err != nil {
		return nil, fmt.Errorf("marshal report schema: %w", err)
	}
	return raw, nil
}

var compiled = Report()

// Decode parses provider output into a report. Any deviation from the schema
// or from the pillar order is a parse failure.
func Decode(raw string) (*domain.AuditReport, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil, domain.WrapError(domain.ErrEmptyResponse, "decode report", errors.New("response text is empty"))
	}

	var generic any
	if err := json.Unmarshal([]byte(text), &generic); err != nil {
		return nil, domain.WrapError(domain.ErrParseFailure, "decode report", err)
	}
	if err := compiled.VisitJSON(generic, openapi3.MultiErrors()); err != nil {
		return nil, domain.WrapError(domain.ErrParseFailure, "validate report schema", violations(err))
	}

	var report domain.AuditReport
	if err := json.Unmarshal([]byte(text), &report); err != nil {
		return nil, domain.WrapError(domain.ErrParseFailure, "decode report", err)
	}
	if err := report.ValidatePillars(); err != nil {
		return nil, err
	}
	compactLists(&report)
	return &report, nil
}

// compactLists turns empty lists into nil so a decoded report compares equal
// to one built in code.
func compactLists(r *domain.AuditReport) {
	if len(r.Strengths) == 0 {
		r.Strengths = nil
	}
	if len(r.Weaknesses) == 0 {
		r.Weaknesses = nil
	}
	if len(r.Recommendations) == 0 {
		r.Recommendations = nil
	}
}

// violations reduces schema errors to "pointer: reason" pairs. The default
// SchemaError text embeds the whole schema.
func violations(err error) error {
	var multi openapi3.MultiError
	if !errors.As(err, &multi) {
		multi = openapi3.MultiError{err}
	}
	msgs := make([]string, 0, len(multi))
	for _, e := range multi {
		var schemaErr *openapi3.SchemaError
		if errors.As(e, &schemaErr) {
			msgs = append(msgs, "/"+strings.Join(schemaErr.JSONPointer(), "/")+": "+schemaErr.Reason)
			continue
		}
		msgs = append(msgs, e.Error())
	}
	return errors.New(strings.Join(msgs, "; "))
}

// Validate checks the schema document itself.
func Validate(ctx context.Context) error {
	return Report().Validate(ctx)
}

func closedObject() *openapi3.Schema {
	s := openapi3.NewObjectSchema()
	s.AdditionalProperties = openapi3.AdditionalProperties{Has: openapi3.BoolPtr(false)}
	return s
}

func score(description string) *openapi3.Schema {
	return describe(openapi3.NewFloat64Schema().WithMin(0).WithMax(100), description)
}

func enumString(values []any, description string) *openapi3.Schema {
	return describe(openapi3.NewStringSchema().WithEnum(values...), description)
}

func describe(s *openapi3.Schema, description string) *openapi3.Schema {
	s.Description = description
	return s
}

func toAny[T ~string](values []T) []any {
	out := make([]any, 0, len(values))
	for _, v := range values {
		out = append(out, string(v))
	}
	return out
}
