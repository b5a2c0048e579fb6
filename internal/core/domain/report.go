package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

type RiskLevel string

const (
	RiskCritical RiskLevel = "CRITICO"
	RiskHigh     RiskLevel = "ALTO"
	RiskMedium   RiskLevel = "MEDIO"
	RiskLow      RiskLevel = "BAJO"
	RiskSafe     RiskLevel = "SEGURO"
)

// RiskLevels lists every level from most to least severe.
var RiskLevels = []RiskLevel{RiskCritical, RiskHigh, RiskMedium, RiskLow, RiskSafe}

type CategoryStatus string

const (
	StatusOptimized  CategoryStatus = "Optimizado"
	StatusAcceptable CategoryStatus = "Aceptable"
	StatusDeficient  CategoryStatus = "Deficiente"
	StatusCritical   CategoryStatus = "Crítico"
)

var CategoryStatuses = []CategoryStatus{StatusOptimized, StatusAcceptable, StatusDeficient, StatusCritical}

type Severity string

const (
	SeverityHigh   Severity = "Alta"
	SeverityMedium Severity = "Media"
	SeverityLow    Severity = "Baja"
)

var Severities = []Severity{SeverityHigh, SeverityMedium, SeverityLow}

type CategoryAnalysis struct {
	Category    string         `json:"category"`
	Score       float64        `json:"score"`
	Status      CategoryStatus `json:"status"`
	Observation string         `json:"observation"`
}

type AuditIssue struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Severity    Severity `json:"severity"`
}

type AuditReport struct {
	OverallScore        float64            `json:"overallScore"`
	RiskLevel           RiskLevel          `json:"riskLevel"`
	ExecutiveSummary    string             `json:"executiveSummary"`
	ComplianceAlignment string             `json:"complianceAlignment"`
	DetailedAnalysis    []CategoryAnalysis `json:"detailedAnalysis"`
	Strengths           []string           `json:"strengths"`
	Weaknesses          []AuditIssue       `json:"weaknesses"`
	Recommendations     []string           `json:"recommendations"`
}

type Pillar string

const (
	PillarRisk        Pillar = "risk"
	PillarImpact      Pillar = "impact"
	PillarContingency Pillar = "contingency"
	PillarPolicies    Pillar = "policies"
)

// Pillars is the order in which the report must list its categories.
var Pillars = []Pillar{PillarRisk, PillarImpact, PillarContingency, PillarPolicies}

var pillarNames = map[Pillar]string{
	PillarRisk:        "Análisis de Riesgos",
	PillarImpact:      "Análisis de Impacto (BIA)",
	PillarContingency: "Plan de Contingencia",
	PillarPolicies:    "Políticas de Seguridad",
}

var pillarKeywords = map[Pillar][]string{
	PillarRisk:        {"riesgo", "risk"},
	PillarImpact:      {"impacto", "impact", "bia"},
	PillarContingency: {"contingencia", "continuidad", "contingency", "continuity"},
	PillarPolicies:    {"política", "politica", "policy", "policies"},
}

func (p Pillar) DisplayName() string {
	return pillarNames[p]
}

// PillarOf resolves a free-text category name to its pillar. Pillars are
// checked in report order, so the first matching keyword wins.
func PillarOf(category string) (Pillar, bool) {
	lower := strings.ToLower(category)
	for _, p := range Pillars {
		for _, kw := range pillarKeywords[p] {
			if strings.Contains(lower, kw) {
				return p, true
			}
		}
	}
	return "", false
}

// ValidatePillars checks that the report has exactly one entry per pillar in
// report order.
// MarshalJSON writes absent lists as [] so the output always satisfies the
// report schema, which does not allow null.
func (r AuditReport) MarshalJSON() ([]byte, error) {
	type plain AuditReport
	out := plain(r)
	if out.DetailedAnalysis == nil {
		out.DetailedAnalysis = []CategoryAnalysis{}
	}
	if out.Strengths == nil {
		out.Strengths = []string{}
	}
	if out.Weaknesses == nil {
		out.Weaknesses = []AuditIssue{}
	}
	if out.Recommendations == nil {
		out.Recommendations = []string{}
	}
	return json.Marshal(out)
}

func (r *AuditReport) ValidatePillars() error {
	if len(r.DetailedAnalysis) != len(Pillars) {
		return WrapError(ErrParseFailure, "validate pillars",
			fmt.Errorf("expected %d categories, got %d", len(Pillars), len(r.DetailedAnalysis)))
	}
	for i, item := range r.DetailedAnalysis {
		got, ok := PillarOf(item.Category)
		if !ok || got != Pillars[i] {
			return WrapError(ErrParseFailure, "validate pillars",
				fmt.Errorf("category %d is %q, expected %s", i+1, item.Category, Pillars[i].DisplayName()))
		}
	}
	return nil
}
