// Package scorecard derives the display rules for an audit report: badge
// text, score tiers, tones and pillar icons. It returns data, not markup.
package scorecard

import (
	"math"

	"github.com/kirillkom/security-plan-auditor/internal/core/domain"
)

type Tier string

const (
	TierHigh   Tier = "high"
	TierMedium Tier = "medium"
	TierLow    Tier = "low"
)

type Tone string

const (
	ToneEmerald Tone = "emerald"
	ToneYellow  Tone = "yellow"
	ToneOrange  Tone = "orange"
	ToneRose    Tone = "rose"
	ToneBlue    Tone = "blue"
	ToneSlate   Tone = "slate"
)

type Badge struct {
	Text  string           `json:"text"`
	Level domain.RiskLevel `json:"level"`
	Tone  Tone             `json:"tone"`
}

var riskTones = map[domain.RiskLevel]Tone{
	domain.RiskCritical: ToneRose,
	domain.RiskHigh:     ToneOrange,
	domain.RiskMedium:   ToneYellow,
	domain.RiskLow:      ToneBlue,
	domain.RiskSafe:     ToneEmerald,
}

// RiskBadge labels the level as given; unknown levels get the MEDIO tone.
func RiskBadge(level domain.RiskLevel) Badge {
	tone, ok := riskTones[level]
	if !ok {
		tone = riskTones[domain.RiskMedium]
	}
	return Badge{Text: "RIESGO " + string(level), Level: level, Tone: tone}
}

// ScoreTier classifies the overall score: 80 and up is high, 50 and up medium.
func ScoreTier(score float64) Tier {
	switch {
	case score >= 80:
		return TierHigh
	case score >= 50:
		return TierMedium
	default:
		return TierLow
	}
}

// PillarTier classifies a pillar bar. Thresholds are strict: above 75, above 40.
func PillarTier(score float64) Tier {
	switch {
	case score > 75:
		return TierHigh
	case score > 40:
		return TierMedium
	default:
		return TierLow
	}
}

func TierTone(t Tier) Tone {
	switch t {
	case TierHigh:
		return ToneEmerald
	case TierMedium:
		return ToneYellow
	default:
		return ToneRose
	}
}

func StatusTone(status domain.CategoryStatus) Tone {
	switch status {
	case domain.StatusOptimized:
		return ToneEmerald
	case domain.StatusAcceptable:
		return ToneYellow
	case domain.StatusDeficient:
		return ToneOrange
	case domain.StatusCritical:
		return ToneRose
	default:
		return ToneSlate
	}
}

var pillarIcons = map[domain.Pillar]string{
	domain.PillarRisk:        "activity",
	domain.PillarImpact:      "zap",
	domain.PillarContingency: "life-buoy",
	domain.PillarPolicies:    "book-lock",
}

// PillarIcon picks an icon key from the category name, or "target".
func PillarIcon(category string) string {
	if p, ok := domain.PillarOf(category); ok {
		return pillarIcons[p]
	}
	return "target"
}

type ScoreView struct {
	Value float64 `json:"value"`
	Gap   float64 `json:"gap"`
	Tier  Tier    `json:"tier"`
	Tone  Tone    `json:"tone"`
}

type PillarView struct {
	Category   string                `json:"category"`
	Pillar     domain.Pillar         `json:"pillar,omitempty"`
	Icon       string                `json:"icon"`
	Score      float64               `json:"score"`
	Tier       Tier                  `json:"tier"`
	Tone       Tone                  `json:"tone"`
	Status     domain.CategoryStatus `json:"status"`
	StatusTone Tone                  `json:"statusTone"`
}

// View is everything a client needs to render a report consistently.
type View struct {
	Badge   Badge        `json:"badge"`
	Score   ScoreView    `json:"score"`
	Pillars []PillarView `json:"pillars"`
}

func BuildView(report *domain.AuditReport) View {
	if report == nil {
		return View{Pillars: []PillarView{}}
	}
	scoreTier := ScoreTier(report.OverallScore)
	view := View{
		Badge: RiskBadge(report.RiskLevel),
		Score: ScoreView{
			Value: report.OverallScore,
			Gap:   math.Max(0, 100-report.OverallScore),
			Tier:  scoreTier,
			Tone:  TierTone(scoreTier),
		},
		Pillars: make([]PillarView, 0, len(report.DetailedAnalysis)),
	}
	for _, item := range report.DetailedAnalysis {
		tier := PillarTier(item.Score)
		pv := PillarView{
			Category:   item.Category,
			Icon:       PillarIcon(item.Category),
			Score:      item.Score,
			Tier:       tier,
			Tone:       TierTone(tier),
			Status:     item.Status,
			StatusTone: StatusTone(item.Status),
		}
		if p, ok := domain.PillarOf(item.Category); ok {
			pv.Pillar = p
		}
		view.Pillars = append(view.Pillars, pv)
	}
	return view
}
