package llm

import (
	"fmt"
	"strings"

	"github.com/kirillkom/security-plan-auditor/internal/core/domain"
)

// Temperature is the sampling temperature for every provider.
const Temperature float32 = 0.2

// SystemInstruction is the fixed auditor brief sent with every request.
func SystemInstruction() string {
	var b strings.Builder
	b.WriteString("Actúa como un Auditor Senior de Ciberseguridad (CISO) especializado en ISO 27001 y NIST.\n\n")
	b.WriteString("Tu tarea es auditar el documento proporcionado y evaluar ESPECÍFICAMENTE estos 4 pilares fundamentales:\n\n")
	for i, p := range domain.Pillars {
		fmt.Fprintf(&b, "%d. **%s**: %s\n", i+1, p.DisplayName(), pillarQuestions[p])
	}
	fmt.Fprintf(&b, "\nPara el campo 'detailedAnalysis' del JSON, DEBES generar exactamente %d entradas, una para cada uno de los pilares anteriores, en ese orden, usando el nombre del pilar como 'category'.\n\n", len(domain.Pillars))
	b.WriteString("Sé estricto. Si falta información en el documento, califícalo como bajo o crítico.\n")
	return b.String()
}

var pillarQuestions = map[domain.Pillar]string{
	domain.PillarRisk:        "¿Identifica activos? ¿Evalúa amenazas y vulnerabilidades? ¿Calcula probabilidad e impacto?",
	domain.PillarImpact:      "¿Determina la criticidad de los procesos de negocio? ¿Define RTO y RPO?",
	domain.PillarContingency: "¿Existen procedimientos de recuperación ante desastres? ¿Backups? ¿Roles definidos?",
	domain.PillarPolicies:    "¿Están definidas las reglas de juego? (Contraseñas, acceso, uso aceptable, etc.)",
}

// PlanText wraps a pasted plan in the delimiters the instruction expects.
func PlanText(content string) string {
	return "El plan a analizar es:\n\"\"\"\n" + content + "\n\"\"\""
}

// SchemaReminder is appended for providers that cannot enforce a declared
// schema server-side as strictly as Gemini does.
func SchemaReminder(schemaJSON []byte) string {
	return "Responde únicamente con un objeto JSON válido que cumpla este JSON Schema, sin markdown ni texto adicional:\n" + string(schemaJSON)
}
