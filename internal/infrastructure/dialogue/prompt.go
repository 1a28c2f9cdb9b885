package dialogue

import (
	"fmt"
	"strings"

	"babel-bridge/internal/domain/catalog"
	"babel-bridge/internal/domain/conversation"
)

const systemPrompt = "You are a language learning conversation generator."

// buildPrompt renders the user message for one generation request.
func buildPrompt(lang catalog.Language, level catalog.Level, req conversation.GenerateRequest) string {
	var roles strings.Builder
	for _, p := range req.Participants {
		if p.IsAI {
			fmt.Fprintf(&roles, "  Role %s: AI character (invent a fitting persona)\n", p.Role)
			continue
		}
		name := p.DisplayName
		if name == "" {
			name = p.Username
		}
		fmt.Fprintf(&roles, "  Role %s: %s\n", p.Role, name)
	}

	plan := make([]string, len(req.Plan))
	for i, role := range req.Plan {
		plan[i] = fmt.Sprintf("Turn %d→%s", i+1, role)
	}
	total := len(req.Plan)

	var b strings.Builder
	fmt.Fprintf(&b, "Generate a realistic, natural conversation in %s between the following roles:\n\n", lang.DisplayName)
	b.WriteString(roles.String())
	fmt.Fprintf(&b, "\nScenario: %q\n", req.Scenario)
	fmt.Fprintf(&b, "Language: %s\n", lang.DisplayName)
	fmt.Fprintf(&b, "Level: %s (%s)\n\n", level.Code, level.Description)
	b.WriteString("Turn assignment (follow exactly):\n")
	b.WriteString(strings.Join(plan, ", "))
	b.WriteString("\n\nRequirements:\n")
	fmt.Fprintf(&b, "- Exactly %d turns, numbered 1 to %d.\n", total, total)
	b.WriteString("- Each turn follows the assignment above. Do not deviate.\n")
	fmt.Fprintf(&b, "- Lines must be appropriate for the %s level.\n", level.Code)
	fmt.Fprintf(&b, "- %s\n", strings.TrimSpace(lang.ScriptNotes))
	b.WriteString("- english_text is a natural English translation of the line.\n")
	b.WriteString("- hint is one concise grammar or vocabulary tip relevant to that specific line (max 15 words).\n")
	b.WriteString("- The conversation must flow naturally and stay on the scenario throughout.\n\n")
	b.WriteString(`Return ONLY a valid JSON array, no markdown and no explanation:
[
  {
    "turn_number": 1,
    "speaker": "<role letter A/B/C/D>",
    "roman_text": "<line in roman/latin script>",
    "native_text": "<line in native script>",
    "english_text": "<English translation>",
    "hint": "<grammar or vocab tip>"
  }
]`)
	return b.String()
}
