package chat

import (
	"fmt"
	"strings"
)

// Template renders an ordered message sequence into the single prompt
// string the model consumes.
type Template interface {
	Name() string
	Render(messages []Message) string
}

// ForModel selects a template by configured name. Unknown or empty names
// select the plain join, matching a model that declares no chat format.
func ForModel(name string) Template {
	switch strings.ToLower(name) {
	case "gemma":
		return GemmaTemplate{}
	default:
		return PlainTemplate{}
	}
}

// PlainTemplate joins messages as "role: content" lines.
type PlainTemplate struct{}

func (PlainTemplate) Name() string { return "plain" }

func (PlainTemplate) Render(messages []Message) string {
	lines := make([]string, 0, len(messages))
	for _, m := range messages {
		lines = append(lines, fmt.Sprintf("%s: %s", m.Role, m.Content))
	}
	return strings.Join(lines, "\n")
}

// GemmaTemplate renders Gemma-style turn markers. Gemma has no system role;
// the system prompt is folded into the first user turn, and the rendered
// prompt ends with an open model turn for the next generation.
type GemmaTemplate struct{}

func (GemmaTemplate) Name() string { return "gemma" }

func (GemmaTemplate) Render(messages []Message) string {
	var b strings.Builder
	var system string

	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			system = m.Content
		case RoleUser:
			b.WriteString("<start_of_turn>user\n")
			if system != "" {
				b.WriteString(system)
				b.WriteString("\n\n")
				system = ""
			}
			b.WriteString(m.Content)
			b.WriteString("<end_of_turn>\n")
		case RoleAssistant:
			b.WriteString("<start_of_turn>model\n")
			b.WriteString(m.Content)
			b.WriteString("<end_of_turn>\n")
		}
	}

	b.WriteString("<start_of_turn>model\n")
	return b.String()
}
