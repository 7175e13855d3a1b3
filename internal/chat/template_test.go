package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestForModel(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"gemma", "gemma"},
		{"GEMMA", "gemma"},
		{"", "plain"},
		{"unknown", "plain"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ForModel(tt.name).Name())
		})
	}
}

func TestPlainTemplateRender(t *testing.T) {
	msgs := []Message{
		{Role: RoleSystem, Content: "be terse"},
		{Role: RoleUser, Content: "hello"},
		{Role: RoleAssistant, Content: "hi"},
	}

	got := PlainTemplate{}.Render(msgs)
	assert.Equal(t, "system: be terse\nuser: hello\nassistant: hi", got)
}

func TestGemmaTemplateFoldsSystemIntoFirstUserTurn(t *testing.T) {
	msgs := []Message{
		{Role: RoleSystem, Content: "be terse"},
		{Role: RoleUser, Content: "hello"},
		{Role: RoleAssistant, Content: "hi"},
		{Role: RoleUser, Content: "more"},
	}

	got := GemmaTemplate{}.Render(msgs)
	want := "<start_of_turn>user\nbe terse\n\nhello<end_of_turn>\n" +
		"<start_of_turn>model\nhi<end_of_turn>\n" +
		"<start_of_turn>user\nmore<end_of_turn>\n" +
		"<start_of_turn>model\n"
	assert.Equal(t, want, got)
}

func TestGemmaTemplateEndsWithOpenModelTurn(t *testing.T) {
	got := GemmaTemplate{}.Render([]Message{{Role: RoleUser, Content: "x"}})
	assert.True(t, len(got) > 0)
	assert.Contains(t, got, "<start_of_turn>model\n")
	assert.Equal(t, "<start_of_turn>model\n", got[len(got)-len("<start_of_turn>model\n"):])
}
