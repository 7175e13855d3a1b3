// Package chat holds the conversation state shared by the interactive CLI
// and the web server, plus the prompt-token accounting derived from it.
package chat

// Role identifies the sender of a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one role-tagged entry in a conversation. Messages are
// immutable once appended.
type Message struct {
	Role    Role
	Content string
}

// TokenCounter counts model tokens in a rendered prompt string, including a
// beginning-of-sequence marker. llm.Runner satisfies it.
type TokenCounter interface {
	CountTokens(text string) (int, error)
}

// Conversation is an append-only, ordered message sequence owned by a single
// session. There is no size bound; a long-lived session grows without limit.
type Conversation struct {
	messages []Message
	template Template
}

// NewConversation starts a conversation with the given system prompt and
// chat template. An empty system prompt seeds no system message, so
// per-request conversations hold only what the caller appends. A nil
// template falls back to the plain role-prefixed join.
func NewConversation(systemPrompt string, tmpl Template) *Conversation {
	if tmpl == nil {
		tmpl = PlainTemplate{}
	}
	c := &Conversation{template: tmpl}
	if systemPrompt != "" {
		c.messages = []Message{{Role: RoleSystem, Content: systemPrompt}}
	}
	return c
}

// AddUser appends a user message.
func (c *Conversation) AddUser(content string) {
	c.messages = append(c.messages, Message{Role: RoleUser, Content: content})
}

// AddAssistant appends an assistant message.
func (c *Conversation) AddAssistant(content string) {
	c.messages = append(c.messages, Message{Role: RoleAssistant, Content: content})
}

// Messages returns the ordered history. The returned slice must not be
// mutated.
func (c *Conversation) Messages() []Message {
	return c.messages
}

// Render produces the single prompt string fed to the model, in
// chronological order through the configured template.
func (c *Conversation) Render() string {
	return c.template.Render(c.messages)
}

// PromptTokens renders the full history and counts its tokens. It is a pure
// function of the current state and recomputes from scratch on every call;
// across an n-turn session that is O(n^2) total tokenization work, accepted
// for the session lengths this tool sees.
func (c *Conversation) PromptTokens(counter TokenCounter) (int, error) {
	return counter.CountTokens(c.Render())
}
