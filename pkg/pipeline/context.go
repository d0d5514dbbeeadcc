package pipeline

import (
	"time"

	"companion-game-be/internal/entity"
)

// Context is the scratch state shared by the stages of one run. Earlier
// stages fill slots that later stages read; the orchestrator owns its
// lifecycle and never reuses one across runs.
type Context struct {
	Conversation *entity.Conversation
	User         *entity.User
	Now          time.Time

	// Filled by extraction.
	ExtractedFacts []*entity.UserFact
	OpenThreads    []string
	InnerThoughts  []string

	// Filled by memory_update.
	StoredFacts []*entity.UserFact

	// Filled by the state stages.
	Persona   *entity.PersonaState
	Emotional *entity.EmotionalState
	Game      *entity.GameState

	// Filled by summary.
	Summary string

	// Filled by prompt_builder.
	PromptText string
}

func NewContext(conversation *entity.Conversation, user *entity.User) *Context {
	return &Context{
		Conversation: conversation,
		User:         user,
		Now:          time.Now().UTC(),
	}
}

// Transcript renders the conversation messages as plain text for LLM stages.
func (c *Context) Transcript() string {
	if c.Conversation == nil {
		return ""
	}
	var out []byte
	for _, msg := range c.Conversation.Messages {
		out = append(out, []byte(string(msg.Role)+": "+msg.Content+"\n")...)
	}
	return string(out)
}
