package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files or embed them in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names.
const (
	// PromptAnswerSystem is the system instruction for answer composition.
	// It has no format placeholders.
	PromptAnswerSystem = "answer_system"

	// PromptAnswer frames retrieved records and the question.
	// The template expects %s (rendered records) then %s (question).
	PromptAnswer = "answer"
)
