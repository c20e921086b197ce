package driven

// PromptStore returns the instruction text sent with model requests.
// Implementations may let operators override the built-in wording.
type PromptStore interface {
	Load(name string) (string, error)
}

// Prompt names.
const (
	// PromptAnswer is the preamble of every assembled prompt. The question
	// and context are appended to it, so it has no placeholders.
	PromptAnswer = "answer"

	// PromptSummarise instructs summarisation of text chunks and tables.
	// The content is sent separately.
	PromptSummarise = "summarise"

	// PromptDescribeImage instructs description of extracted images.
	PromptDescribeImage = "describe_image"
)
