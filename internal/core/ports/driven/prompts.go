package driven

// PromptStore supplies the prompt texts of the LLM analyzer.
type PromptStore interface {
	// Load returns the named prompt, or an error when the store has
	// neither a stored nor a default text for it.
	Load(name string) (string, error)

	// Reload forgets cached prompts.
	Reload()
}

// Prompt names understood by the LLM analyzer.
const (
	// PromptAnalysisSystem is sent verbatim as the system message.
	PromptAnalysisSystem = "analysis_system"

	// PromptAnalysisUser is a text/template executed with the
	// domain.AnalysisRequest of each chunk.
	PromptAnalysisUser = "analysis_user"
)

// PromptStoreAware is implemented by analyzers whose prompts can be
// replaced at runtime.
type PromptStoreAware interface {
	SetPromptStore(store PromptStore)
}
