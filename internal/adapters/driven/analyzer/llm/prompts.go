package llm

import (
	"embed"
	"strings"

	"github.com/custodia-labs/lexiq/internal/core/ports/driven"
)

//go:embed prompts/*.txt
var promptFS embed.FS

// DefaultPrompts returns the built-in prompt templates keyed by prompt name.
// The map is freshly allocated on every call.
func DefaultPrompts() map[string]string {
	out := make(map[string]string, 2)
	for _, name := range []string{driven.PromptAnalysisSystem, driven.PromptAnalysisUser} {
		data, err := promptFS.ReadFile("prompts/" + name + ".txt")
		if err != nil {
			// Embedded at build time; absence means a broken build.
			panic("missing embedded prompt " + name)
		}
		out[name] = strings.TrimSpace(string(data))
	}
	return out
}
