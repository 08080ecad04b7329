package file

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"text/template"
	"time"

	"github.com/custodia-labs/lexiq/internal/core/ports/driven"
	"github.com/custodia-labs/lexiq/internal/logger"
)

var _ driven.PromptStore = (*PromptStore)(nil)

var promptLog = logger.For("prompts")

// PromptStore serves analyzer prompts from <dir>/<name>.txt.
//
// Missing files are seeded from the defaults the first time any prompt is
// loaded. A file is re-read when its modification time changes, so edits
// apply to the next analysis without a restart. A file that is empty, or
// that is not a valid text/template, is ignored in favour of its default.
type PromptStore struct {
	dir      string
	defaults map[string]string

	seedOnce sync.Once
	seedErr  error

	mu    sync.Mutex
	cache map[string]cachedPrompt
}

type cachedPrompt struct {
	text    string
	modTime time.Time
}

// NewPromptStore returns a store rooted at dir, or ~/.lexiq/prompts when
// dir is empty. No I/O happens until the first Load.
func NewPromptStore(dir string, defaults map[string]string) (*PromptStore, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		dir = filepath.Join(home, ".lexiq", "prompts")
	}
	return &PromptStore{
		dir:      dir,
		defaults: maps.Clone(defaults),
		cache:    make(map[string]cachedPrompt),
	}, nil
}

// Dir returns the prompt directory.
func (s *PromptStore) Dir() string {
	return s.dir
}

// Load returns the named prompt. An unreadable directory degrades to the
// defaults; a name with neither a file nor a default is an error.
func (s *PromptStore) Load(name string) (string, error) {
	s.seedOnce.Do(func() { s.seedErr = s.seed() })
	fallback, hasDefault := s.defaults[name]
	if s.seedErr != nil {
		if hasDefault {
			return fallback, nil
		}
		return "", fmt.Errorf("prompt directory unavailable: %w", s.seedErr)
	}

	path := s.path(name)
	info, err := os.Stat(path)
	if err != nil {
		if hasDefault {
			return fallback, nil
		}
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.cache[name]; ok && c.modTime.Equal(info.ModTime()) {
		return c.text, nil
	}

	text, err := readPrompt(path)
	if err != nil {
		if !hasDefault {
			return "", fmt.Errorf("load prompt %q: %w", name, err)
		}
		promptLog.Warn("using built-in %s prompt: %v", name, err)
		text = fallback
	}
	s.cache[name] = cachedPrompt{text: text, modTime: info.ModTime()}
	return text, nil
}

// Reload drops every cached prompt.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	clear(s.cache)
	s.mu.Unlock()
}

func (s *PromptStore) path(name string) string {
	return filepath.Join(s.dir, name+".txt")
}

func readPrompt(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", errors.New("file is empty")
	}
	if _, err := template.New(filepath.Base(path)).Parse(text); err != nil {
		return "", err
	}
	return text, nil
}

// seed creates the directory, writes any missing default prompt and a
// README describing the template fields. Existing files are left alone.
func (s *PromptStore) seed() error {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return fmt.Errorf("create prompt directory: %w", err)
	}

	names := make([]string, 0, len(s.defaults))
	for name := range s.defaults {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		if err := writeIfMissing(s.path(name), []byte(s.defaults[name])); err != nil {
			return fmt.Errorf("create default prompt %q: %w", name, err)
		}
	}

	var readme bytes.Buffer
	if err := readmeTemplate.Execute(&readme, names); err != nil {
		return err
	}
	return writeIfMissing(filepath.Join(s.dir, "README.md"), readme.Bytes())
}

func writeIfMissing(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if errors.Is(err, fs.ErrExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

var readmeTemplate = template.Must(template.New("readme").Delims("[[", "]]").Parse(`# lexiq prompts

The LLM analyzer sends these prompts with every chunk it analyses.

[[range .]]- ` + "`[[.]].txt`" + `
[[end]]
Edits apply to the next analysis. Delete a file to restore its default.
A file that is empty or fails to parse falls back to the default.

` + "`analysis_user.txt`" + ` is a Go text/template with these fields:

- ` + "`{{.Text}}`" + ` the text to analyse
- ` + "`{{.Language}}`" + ` and ` + "`{{.Domain}}`" + ` from the analysis settings
- ` + "`{{.Glossary}}`" + ` the glossary, possibly empty
- ` + "`{{.Flags.Grammar}}`" + ` and ` + "`{{.Flags.Spelling}}`" + ` the enabled checks

Replies must remain a JSON object with a "terms" array. Any other shape
makes the chunk fail as a malformed response.
`))
