package file

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/docchat/internal/core/ports/driven"
	"github.com/custodia-labs/docchat/internal/core/services"
)

var _ driven.PromptStore = (*PromptStore)(nil)

// defaultPrompts seeds the prompt directory and backs missing or blank files.
var defaultPrompts = map[string]string{
	driven.PromptAnswer:        services.DefaultAnswerPreamble,
	driven.PromptSummarise:     services.DefaultSummarisePrompt,
	driven.PromptDescribeImage: services.DefaultDescribeImagePrompt,
}

// PromptStore reads prompts from <dir>/<name>.txt. Edits take effect on
// the next Load without a restart: a cached prompt is reused only while
// its file's size and modification time are unchanged.
//
// The directory is seeded with the default prompts on first use.
type PromptStore struct {
	dir string

	seedOnce sync.Once
	seedErr  error

	mu    sync.Mutex
	cache map[string]cachedPrompt
}

type cachedPrompt struct {
	modTime time.Time
	size    int64
	text    string
}

// NewPromptStore creates a store over dir. An empty dir means
// ~/.docchat/prompts. Nothing touches the disk until the first Load.
func NewPromptStore(dir string) (*PromptStore, error) {
	if dir == "" {
		home, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(home, "prompts")
	}
	return &PromptStore{dir: dir, cache: make(map[string]cachedPrompt)}, nil
}

// Dir returns the prompt directory.
func (s *PromptStore) Dir() string {
	return s.dir
}

// Err reports a failure to seed the prompt directory. Loads still fall
// back to the defaults when it is set.
func (s *PromptStore) Err() error {
	s.seedOnce.Do(s.seed)
	return s.seedErr
}

// Load returns the named prompt, falling back to its default when the
// file is missing, unreadable or blank. Unknown names without a file are
// an error.
func (s *PromptStore) Load(name string) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\.`) {
		return "", fmt.Errorf("%w: invalid prompt name %q", errInvalidPrompt, name)
	}
	s.seedOnce.Do(s.seed)

	text, err := s.read(name)
	if err == nil && text != "" {
		return text, nil
	}
	if def, ok := defaultPrompts[name]; ok {
		return def, nil
	}
	if err == nil {
		err = errors.New("prompt file is empty")
	}
	return "", fmt.Errorf("load prompt %q: %w", name, err)
}

var errInvalidPrompt = errors.New("invalid prompt")

func (s *PromptStore) read(name string) (string, error) {
	path := filepath.Join(s.dir, name+".txt")
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.cache[name]; ok && c.size == info.Size() && c.modTime.Equal(info.ModTime()) {
		return c.text, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(string(raw))
	s.cache[name] = cachedPrompt{modTime: info.ModTime(), size: info.Size(), text: text}
	return text, nil
}

// seed writes every default prompt that has no file yet. Existing files
// are never overwritten.
func (s *PromptStore) seed() {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		s.seedErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}
	for name, text := range defaultPrompts {
		path := filepath.Join(s.dir, name+".txt")
		if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := os.WriteFile(path, []byte(text+"\n"), 0o600); err != nil {
			s.seedErr = fmt.Errorf("create default prompt %q: %w", name, err)
			return
		}
	}
}
