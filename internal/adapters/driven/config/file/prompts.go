package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/hotelrag/internal/core/ports/driven"
	"github.com/custodia-labs/hotelrag/internal/logger"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// defaultPrompts are written to the prompt directory on first use and
// served whenever a file is missing or unreadable.
var defaultPrompts = map[string]string{
	driven.PromptAnswerSystem: `You are an assistant that analyses hotel booking data.
Answer using only the booking records provided. If the records do not contain
the answer, say so clearly. Be concise and quote figures from the records.`,

	driven.PromptAnswer: `Retrieved booking records:

%s

Question: %s
Answer:`,
}

const promptsReadme = "# hotelrag prompts\n\n" +
	"`answer_system.txt` is the system instruction sent with every question.\n" +
	"`answer.txt` frames the retrieved booking records and the question.\n\n" +
	"Edits are picked up on the next question, including by a running server.\n" +
	"`answer.txt` must keep exactly two `%s` placeholders: the rendered records\n" +
	"first, then the question. Otherwise the built-in prompt is used.\n" +
	"Delete a file to restore its default.\n"

// promptFile is a loaded prompt and the modification time it was read at.
type promptFile struct {
	text    string
	modTime time.Time
}

// PromptStore serves answer prompts from editable text files.
// A file is re-read when its modification time changes.
type PromptStore struct {
	dir string

	mu     sync.Mutex
	loaded map[string]promptFile

	seedOnce sync.Once
	seedErr  error
}

// NewPromptStore creates a prompt store rooted at dir.
// If dir is empty, defaults to ~/.hotelrag/prompts. Nothing is written
// until the first Load.
func NewPromptStore(dir string) (*PromptStore, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		dir = filepath.Join(home, ".hotelrag", "prompts")
	}
	return &PromptStore{
		dir:    dir,
		loaded: make(map[string]promptFile),
	}, nil
}

// Dir returns the prompt directory.
func (s *PromptStore) Dir() string {
	return s.dir
}

// Load returns the named prompt, falling back to the built-in default when
// the file cannot be read. Unknown names without a file are an error.
func (s *PromptStore) Load(name string) (string, error) {
	s.seedOnce.Do(s.seed)

	fallback, known := defaultPrompts[name]
	if s.seedErr != nil {
		if known {
			return fallback, nil
		}
		return "", fmt.Errorf("prompt %q: %w", name, s.seedErr)
	}

	path := s.path(name)
	info, err := os.Stat(path)
	if err != nil {
		if known {
			return fallback, nil
		}
		return "", fmt.Errorf("prompt %q: %w", name, err)
	}

	s.mu.Lock()
	cached, ok := s.loaded[name]
	s.mu.Unlock()
	if ok && cached.modTime.Equal(info.ModTime()) {
		return cached.text, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if known {
			return fallback, nil
		}
		return "", fmt.Errorf("read prompt %q: %w", name, err)
	}
	text := strings.TrimSpace(string(data))
	if ok {
		logger.Debug("Prompt %s changed on disk, reloaded", name)
	}

	s.mu.Lock()
	s.loaded[name] = promptFile{text: text, modTime: info.ModTime()}
	s.mu.Unlock()
	return text, nil
}

// Reload forgets every loaded prompt so the next Load reads from disk.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.loaded = make(map[string]promptFile)
	s.mu.Unlock()
}

func (s *PromptStore) path(name string) string {
	return filepath.Join(s.dir, name+".txt")
}

// seed creates the directory, default prompt files and README.
// Existing files are left untouched.
func (s *PromptStore) seed() {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		s.seedErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}
	files := map[string]string{"README.md": promptsReadme}
	for name, text := range defaultPrompts {
		files[name+".txt"] = text + "\n"
	}
	for name, content := range files {
		if err := writeIfMissing(filepath.Join(s.dir, name), content); err != nil {
			s.seedErr = err
			return
		}
	}
}

func writeIfMissing(path, content string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if errors.Is(err, fs.ErrExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}
	if _, err := f.WriteString(content); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}
