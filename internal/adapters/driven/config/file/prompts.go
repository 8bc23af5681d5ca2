package file

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/qpro/internal/core/ports/driven"
	"github.com/custodia-labs/qpro/internal/logger"
)

var _ driven.PromptStore = (*PromptStore)(nil)

// defaults holds the built-in prompts and the README seeded next to them.
//
//go:embed defaults/*
var defaults embed.FS

// verbs is how many %s placeholders each template must keep.
var verbs = map[string]int{
	driven.PromptDraft: 2,
}

// PromptStore serves prompt templates from <dir>/<name>.txt. The
// directory is seeded with the built-in prompts on first Load, and a
// missing or broken file falls back to the built-in text.
type PromptStore struct {
	dir string

	seedOnce sync.Once
	seedErr  error

	mu    sync.RWMutex
	cache map[string]string
}

// NewPromptStore creates a store rooted at dir, or ~/.qpro/prompts when
// dir is empty. Nothing touches disk until the first Load.
func NewPromptStore(dir string) (*PromptStore, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("prompts: resolve home: %w", err)
		}
		dir = filepath.Join(home, ".qpro", "prompts")
	}
	return &PromptStore{dir: dir, cache: make(map[string]string)}, nil
}

// Load returns the template called name.
func (s *PromptStore) Load(name string) (string, error) {
	builtin, known := builtinPrompt(name)

	s.seedOnce.Do(s.seed)
	if s.seedErr != nil {
		if known {
			return builtin, nil
		}
		return "", s.seedErr
	}

	s.mu.RLock()
	cached, ok := s.cache[name]
	s.mu.RUnlock()
	if ok {
		return cached, nil
	}

	prompt, err := s.read(name)
	if err != nil {
		if !known {
			return "", fmt.Errorf("prompts: load %q: %w", name, err)
		}
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("prompts: %v; using built-in %s prompt", err, name)
		}
		prompt = builtin
	}

	s.mu.Lock()
	if existing, ok := s.cache[name]; ok {
		prompt = existing
	} else {
		s.cache[name] = prompt
	}
	s.mu.Unlock()
	return prompt, nil
}

// Reload drops cached templates so edits on disk are picked up.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	clear(s.cache)
	s.mu.Unlock()
}

// Dir returns the prompt directory.
func (s *PromptStore) Dir() string {
	return s.dir
}

// read loads and validates <dir>/<name>.txt.
func (s *PromptStore) read(name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, name+".txt"))
	if err != nil {
		return "", err
	}
	prompt := strings.TrimSpace(string(data))
	if want, ok := verbs[name]; ok {
		if got := strings.Count(prompt, "%s"); got != want {
			return "", fmt.Errorf("%s.txt has %d %%s placeholders, want %d", name, got, want)
		}
	}
	return prompt, nil
}

// seed copies every embedded default that is not already on disk.
func (s *PromptStore) seed() {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		s.seedErr = fmt.Errorf("prompts: create %s: %w", s.dir, err)
		return
	}

	s.seedErr = fs.WalkDir(defaults, "defaults", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		target := filepath.Join(s.dir, path.Base(p))
		if _, err := os.Stat(target); !errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		data, err := defaults.ReadFile(p)
		if err != nil {
			return err
		}
		if err := os.WriteFile(target, data, 0o600); err != nil {
			return fmt.Errorf("prompts: seed %s: %w", target, err)
		}
		return nil
	})
}

func builtinPrompt(name string) (string, bool) {
	data, err := defaults.ReadFile("defaults/" + name + ".txt")
	if err != nil {
		return "", false
	}
	return strings.TrimSpace(string(data)), true
}
