package highlight

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"go.yaml.in/yaml/v3"

	"loglens/internal/app/errors"
	"loglens/internal/config"
	"loglens/internal/config/logger"
)

// Definition is one keyword highlight. The id is session-scoped; the
// persisted identity is the keyword+color pair.
type Definition struct {
	ID      string `yaml:"id"`
	Keyword string `yaml:"keyword"`
	Color   string `yaml:"color"`
	Checked bool   `yaml:"checked"`
}

// Store keeps highlight definitions and persists them across restarts
type Store interface {
	List() []Definition
	Upsert(keyword, color string, checked bool) (Definition, error)
	Toggle(id string, checked bool) error
	Remove(id string) error
}

// store implements the Store interface
type store struct {
	fs   afero.Fs
	path string
	log  logger.Logger

	mu   sync.Mutex
	defs []Definition
}

// persistedFile is the on-disk YAML shape
type persistedFile struct {
	Highlights []Definition `yaml:"highlights"`
}

// NewStore creates a store persisting to the configured highlights file
func NewStore(cfg *config.Config, log logger.Logger) Store {
	return NewStoreWithFs(afero.NewOsFs(), cfg, log)
}

// NewStoreWithFs creates a store over an explicit filesystem
func NewStoreWithFs(fs afero.Fs, cfg *config.Config, log logger.Logger) Store {
	s := &store{
		fs:   fs,
		path: cfg.Highlights,
		log:  log.WithComponent("HIGHLIGHT"),
	}

	s.load()

	return s
}

// List returns the definitions ordered by keyword then color
func (s *store) List() []Definition {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]Definition, len(s.defs))
	copy(result, s.defs)

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Keyword != result[j].Keyword {
			return result[i].Keyword < result[j].Keyword
		}

		return result[i].Color < result[j].Color
	})

	return result
}

// Upsert creates a definition, or updates the checked state of the
// existing one with the same keyword and color.
func (s *store) Upsert(keyword, color string, checked bool) (Definition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, def := range s.defs {
		if def.Keyword == keyword && def.Color == color {
			s.defs[i].Checked = checked

			return s.defs[i], s.persist()
		}
	}

	def := Definition{
		ID:      uuid.NewString(),
		Keyword: keyword,
		Color:   color,
		Checked: checked,
	}
	s.defs = append(s.defs, def)

	return def, s.persist()
}

// Toggle flips one definition's checked state
func (s *store) Toggle(id string, checked bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, def := range s.defs {
		if def.ID == id {
			s.defs[i].Checked = checked

			return s.persist()
		}
	}

	return fmt.Errorf("%w: %s", errors.ErrHighlightNotFound, id)
}

// Remove deletes one definition
func (s *store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, def := range s.defs {
		if def.ID == id {
			s.defs = append(s.defs[:i], s.defs[i+1:]...)

			return s.persist()
		}
	}

	return fmt.Errorf("%w: %s", errors.ErrHighlightNotFound, id)
}

// load reads the persisted definitions; ids are regenerated per session
func (s *store) load() {
	if s.path == "" {
		return
	}

	content, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		return
	}

	var file persistedFile
	if err := yaml.Unmarshal(content, &file); err != nil {
		s.log.Warn().Err(err).Msgf("Ignoring unreadable highlights file: %s", s.path)

		return
	}

	for i := range file.Highlights {
		file.Highlights[i].ID = uuid.NewString()
	}

	s.defs = file.Highlights
}

// persist writes the definitions back to disk; callers hold the lock
func (s *store) persist() error {
	if s.path == "" {
		return nil
	}

	data, err := yaml.Marshal(persistedFile{Highlights: s.defs})
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrFailedToPersistHighlight, err)
	}

	if err := afero.WriteFile(s.fs, s.path, data, 0644); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrFailedToPersistHighlight, err)
	}

	return nil
}
