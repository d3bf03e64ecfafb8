package frameworks

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/terra-clan/compliance-engine/internal/models"
)

// Loader manages loading and caching of framework definitions
type Loader struct {
	mu         sync.RWMutex
	frameworks map[string]*models.Framework
}

// NewLoader creates a new framework loader
func NewLoader() *Loader {
	return &Loader{
		frameworks: make(map[string]*models.Framework),
	}
}

// LoadFromDir loads all YAML frameworks from a directory. Files that fail to
// parse or validate are skipped with a warning.
func (l *Loader) LoadFromDir(dir string) error {
	slog.Info("loading frameworks from directory", "dir", dir)

	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("failed to stat frameworks dir: %w", err)
	}

	patterns := []string{"*.yaml", "*.yml"}
	var files []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			continue
		}
		files = append(files, matches...)
	}

	loaded := 0
	for _, file := range files {
		if err := l.LoadFromFile(file); err != nil {
			slog.Warn("failed to load framework", "file", file, "error", err)
			continue
		}
		loaded++
	}

	slog.Info("frameworks loaded", "count", loaded, "total_files", len(files))
	return nil
}

// LoadFromFile loads a single framework from a YAML file
func (l *Loader) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	return l.LoadFromBytes(data)
}

// LoadFromBytes parses, validates and registers a framework definition
func (l *Loader) LoadFromBytes(data []byte) error {
	var fw models.Framework
	if err := yaml.Unmarshal(data, &fw); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := Validate(&fw); err != nil {
		return err
	}

	l.Add(&fw)
	slog.Info("framework loaded", "id", fw.ID, "version", fw.Version, "questions", fw.QuestionCount())
	return nil
}

// Get retrieves a framework by ID
func (l *Loader) Get(id string) *models.Framework {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.frameworks[id]
}

// List returns all loaded frameworks ordered by ID
func (l *Loader) List() []*models.Framework {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]*models.Framework, 0, len(l.frameworks))
	for _, fw := range l.frameworks {
		result = append(result, fw)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// Add programmatically adds a framework, replacing any with the same ID
func (l *Loader) Add(fw *models.Framework) {
	normalize(fw)
	fw.Digest = fw.ContentDigest()

	l.mu.Lock()
	defer l.mu.Unlock()
	l.frameworks[fw.ID] = fw
}

// Remove removes a framework by ID
func (l *Loader) Remove(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.frameworks, id)
}

// normalize applies defaults so the engine sees canonical values.
func normalize(fw *models.Framework) {
	if fw.MaxAnswer <= 0 {
		fw.MaxAnswer = models.DefaultMaxAnswerValue
	}
	for si := range fw.Sections {
		s := &fw.Sections[si]
		s.Priority = s.Priority.Normalize()
		for ci := range s.Categories {
			qs := s.Categories[ci].Questions
			for qi := range qs {
				if qs[qi].Priority != "" {
					qs[qi].Priority = qs[qi].Priority.Normalize()
				}
			}
		}
	}
}
