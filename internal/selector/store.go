package selector

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"dashweave/internal/logging"
)

// RegistryFileName is the registry file a template directory must hold.
const RegistryFileName = "registry.yaml"

// registryFile is the on-disk layout of registry.yaml.
type registryFile struct {
	Templates map[string]Template `yaml:"templates"`
}

// Store holds the template bundles loaded from a directory: the
// registry metadata plus each template's example document. It reloads
// atomically, so readers always see one consistent registry version.
type Store struct {
	dir string

	mu        sync.RWMutex
	templates map[string]Template
	documents map[string]string
}

// LoadStore reads a template directory and returns a Store.
func LoadStore(dir string) (*Store, error) {
	s := &Store{dir: dir}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload re-reads the registry and all referenced documents. On error
// the previous contents stay in place.
func (s *Store) Reload() error {
	data, err := os.ReadFile(filepath.Join(s.dir, RegistryFileName))
	if err != nil {
		return fmt.Errorf("reading template registry: %w", err)
	}

	var reg registryFile
	if err := yaml.Unmarshal(data, &reg); err != nil {
		return fmt.Errorf("parsing template registry: %w", err)
	}

	templates := make(map[string]Template, len(reg.Templates))
	documents := make(map[string]string, len(reg.Templates))
	for id, tpl := range reg.Templates {
		tpl.ID = id
		if tpl.Document == "" {
			return fmt.Errorf("template %s: document path is required", id)
		}
		doc, err := os.ReadFile(filepath.Join(s.dir, tpl.Document))
		if err != nil {
			return fmt.Errorf("template %s: reading document: %w", id, err)
		}
		templates[id] = tpl
		documents[id] = string(doc)
	}

	s.mu.Lock()
	s.templates = templates
	s.documents = documents
	s.mu.Unlock()

	logging.Selector("Loaded %d templates from %s", len(templates), s.dir)
	return nil
}

// Templates returns all templates sorted by id.
func (s *Store) Templates() []Template {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Template, 0, len(s.templates))
	for _, tpl := range s.templates {
		out = append(out, tpl)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Get returns one template by id.
func (s *Store) Get(id string) (Template, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tpl, ok := s.templates[id]
	return tpl, ok
}

// Document returns a template's example document as raw JSON.
func (s *Store) Document(id string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	return doc, ok
}

// Count returns the number of loaded templates.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.templates)
}
