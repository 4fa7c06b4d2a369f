package recipe

import (
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/okapian/goosectl/internal/logging"
)

// Manifest describes one saved recipe file.
type Manifest struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Path         string    `json:"path"`
	IsGlobal     bool      `json:"isGlobal"`
	Recipe       Recipe    `json:"recipe"`
	LastModified time.Time `json:"lastModified"`
}

// Store is the on-disk recipe library: a global directory shared across
// projects plus an optional project-local one.
type Store struct {
	globalDir string
	localDir  string
	log       *logging.Logger
}

// NewStore creates a store over the given directories. localDir may be
// empty when no project-local library applies.
func NewStore(globalDir, localDir string, log *logging.Logger) *Store {
	return &Store{globalDir: globalDir, localDir: localDir, log: log.Sub("recipes")}
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// slugify turns a recipe title into its filename stem.
func slugify(title string) string {
	s := slugPattern.ReplaceAllString(strings.ToLower(title), "-")
	s = strings.Trim(s, "-")
	if s == "" {
		s = "recipe"
	}
	return s
}

// manifestID derives a stable 16-hex id from the recipe's absolute path.
func manifestID(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	h := fnv.New64a()
	h.Write([]byte(abs))
	return fmt.Sprintf("%016x", h.Sum64())
}

// Save validates the recipe and writes it to the chosen library as YAML.
// Validation runs before anything touches disk.
func (s *Store) Save(r *Recipe, global bool) (Manifest, error) {
	if err := r.Validate(); err != nil {
		return Manifest{}, err
	}

	if existing, err := s.findByTitle(r.Title); err != nil {
		return Manifest{}, err
	} else if existing != nil {
		return Manifest{}, fmt.Errorf("a recipe titled %q already exists at %s", r.Title, existing.Path)
	}

	dir := s.dirFor(global)
	if dir == "" {
		return Manifest{}, fmt.Errorf("no project-local recipe directory configured")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return Manifest{}, fmt.Errorf("creating recipe directory: %w", err)
	}

	data, err := yaml.Marshal(r)
	if err != nil {
		return Manifest{}, fmt.Errorf("encoding recipe: %w", err)
	}
	path := filepath.Join(dir, slugify(r.Title)+".yaml")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return Manifest{}, fmt.Errorf("writing recipe: %w", err)
	}

	s.log.Info().Str("title", r.Title).Str("path", path).Msg("recipe saved")
	return Manifest{
		ID:           manifestID(path),
		Name:         r.Title,
		Path:         path,
		IsGlobal:     global,
		Recipe:       *r,
		LastModified: time.Now(),
	}, nil
}

// Import parses a recipe from a file path or a deep link, validates it,
// and saves it. Nothing is written when validation fails.
func (s *Store) Import(source string, global bool) (Manifest, error) {
	var (
		r   *Recipe
		err error
	)
	if strings.HasPrefix(source, DeeplinkScheme+"://") {
		r, err = DecodeDeeplink(source)
	} else {
		r, err = FromFile(source)
	}
	if err != nil {
		return Manifest{}, err
	}
	return s.Save(r, global)
}

// List returns manifests for every readable recipe across both
// libraries, newest first. Unreadable or malformed files are skipped
// with a warning.
func (s *Store) List() ([]Manifest, error) {
	var manifests []Manifest
	for _, lib := range []struct {
		dir    string
		global bool
	}{{s.globalDir, true}, {s.localDir, false}} {
		if lib.dir == "" {
			continue
		}
		found, err := s.scan(lib.dir, lib.global)
		if err != nil {
			return nil, err
		}
		manifests = append(manifests, found...)
	}

	sort.Slice(manifests, func(i, j int) bool {
		return manifests[i].LastModified.After(manifests[j].LastModified)
	})
	return manifests, nil
}

func (s *Store) scan(dir string, global bool) ([]Manifest, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading recipe directory %s: %w", dir, err)
	}

	var manifests []Manifest
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".yaml" && ext != ".yml" && ext != ".json" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		r, err := FromFile(path)
		if err != nil {
			s.log.Warn().Err(err).Str("path", path).Msg("skipping unreadable recipe")
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		manifests = append(manifests, Manifest{
			ID:           manifestID(path),
			Name:         r.Title,
			Path:         path,
			IsGlobal:     global,
			Recipe:       *r,
			LastModified: info.ModTime(),
		})
	}
	return manifests, nil
}

// Get returns the manifest with the given id.
func (s *Store) Get(id string) (Manifest, error) {
	manifests, err := s.List()
	if err != nil {
		return Manifest{}, err
	}
	for _, m := range manifests {
		if m.ID == id {
			return m, nil
		}
	}
	return Manifest{}, fmt.Errorf("no recipe with id %s", id)
}

// Delete removes the recipe file with the given manifest id.
func (s *Store) Delete(id string) error {
	m, err := s.Get(id)
	if err != nil {
		return err
	}
	if err := os.Remove(m.Path); err != nil {
		return fmt.Errorf("deleting recipe: %w", err)
	}
	s.log.Info().Str("title", m.Name).Str("path", m.Path).Msg("recipe deleted")
	return nil
}

func (s *Store) dirFor(global bool) string {
	if global {
		return s.globalDir
	}
	return s.localDir
}

func (s *Store) findByTitle(title string) (*Manifest, error) {
	manifests, err := s.List()
	if err != nil {
		return nil, err
	}
	for _, m := range manifests {
		if strings.EqualFold(m.Name, title) {
			return &m, nil
		}
	}
	return nil, nil
}
