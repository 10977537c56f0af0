package loader

import (
	"errors"
	"fmt"
	"maps"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Carmen-Shannon/oxy-scene/engine/model"
	"github.com/sirupsen/logrus"
)

// LoaderBackendType identifies the manifest format backend to use.
type LoaderBackendType int

const (
	// BackendTypeYAML selects the YAML geometry manifest backend (.yaml, .yml).
	BackendTypeYAML LoaderBackendType = iota

	// BackendTypeTOML selects the TOML geometry manifest backend (.toml).
	BackendTypeTOML
)

var (
	// ErrUnsupportedFormat is returned when a manifest extension has no backend.
	ErrUnsupportedFormat = errors.New("loader: unsupported manifest format")

	// ErrDuplicateModel is returned when a model name is already cached.
	ErrDuplicateModel = errors.New("loader: duplicate model name")
)

// loader is the implementation of the Loader interface.
type loader struct {
	mu sync.RWMutex

	log logrus.FieldLogger

	modelCache map[string]model.Model

	backends map[LoaderBackendType]loaderBackend
}

// Loader loads geometry into models and keeps them in a name-keyed cache. The cache is the
// model set handed to the scene manager.
type Loader interface {
	// LoadManifest reads a geometry manifest and caches every model it declares. The backend
	// is selected from the file extension. Either every model of the manifest is cached or none.
	//
	// Parameters:
	//   - path: the manifest path; mesh file paths inside it are relative to its directory
	//
	// Returns:
	//   - []model.Model: the loaded models in manifest order
	//   - error: an error if the manifest or a mesh file cannot be read, or a name is taken
	LoadManifest(path string) ([]model.Model, error)

	// Add caches a model built elsewhere, e.g. by Cube or Quad.
	//
	// Parameters:
	//   - m: the model to cache
	//
	// Returns:
	//   - error: ErrDuplicateModel if the name is taken
	Add(m model.Model) error

	// Get retrieves a cached model by name. Returns nil if not found.
	//
	// Parameters:
	//   - name: the model name
	//
	// Returns:
	//   - model.Model: the cached model or nil
	Get(name string) model.Model

	// Models returns a copy of the model cache.
	//
	// Returns:
	//   - map[string]model.Model: all cached models keyed by name
	Models() map[string]model.Model

	// Clear empties the cache. Device buffers are not released; that is the scene manager's job.
	Clear()
}

var _ Loader = &loader{}

// NewLoader creates a new Loader with every manifest backend registered.
//
// Parameters:
//   - options: functional options configuring the loader
//
// Returns:
//   - Loader: the loader
func NewLoader(options ...LoaderBuilderOption) Loader {
	l := &loader{
		log:        logrus.StandardLogger(),
		modelCache: make(map[string]model.Model),
		backends: map[LoaderBackendType]loaderBackend{
			BackendTypeYAML: newManifestBackend(BackendTypeYAML),
			BackendTypeTOML: newManifestBackend(BackendTypeTOML),
		},
	}
	for _, opt := range options {
		opt(l)
	}
	return l
}

// BackendForPath selects the manifest backend from a file extension.
//
// Parameters:
//   - path: the manifest path
//
// Returns:
//   - LoaderBackendType: the backend type
//   - error: ErrUnsupportedFormat for unknown extensions
func BackendForPath(path string) (LoaderBackendType, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return BackendTypeYAML, nil
	case ".toml":
		return BackendTypeTOML, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

func (l *loader) LoadManifest(path string) ([]model.Model, error) {
	bt, err := BackendForPath(path)
	if err != nil {
		return nil, err
	}
	models, err := l.backends[bt].Load(path)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	seen := make(map[string]bool, len(models))
	for _, m := range models {
		if _, ok := l.modelCache[m.Name()]; ok || seen[m.Name()] {
			return nil, fmt.Errorf("%w: %s in %s", ErrDuplicateModel, m.Name(), path)
		}
		seen[m.Name()] = true
	}
	for _, m := range models {
		l.modelCache[m.Name()] = m
	}

	l.log.WithFields(logrus.Fields{
		"manifest": path,
		"models":   len(models),
	}).Debug("loaded geometry manifest")
	return models, nil
}

func (l *loader) Add(m model.Model) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.modelCache[m.Name()]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateModel, m.Name())
	}
	l.modelCache[m.Name()] = m
	return nil
}

func (l *loader) Get(name string) model.Model {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.modelCache[name]
}

func (l *loader) Models() map[string]model.Model {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return maps.Clone(l.modelCache)
}

func (l *loader) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	clear(l.modelCache)
}
