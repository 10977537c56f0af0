package shader

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"sync"
)

// DefaultVertexShader and DefaultFragmentShader name the built-in shaders every library
// registers unless WithDefaultShaders(false) is used.
const (
	DefaultVertexShader   = "default.vert"
	DefaultFragmentShader = "default.frag"
)

const shaderExt = ".wgsl"

var (
	// ErrShaderNotFound is returned by Lookup for an unregistered name.
	ErrShaderNotFound = errors.New("shader: not found")

	// ErrDuplicateShader is returned by Register when the name is taken.
	ErrDuplicateShader = errors.New("shader: duplicate name")

	// ErrUnknownStage is returned when a file name does not end in .vert.wgsl or .frag.wgsl.
	ErrUnknownStage = errors.New("shader: cannot infer stage from file name")
)

//go:embed defaults/*.wgsl
var defaultShaders embed.FS

// library is the implementation of the Library interface.
type library struct {
	mu      *sync.RWMutex
	shaders map[string]Shader

	withDefaults bool
}

// Library is a named collection of parsed shaders that effects resolve their
// vertex and fragment shader names against.
type Library interface {
	// Register parses and adds a shader.
	//
	// Parameters:
	//   - name: the name effects refer to the shader by
	//   - stage: the programmable stage of the shader
	//   - source: the WGSL source
	//
	// Returns:
	//   - error: ErrDuplicateShader if the name is taken, or a parse error
	Register(name string, stage Stage, source string) error

	// Lookup finds a shader by name.
	//
	// Parameters:
	//   - name: the shader name
	//
	// Returns:
	//   - Shader: the shader
	//   - error: an error wrapping ErrShaderNotFound if no shader has that name
	Lookup(name string) (Shader, error)

	// Names returns every registered shader name, sorted.
	//
	// Returns:
	//   - []string: the names
	Names() []string

	// LoadDir registers every *.vert.wgsl and *.frag.wgsl file in dir. The shader name is the
	// file name without the .wgsl extension, e.g. "water.frag".
	//
	// Parameters:
	//   - dir: the directory to scan (not recursive)
	//
	// Returns:
	//   - int: the number of shaders registered
	//   - error: the first error encountered
	LoadDir(dir string) (int, error)
}

var _ Library = &library{}

// NewLibrary creates a shader Library. The built-in default shaders are registered unless disabled.
//
// Parameters:
//   - options: functional options configuring the library
//
// Returns:
//   - Library: the new library
func NewLibrary(options ...LibraryBuilderOption) Library {
	l := &library{
		mu:           &sync.RWMutex{},
		shaders:      make(map[string]Shader),
		withDefaults: true,
	}
	for _, opt := range options {
		opt(l)
	}
	if l.withDefaults {
		if _, err := l.loadFS(defaultShaders, "defaults"); err != nil {
			panic(fmt.Sprintf("shader: built-in shaders failed to parse: %v", err))
		}
	}
	return l
}

// StageFromFileName infers the stage from a "<name>.vert.wgsl" or "<name>.frag.wgsl" file name.
//
// Parameters:
//   - fileName: the base file name
//
// Returns:
//   - string: the shader name (file name without .wgsl)
//   - Stage: the inferred stage
//   - error: ErrUnknownStage if the stage suffix is missing
func StageFromFileName(fileName string) (string, Stage, error) {
	name := strings.TrimSuffix(fileName, shaderExt)
	switch {
	case strings.HasSuffix(name, ".vert"):
		return name, StageVertex, nil
	case strings.HasSuffix(name, ".frag"):
		return name, StageFragment, nil
	default:
		return "", 0, fmt.Errorf("%w: %s", ErrUnknownStage, fileName)
	}
}

func (l *library) Register(name string, stage Stage, source string) error {
	s, err := NewShader(name, stage, source)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.shaders[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateShader, name)
	}
	l.shaders[name] = s
	return nil
}

func (l *library) Lookup(name string) (Shader, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	s, ok := l.shaders[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrShaderNotFound, name)
	}
	return s, nil
}

func (l *library) Names() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	names := make([]string, 0, len(l.shaders))
	for name := range l.shaders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (l *library) LoadDir(dir string) (int, error) {
	return l.loadFS(os.DirFS(dir), ".")
}

func (l *library) loadFS(fsys fs.FS, dir string) (int, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read shader directory: %w", err)
	}

	count := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), shaderExt) {
			continue
		}
		name, stage, err := StageFromFileName(e.Name())
		if err != nil {
			return count, err
		}
		src, err := fs.ReadFile(fsys, path.Join(dir, e.Name()))
		if err != nil {
			return count, fmt.Errorf("failed to read shader %s: %w", e.Name(), err)
		}
		if err := l.Register(name, stage, string(src)); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}
