package description

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Format identifies the encoding of a scene description.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
	FormatTOML
)

// String returns the lower-case format name.
func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatYAML:
		return "yaml"
	case FormatTOML:
		return "toml"
	default:
		return fmt.Sprintf("format(%d)", int(f))
	}
}

var (
	// ErrUnsupportedFormat is returned for file extensions with no decoder.
	ErrUnsupportedFormat = errors.New("description: unsupported format")

	// ErrConflictingKeys is returned when an entry sets a key and its long form to different values.
	ErrConflictingKeys = errors.New("description: conflicting keys")
)

// FormatForPath selects the decoder from a file extension.
//
// Parameters:
//   - path: the description file path
//
// Returns:
//   - Format: the format
//   - error: ErrUnsupportedFormat for unknown extensions
func FormatForPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// Parse decodes a description. Unknown fields are rejected in every format.
//
// Parameters:
//   - r: the encoded description
//   - format: the encoding
//
// Returns:
//   - *Description: the decoded description
//   - error: a decode error
func Parse(r io.Reader, format Format) (*Description, error) {
	var d Description
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&d); err != nil {
			return nil, fmt.Errorf("failed to decode json description: %w", err)
		}
	case FormatYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&d); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to decode yaml description: %w", err)
		}
	case FormatTOML:
		dec := toml.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&d); err != nil {
			return nil, fmt.Errorf("failed to decode toml description: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	if err := d.foldAliases(); err != nil {
		return nil, err
	}
	return &d, nil
}

// foldAlias moves an alias value into its canonical field. Setting both to different
// values is an error.
func foldAlias[T comparable](canonical, alias *T, key, aliasKey, entry string) error {
	var zero T
	if *alias == zero {
		return nil
	}
	if *canonical != zero && *canonical != *alias {
		return fmt.Errorf("%w: %s sets both %s and %s", ErrConflictingKeys, entry, key, aliasKey)
	}
	*canonical = *alias
	*alias = zero
	return nil
}

// foldAliases rewrites the long-form keys into the canonical fields so every format
// decodes to the same Description.
func (d *Description) foldAliases() error {
	for i := range d.Effects {
		e := &d.Effects[i]
		entry := fmt.Sprintf("effect %q", e.Name)
		if err := foldAlias(&e.VertexShader, &e.VertexShaderName, "vertex_shader", "vertex_shader_name", entry); err != nil {
			return err
		}
		if err := foldAlias(&e.FragmentShader, &e.FragmentShaderName, "fragment_shader", "fragment_shader_name", entry); err != nil {
			return err
		}
	}
	for i := range d.Actors {
		a := &d.Actors[i]
		entry := fmt.Sprintf("actor %q", a.Name)
		if err := foldAlias(&a.Effect, &a.EffectName, "effect", "effect_name", entry); err != nil {
			return err
		}
		if err := foldAlias(&a.Model, &a.ModelName, "model", "model_name", entry); err != nil {
			return err
		}
		if a.WorldPosition != nil {
			if a.Position != ([4]float32{}) && a.Position != *a.WorldPosition {
				return fmt.Errorf("%w: %s sets both position and world_position", ErrConflictingKeys, entry)
			}
			a.Position = *a.WorldPosition
			a.WorldPosition = nil
		}
	}
	for i := range d.RenderPasses {
		p := &d.RenderPasses[i]
		if err := foldAlias(&p.Actors, &p.ActorPattern, "actors", "actor_pattern", fmt.Sprintf("render pass %q", p.Name)); err != nil {
			return err
		}
	}
	return nil
}

// ParseBytes decodes a description held in memory.
//
// Parameters:
//   - data: the encoded description
//   - format: the encoding
//
// Returns:
//   - *Description: the decoded description
//   - error: a decode error
func ParseBytes(data []byte, format Format) (*Description, error) {
	return Parse(bytes.NewReader(data), format)
}

// ParseFile reads and decodes a description file, choosing the format by extension.
//
// Parameters:
//   - path: the description file path
//
// Returns:
//   - *Description: the decoded description
//   - error: a read or decode error
func ParseFile(path string) (*Description, error) {
	format, err := FormatForPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open description: %w", err)
	}
	defer f.Close()

	d, err := Parse(f, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}
