package device

import (
	"fmt"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

// PixelFormat is a backend-neutral render target format.
type PixelFormat int

const (
	// PixelFormatUndefined means "no attachment".
	PixelFormatUndefined PixelFormat = iota

	// PixelFormatSurface resolves to whatever format the presentation surface prefers.
	PixelFormatSurface

	PixelFormatRGBA8Unorm
	PixelFormatRGBA8UnormSrgb
	PixelFormatBGRA8Unorm
	PixelFormatBGRA8UnormSrgb
	PixelFormatRGBA16Float
	PixelFormatRGBA32Float
	PixelFormatDepth24Plus
	PixelFormatDepth24PlusStencil8
	PixelFormatDepth32Float
)

var pixelFormatNames = map[PixelFormat]string{
	PixelFormatUndefined:           "none",
	PixelFormatSurface:             "surface",
	PixelFormatRGBA8Unorm:          "rgba8unorm",
	PixelFormatRGBA8UnormSrgb:      "rgba8unormsrgb",
	PixelFormatBGRA8Unorm:          "bgra8unorm",
	PixelFormatBGRA8UnormSrgb:      "bgra8unormsrgb",
	PixelFormatRGBA16Float:         "rgba16float",
	PixelFormatRGBA32Float:         "rgba32float",
	PixelFormatDepth24Plus:         "depth24plus",
	PixelFormatDepth24PlusStencil8: "depth24plusstencil8",
	PixelFormatDepth32Float:        "depth32float",
}

var pixelFormatsByName = func() map[string]PixelFormat {
	m := make(map[string]PixelFormat, len(pixelFormatNames)+1)
	for f, name := range pixelFormatNames {
		m[name] = f
	}
	m[""] = PixelFormatUndefined
	return m
}()

// ParsePixelFormat parses a format name from a scene description. Matching ignores case,
// underscores, dashes and dots, so "RGBA8_UNORM", "rgba8unorm" and "Depth24Plus-Stencil8" all work.
//
// Parameters:
//   - name: the format name
//
// Returns:
//   - PixelFormat: the parsed format
//   - error: ErrUnknownPixelFormat if the name is not a known format
func ParsePixelFormat(name string) (PixelFormat, error) {
	key := strings.Map(func(r rune) rune {
		switch r {
		case '_', '-', '.', ' ':
			return -1
		}
		return r
	}, strings.ToLower(name))
	f, ok := pixelFormatsByName[key]
	if !ok {
		return PixelFormatUndefined, fmt.Errorf("%w %q", ErrUnknownPixelFormat, name)
	}
	return f, nil
}

// String returns the canonical lower-case format name.
func (f PixelFormat) String() string {
	if name, ok := pixelFormatNames[f]; ok {
		return name
	}
	return fmt.Sprintf("format(%d)", int(f))
}

// IsDepth reports whether the format is a depth or depth/stencil format.
func (f PixelFormat) IsDepth() bool {
	switch f {
	case PixelFormatDepth24Plus, PixelFormatDepth24PlusStencil8, PixelFormatDepth32Float:
		return true
	}
	return false
}

// toWGPU maps a PixelFormat onto the WebGPU texture format. PixelFormatSurface maps to
// the provided surface format.
func (f PixelFormat) toWGPU(surface wgpu.TextureFormat) wgpu.TextureFormat {
	switch f {
	case PixelFormatSurface:
		return surface
	case PixelFormatRGBA8Unorm:
		return wgpu.TextureFormatRGBA8Unorm
	case PixelFormatRGBA8UnormSrgb:
		return wgpu.TextureFormatRGBA8UnormSrgb
	case PixelFormatBGRA8Unorm:
		return wgpu.TextureFormatBGRA8Unorm
	case PixelFormatBGRA8UnormSrgb:
		return wgpu.TextureFormatBGRA8UnormSrgb
	case PixelFormatRGBA16Float:
		return wgpu.TextureFormatRGBA16Float
	case PixelFormatRGBA32Float:
		return wgpu.TextureFormatRGBA32Float
	case PixelFormatDepth24Plus:
		return wgpu.TextureFormatDepth24Plus
	case PixelFormatDepth24PlusStencil8:
		return wgpu.TextureFormatDepth24PlusStencil8
	case PixelFormatDepth32Float:
		return wgpu.TextureFormatDepth32Float
	default:
		return wgpu.TextureFormatUndefined
	}
}
