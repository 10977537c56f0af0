package shader

// LibraryBuilderOption is a functional option applied to a library during NewLibrary.
type LibraryBuilderOption func(*library)

// WithDefaultShaders controls whether the built-in default.vert and default.frag shaders are registered.
//
// Parameters:
//   - enabled: true (default) to register the built-in shaders
//
// Returns:
//   - LibraryBuilderOption: a function that applies the setting to a library
func WithDefaultShaders(enabled bool) LibraryBuilderOption {
	return func(l *library) {
		l.withDefaults = enabled
	}
}
