package common

// Key codes delivered to window key callbacks.
// These values match GLFW key codes which use ASCII values for printable keys.
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Key
const (
	KeyP     = 80 // P key (ASCII)
	KeyR     = 82 // R key (ASCII)
	KeySpace = 32 // Spacebar (ASCII)
)
