package tutor

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
)

//go:embed instructions.md
var defaultInstructions string

// DefaultInstructions returns the system instruction compiled into the binary.
func DefaultInstructions() string {
	return defaultInstructions
}

// LoadInstructions returns the instruction text from path, or the compiled-in
// text when path is empty.
func LoadInstructions(path string) (string, error) {
	if path == "" {
		return defaultInstructions, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read instructions: %w", err)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", fmt.Errorf("instructions file %s is empty", path)
	}
	return text, nil
}
