package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// LoadSystemPrompt reads a system prompt from path. The file must exist and contain
// non-whitespace text.
func LoadSystemPrompt(path string) (string, error) {
	content, err := os.ReadFile(path) // #nosec G304 - path comes from configuration
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("system prompt file not found: %s", path)
		}
		return "", fmt.Errorf("failed to read system prompt: %w", err)
	}

	prompt := string(content)
	if err := ValidateSystemPrompt(prompt); err != nil {
		return "", err
	}

	return prompt, nil
}

// ValidateSystemPrompt rejects prompts that are empty after trimming whitespace.
func ValidateSystemPrompt(prompt string) error {
	if strings.TrimSpace(prompt) == "" {
		return errors.New("system prompt is empty")
	}
	return nil
}
