package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// loadPromptFiles replaces inline prompt text with file content wherever a file path is set.
func (c *Config) loadPromptFiles() error {
	ops := map[string]*OperationAIConfig{
		"ingest":    &c.AI.Ingest,
		"interview": &c.AI.Interview,
		"chat":      &c.AI.Chat,
		"gap":       &c.AI.Gap,
	}

	for name, op := range ops {
		if op.Prompts.SystemFile != "" {
			content, err := loadPromptFromFile(op.Prompts.SystemFile, "system", name)
			if err != nil {
				return err
			}
			op.Prompts.System = content
		}
		if op.Prompts.UserFile != "" {
			content, err := loadPromptFromFile(op.Prompts.UserFile, "user", name)
			if err != nil {
				return err
			}
			op.Prompts.User = content
		}
	}

	return nil
}

// loadPromptFromFile loads a prompt from a file with proper error handling and logging
func loadPromptFromFile(filePath, promptType, operation string) (string, error) {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path for %s %s prompt file '%s': %w", promptType, operation, filePath, err)
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%s %s prompt file not found: %s", promptType, operation, absPath)
		}
		return "", fmt.Errorf("failed to read %s %s prompt file '%s': %w", promptType, operation, absPath, err)
	}

	trimmedContent := strings.TrimSpace(string(content))
	if trimmedContent == "" {
		return "", fmt.Errorf("%s %s prompt file '%s' is empty", promptType, operation, absPath)
	}

	log.Printf("[CONFIG] Successfully loaded %s %s prompt from file: %s (%d characters)",
		promptType, operation, absPath, len(trimmedContent))

	return trimmedContent, nil
}
