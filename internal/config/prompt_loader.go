package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"atscore/internal/errors"
)

// maxPromptFileSize bounds a prompt file; prompts are sent with every request
const maxPromptFileSize = 64 * 1024

// promptFiles lists every configured prompt file by operation
func (c *Config) promptFiles() map[string]PromptConfig {
	return map[string]PromptConfig{
		PromptOperationGlobal:  c.AI.CustomPrompts,
		PromptOperationSuggest: c.AI.Suggest.CustomPrompts,
	}
}

// loadPromptsFromFiles loads custom prompts from external files if file paths are specified
func (c *Config) loadPromptsFromFiles() error {
	count := 0
	for op, prompts := range c.promptFiles() {
		var loaded LoadedPrompts
		var err error

		if prompts.SystemPromptFile != "" {
			if loaded.SystemPrompt, err = loadPromptFromFile(prompts.SystemPromptFile, "system", op); err != nil {
				return err
			}
			count++
		}
		if prompts.UserPromptFile != "" {
			if loaded.UserPrompt, err = loadPromptFromFile(prompts.UserPromptFile, "user", op); err != nil {
				return err
			}
			count++
		}
		storeLoadedPrompts(op, loaded)
	}

	if count == 0 {
		log.Println("[CONFIG] No custom prompts loaded - using built-in defaults")
	} else {
		log.Printf("[CONFIG] Total custom prompts loaded: %d", count)
	}
	return nil
}

// loadPromptFromFile reads and trims one prompt file
func loadPromptFromFile(filePath, promptType, operation string) (string, error) {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return "", errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("failed to resolve %s %s prompt file '%s'", operation, promptType, filePath), err)
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		return "", errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("failed to read %s %s prompt file '%s'", operation, promptType, absPath), err)
	}

	trimmed := strings.TrimSpace(string(content))
	if trimmed == "" {
		return "", errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("%s %s prompt file '%s' is empty", operation, promptType, absPath), nil)
	}

	log.Printf("[CONFIG] Loaded %s %s prompt from file: %s (%d characters)",
		operation, promptType, absPath, len(trimmed))
	return trimmed, nil
}

// validatePromptFiles checks that every configured prompt file exists and
// is within the size limit before any is loaded
func (c *Config) validatePromptFiles() error {
	var problems []string

	check := func(filePath, promptType, operation string) {
		if filePath == "" {
			return
		}
		absPath, err := filepath.Abs(filePath)
		if err != nil {
			problems = append(problems, fmt.Sprintf("invalid path for %s %s prompt: %s", operation, promptType, filePath))
			return
		}
		info, err := os.Stat(absPath)
		switch {
		case os.IsNotExist(err):
			problems = append(problems, fmt.Sprintf("%s %s prompt file not found: %s", operation, promptType, absPath))
		case err != nil:
			problems = append(problems, fmt.Sprintf("%s %s prompt file not accessible: %s", operation, promptType, absPath))
		case info.IsDir():
			problems = append(problems, fmt.Sprintf("%s %s prompt path is a directory: %s", operation, promptType, absPath))
		case info.Size() > maxPromptFileSize:
			problems = append(problems, fmt.Sprintf("%s %s prompt file too large: %s (%d bytes, limit %d)",
				operation, promptType, absPath, info.Size(), maxPromptFileSize))
		}
	}

	for op, prompts := range c.promptFiles() {
		check(prompts.SystemPromptFile, "system", op)
		check(prompts.UserPromptFile, "user", op)
	}

	if len(problems) > 0 {
		return errors.NewConfigError(errors.ErrCodeInvalidConfig,
			"prompt file validation failed:\n"+strings.Join(problems, "\n"), nil)
	}
	return nil
}
