package config

import "sync"

// Prompt operations
const (
	PromptOperationGlobal  = "global"
	PromptOperationSuggest = "suggest"
)

var (
	loadedPromptsMu sync.RWMutex
	loadedPrompts   = map[string]LoadedPrompts{}
)

// LoadedPrompts holds the content of prompts loaded from files
type LoadedPrompts struct {
	SystemPrompt string
	UserPrompt   string
}

// GetPromptsForOperation returns a copy of the file-loaded prompts for an
// operation, falling back to the global ones field by field
func GetPromptsForOperation(operation string) LoadedPrompts {
	loadedPromptsMu.RLock()
	defer loadedPromptsMu.RUnlock()

	result := loadedPrompts[operation]
	global := loadedPrompts[PromptOperationGlobal]
	if result.SystemPrompt == "" {
		result.SystemPrompt = global.SystemPrompt
	}
	if result.UserPrompt == "" {
		result.UserPrompt = global.UserPrompt
	}
	return result
}

func storeLoadedPrompts(operation string, p LoadedPrompts) {
	loadedPromptsMu.Lock()
	defer loadedPromptsMu.Unlock()
	loadedPrompts[operation] = p
}
