package llm

import (
	"context"
	"fmt"
	"strings"
)

// NewProvider builds a provider by name. Supported providers are "openai"
// (and anything speaking its chat completions protocol via baseURL) and
// "gemini".
func NewProvider(ctx context.Context, name, apiKey, baseURL string) (Provider, error) {
	switch strings.ToLower(name) {
	case "openai", "":
		return NewOpenAI(baseURL, apiKey), nil
	case "gemini":
		return NewGemini(ctx, apiKey)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", name)
	}
}
