// Package llm abstracts the generative backend behind a single batched
// completion call. Providers return up to N completion strings for one
// request; callers must tolerate fewer.
package llm

import "context"

// Message is one role-tagged chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is one batched completion request.
type Request struct {
	Model       string
	Messages    []Message
	Temperature float32
	MaxTokens   int
	N           int
}

// Provider is a generative backend capable of returning several
// independent completions for the same request.
type Provider interface {
	// Complete returns up to req.N completion strings. It returns an
	// error only when the backend call itself fails; a short candidate
	// list is not an error.
	Complete(ctx context.Context, req Request) ([]string, error)
	Close() error
}
