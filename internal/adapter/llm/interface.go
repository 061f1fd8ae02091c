// Package llm provides an abstraction for OpenAI-compatible chat API clients.
package llm

import "context"

// StreamCallback is called for each chunk in a streaming response.
type StreamCallback func(chunk *StreamChunk) error

// Client defines the interface for LLM API operations.
type Client interface {
	// CreateChatCompletion sends a chat completion request (non-streaming).
	CreateChatCompletion(ctx context.Context, req *ChatCompletionRequest) (*ChatCompletionResponse, error)

	// CreateChatCompletionStream sends a streaming chat completion request.
	// The callback is called for each chunk received, in order.
	CreateChatCompletionStream(ctx context.Context, req *ChatCompletionRequest, callback StreamCallback) (*Usage, error)
}

// Ensure implementations satisfy the interface.
var (
	_ Client = (*HTTPClient)(nil)
	_ Client = (*MockClient)(nil)
)
