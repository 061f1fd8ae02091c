package llm

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// MockClient is a deterministic implementation of Client for local
// development and tests. Structured-output requests return an empty
// extraction so the rule-based fallback carries the conversation.
type MockClient struct{}

// NewMockClient creates a new mock LLM client.
func NewMockClient() *MockClient {
	return &MockClient{}
}

// CreateChatCompletion returns a mock response.
func (m *MockClient) CreateChatCompletion(ctx context.Context, req *ChatCompletionRequest) (*ChatCompletionResponse, error) {
	content := m.generateMockResponse(req)

	return &ChatCompletionResponse{
		ID:      fmt.Sprintf("mock-chatcmpl-%d", time.Now().UnixNano()),
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   req.Model,
		Choices: []Choice{
			{
				Index: 0,
				Message: &ChatMessage{
					Role:    "assistant",
					Content: content,
				},
				FinishReason: "stop",
			},
		},
		Usage: &Usage{
			PromptTokens:     m.estimateTokens(req),
			CompletionTokens: len(content) / 4,
			TotalTokens:      m.estimateTokens(req) + len(content)/4,
		},
	}, nil
}

// CreateChatCompletionStream simulates a streaming response.
func (m *MockClient) CreateChatCompletionStream(ctx context.Context, req *ChatCompletionRequest, callback StreamCallback) (*Usage, error) {
	content := m.generateMockResponse(req)
	id := fmt.Sprintf("mock-chatcmpl-%d", time.Now().UnixNano())
	created := time.Now().Unix()

	chunks := m.splitIntoChunks(content, 10)

	for i, chunk := range chunks {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		finishReason := ""
		if i == len(chunks)-1 {
			finishReason = "stop"
		}

		streamChunk := &StreamChunk{
			ID:      id,
			Object:  "chat.completion.chunk",
			Created: created,
			Model:   req.Model,
			Choices: []Choice{
				{
					Index: 0,
					Delta: &ChatMessage{
						Role:    "assistant",
						Content: chunk,
					},
					FinishReason: finishReason,
				},
			},
		}

		if err := callback(streamChunk); err != nil {
			return nil, err
		}
	}

	usage := &Usage{
		PromptTokens:     m.estimateTokens(req),
		CompletionTokens: len(content) / 4,
		TotalTokens:      m.estimateTokens(req) + len(content)/4,
	}

	return usage, nil
}

func (m *MockClient) generateMockResponse(req *ChatCompletionRequest) string {
	// Structured extraction requests get an empty result; the caller's
	// rule-based fallback takes over.
	if req.ResponseFormat != nil {
		return `{"category":"","confidence":0,"rationale":"mock"}`
	}

	var lastSystem string
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == "system" {
			lastSystem = req.Messages[i].Content
			break
		}
	}

	// Echo the question line from the system prompt if one is present, so
	// mock conversations still walk the questionnaire.
	for _, line := range strings.Split(lastSystem, "\n") {
		if strings.HasPrefix(line, "Current question") {
			return "Thanks for sharing that. " + line
		}
	}

	return "Thank you for telling me. Could you say a little more about that?"
}

func (m *MockClient) estimateTokens(req *ChatCompletionRequest) int {
	total := 0
	for _, msg := range req.Messages {
		total += len(msg.Content) / 4
	}
	return total
}

func (m *MockClient) splitIntoChunks(s string, size int) []string {
	if size <= 0 {
		return []string{s}
	}
	var chunks []string
	runes := []rune(s)
	for i := 0; i < len(runes); i += size {
		end := i + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[i:end]))
	}
	if len(chunks) == 0 {
		chunks = []string{""}
	}
	return chunks
}
