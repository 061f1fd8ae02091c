package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestHTTPClientCreateChatCompletion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %s, want /v1/chat/completions", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("auth header = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"cmpl-1","choices":[{"index":0,"message":{"role":"assistant","content":"hello"},"finish_reason":"stop"}]}`)
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, "test-key", 5*time.Second)
	resp, err := client.CreateChatCompletion(context.Background(), &ChatCompletionRequest{
		Model:    "test",
		Messages: []ChatMessage{{Role: "user", Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("CreateChatCompletion: %v", err)
	}
	if len(resp.Choices) != 1 || resp.Choices[0].Message.Content != "hello" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestHTTPClientErrorResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":{"message":"rate limited","type":"rate_limit"}}`)
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, "", 5*time.Second)
	_, err := client.CreateChatCompletion(context.Background(), &ChatCompletionRequest{Model: "test"})
	if err == nil {
		t.Fatal("expected error for non-200 response")
	}
	if !strings.Contains(err.Error(), "rate limited") {
		t.Errorf("error = %v, want rate limit details", err)
	}
}

func TestHTTPClientStreamParsesSSE(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"id\":\"c1\",\"choices\":[{\"delta\":{\"content\":\"Hel\"}}]}\n\n")
		fmt.Fprint(w, "data: {\"id\":\"c1\",\"choices\":[{\"delta\":{\"content\":\"lo\"},\"finish_reason\":\"stop\"}]}\n\n")
		fmt.Fprint(w, "data: not-json\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, "", 5*time.Second)
	var content string
	_, err := client.CreateChatCompletionStream(context.Background(), &ChatCompletionRequest{Model: "test"}, func(chunk *StreamChunk) error {
		for _, c := range chunk.Choices {
			if c.Delta != nil {
				content += c.Delta.Content
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("CreateChatCompletionStream: %v", err)
	}
	if content != "Hello" {
		t.Errorf("content = %q, want Hello", content)
	}
}

func TestMockClientEchoesQuestion(t *testing.T) {
	mock := NewMockClient()
	resp, err := mock.CreateChatCompletion(context.Background(), &ChatCompletionRequest{
		Model: "mock",
		Messages: []ChatMessage{
			{Role: "system", Content: "Current question (1 of 9): Little interest or pleasure in doing things"},
			{Role: "user", Content: "okay"},
		},
	})
	if err != nil {
		t.Fatalf("CreateChatCompletion: %v", err)
	}
	if !strings.Contains(resp.Choices[0].Message.Content, "Little interest") {
		t.Errorf("mock reply %q does not carry the question", resp.Choices[0].Message.Content)
	}
}

func TestMockClientStructuredOutputIsEmpty(t *testing.T) {
	mock := NewMockClient()
	resp, err := mock.CreateChatCompletion(context.Background(), &ChatCompletionRequest{
		Model:          "mock",
		Messages:       []ChatMessage{{Role: "user", Content: "sometimes"}},
		ResponseFormat: map[string]interface{}{"type": "json_schema"},
	})
	if err != nil {
		t.Fatalf("CreateChatCompletion: %v", err)
	}
	if !strings.Contains(resp.Choices[0].Message.Content, `"category":""`) {
		t.Errorf("structured mock reply = %q, want empty category", resp.Choices[0].Message.Content)
	}
}

func TestMockClientStreamOrder(t *testing.T) {
	mock := NewMockClient()
	var parts []string
	finished := false
	_, err := mock.CreateChatCompletionStream(context.Background(), &ChatCompletionRequest{
		Model:    "mock",
		Messages: []ChatMessage{{Role: "user", Content: "hello"}},
	}, func(chunk *StreamChunk) error {
		for _, c := range chunk.Choices {
			if c.Delta != nil {
				parts = append(parts, c.Delta.Content)
			}
			if c.FinishReason == "stop" {
				finished = true
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("CreateChatCompletionStream: %v", err)
	}
	if len(parts) == 0 {
		t.Fatal("no chunks received")
	}
	if !finished {
		t.Error("no finish_reason=stop on the final chunk")
	}
	joined := strings.Join(parts, "")
	full, _ := mock.CreateChatCompletion(context.Background(), &ChatCompletionRequest{
		Model:    "mock",
		Messages: []ChatMessage{{Role: "user", Content: "hello"}},
	})
	if joined != full.Choices[0].Message.Content {
		t.Errorf("streamed %q != full %q", joined, full.Choices[0].Message.Content)
	}
}
