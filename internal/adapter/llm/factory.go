package llm

import (
	"log"
	"os"
	"time"
)

const (
	// EnvIntakeMode is the environment variable name for mode selection.
	EnvIntakeMode = "INTAKE_MODE"
	// ModeMock indicates mock mode should be used.
	ModeMock = "MOCK"
)

// NewClient creates an LLM client based on the INTAKE_MODE environment
// variable. If INTAKE_MODE=MOCK, returns a MockClient; otherwise returns a
// real HTTP client.
func NewClient(baseURL, apiKey string, timeout time.Duration) Client {
	if os.Getenv(EnvIntakeMode) == ModeMock {
		log.Println("INTAKE_MODE=MOCK detected, using mock LLM client")
		return NewMockClient()
	}

	return NewHTTPClient(baseURL, apiKey, timeout)
}
