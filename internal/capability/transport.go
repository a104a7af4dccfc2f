package capability

import (
	"fmt"
	"time"
)

const (
	ProviderOpenAI = "openai"
	ProviderEcho   = "echo"
)

// NewTransport returns the Transport for the configured provider.
func NewTransport(provider, baseURL, apiKey string, timeout time.Duration) (Transport, error) {
	switch provider {
	case ProviderOpenAI, "":
		return NewOpenAITransport(baseURL, apiKey, timeout), nil
	case ProviderEcho:
		return EchoTransport{}, nil
	default:
		return nil, fmt.Errorf("unknown capability provider %q", provider)
	}
}
