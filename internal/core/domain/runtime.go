package domain

import "sync"

// RuntimeConfig tracks which capabilities are available at runtime.
// Backends are fixed at startup; capability flags may be flipped later.
// Thread-safe for concurrent access.
type RuntimeConfig struct {
	mu sync.RWMutex

	// Static (set at startup, read-only)
	SessionBackend string // "redis" or "postgres"
	CacheBackend   string // "redis" or "memory"

	binaryFormatsAvailable bool
	llmAvailable           bool
}

// NewRuntimeConfig creates a new RuntimeConfig with initial values
func NewRuntimeConfig(sessionBackend, cacheBackend string) *RuntimeConfig {
	return &RuntimeConfig{
		SessionBackend: sessionBackend,
		CacheBackend:   cacheBackend,
	}
}

// BinaryFormatsAvailable returns whether PDF and DOCX parsing is enabled
func (c *RuntimeConfig) BinaryFormatsAvailable() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.binaryFormatsAvailable
}

// LLMAvailable returns whether a quiz generator is configured
func (c *RuntimeConfig) LLMAvailable() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.llmAvailable
}

// SetBinaryFormatsAvailable updates the binary format flag
func (c *RuntimeConfig) SetBinaryFormatsAvailable(available bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.binaryFormatsAvailable = available
}

// SetLLMAvailable updates the LLM availability flag
func (c *RuntimeConfig) SetLLMAvailable(available bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.llmAvailable = available
}

// CanGenerateQuizzes returns true if quiz generation is possible
func (c *RuntimeConfig) CanGenerateQuizzes() bool {
	return c.LLMAvailable()
}
