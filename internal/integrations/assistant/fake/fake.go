package fake

import (
	"context"
	"sync"

	"github.com/YaqiinCargo/CargoBox/internal/integrations/assistant"
)

// Client — фейковый ассистент для тестов API: отдаёт заранее заданные
// фрагменты и запоминает, с чем его вызвали.
type Client struct {
	mu     sync.Mutex
	chunks []string
	err    error

	LastSystem  string
	LastHistory []assistant.Message
}

func New(chunks ...string) *Client {
	return &Client{chunks: chunks}
}

func (c *Client) SetError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = err
}

func (c *Client) StreamChat(_ context.Context, systemInstruction string, history []assistant.Message, onDelta func(text string)) error {
	c.mu.Lock()
	c.LastSystem = systemInstruction
	c.LastHistory = append([]assistant.Message{}, history...)
	err := c.err
	chunks := c.chunks
	c.mu.Unlock()

	if err != nil {
		return err
	}
	for _, ch := range chunks {
		onDelta(ch)
	}
	return nil
}
