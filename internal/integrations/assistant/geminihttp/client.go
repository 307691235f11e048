package geminihttp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/YaqiinCargo/CargoBox/internal/integrations/assistant"
)

// Client ходит в Gemini API напрямую через REST со стримингом SSE.
type Client struct {
	baseURL string
	model   string
	apiKey  string
	httpc   *http.Client
}

func New(baseURL, model, apiKey string) *Client {
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com"
	}
	if model == "" {
		model = "gemini-3-flash-preview"
	}
	return &Client{
		baseURL: baseURL,
		model:   model,
		apiKey:  apiKey,
		httpc: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

type generateRequest struct {
	SystemInstruction *content  `json:"system_instruction,omitempty"`
	Contents          []content `json:"contents"`
	GenerationConfig  struct {
		Temperature float64 `json:"temperature"`
	} `json:"generationConfig"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateChunk struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

func (c *Client) StreamChat(ctx context.Context, systemInstruction string, history []assistant.Message, onDelta func(text string)) error {
	if c.apiKey == "" {
		return errors.New("gemini api key is not set")
	}

	body := generateRequest{}
	body.GenerationConfig.Temperature = 0.7
	if systemInstruction != "" {
		body.SystemInstruction = &content{Parts: []part{{Text: systemInstruction}}}
	}
	for _, m := range history {
		body.Contents = append(body.Contents, content{
			Role:  m.Role,
			Parts: []part{{Text: m.Text}},
		})
	}

	buf, err := json.Marshal(body)
	if err != nil {
		return errors.Wrap(err, "marshal request")
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:streamGenerateContent?alt=sse", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(buf))
	if err != nil {
		return errors.Wrap(err, "new request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", c.apiKey)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return errors.Wrap(err, "do request")
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("gemini http %d", resp.StatusCode)
	}

	// Ответ приходит как SSE: строки "data: {json}", разделённые пустыми.
	sc := bufio.NewScanner(resp.Body)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "" || payload == "[DONE]" {
			continue
		}
		var chunk generateChunk
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			// Битый фрагмент пропускаем, стрим продолжается.
			continue
		}
		for _, cand := range chunk.Candidates {
			for _, p := range cand.Content.Parts {
				if p.Text != "" {
					onDelta(p.Text)
				}
			}
		}
	}
	return errors.Wrap(sc.Err(), "read stream")
}
