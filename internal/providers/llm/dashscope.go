package llm

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	defaultDashScopeBaseURL = "https://dashscope.aliyuncs.com/compatible-mode/v1"
	defaultChatModel        = "qwen-plus"
	defaultEmbeddingModel   = "text-embedding-v3"
	embeddingDimensions     = 1024
)

// DashScope talks to the DashScope OpenAI-compatible endpoint for both
// chat completions (SSE) and embeddings.
type DashScope struct {
	client     *resty.Client
	chatModel  string
	embedModel string
}

func NewDashScope(apiKey, baseURL, chatModel, embedModel string) *DashScope {
	if baseURL == "" {
		baseURL = defaultDashScopeBaseURL
	}
	if chatModel == "" {
		chatModel = defaultChatModel
	}
	if embedModel == "" {
		embedModel = defaultEmbeddingModel
	}

	c := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(apiKey).
		SetHeader("Content-Type", "application/json").
		SetTimeout(2 * time.Minute)

	return &DashScope{client: c, chatModel: chatModel, embedModel: embedModel}
}

func (d *DashScope) Model() string   { return d.chatModel }
func (d *DashScope) Close() error    { return nil }
func (d *DashScope) Dimensions() int { return embeddingDimensions }

type embeddingRequest struct {
	Model      string `json:"model"`
	Input      string `json:"input"`
	Dimensions int    `json:"dimensions"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

func (d *DashScope) Embed(ctx context.Context, text string) ([]float32, error) {
	text = strings.TrimSpace(strings.ReplaceAll(text, "\n", " "))
	if text == "" {
		return nil, errors.New("empty text")
	}

	var out embeddingResponse
	resp, err := d.client.R().
		SetContext(ctx).
		SetBody(&embeddingRequest{
			Model:      d.embedModel,
			Input:      text,
			Dimensions: embeddingDimensions,
		}).
		SetResult(&out).
		Post("/embeddings")
	if err != nil {
		return nil, fmt.Errorf("embedding request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("embedding status %d: %s", resp.StatusCode(), resp.String())
	}
	if len(out.Data) == 0 || len(out.Data[0].Embedding) == 0 {
		return nil, errors.New("no embedding data in response")
	}
	if len(out.Data[0].Embedding) != embeddingDimensions {
		return nil, fmt.Errorf("unexpected embedding dimension %d", len(out.Data[0].Embedding))
	}
	return out.Data[0].Embedding, nil
}

type chatRequest struct {
	Model       string    `json:"model"`
	Stream      bool      `json:"stream"`
	Temperature float64   `json:"temperature"`
	Messages    []Message `json:"messages"`
}

type chatStreamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

func (d *DashScope) StreamCompletion(ctx context.Context, system string, history []Message) (<-chan string, <-chan error) {
	out := make(chan string, 32)
	errs := make(chan error, 1)

	msgs := make([]Message, 0, len(history)+1)
	msgs = append(msgs, Message{Role: "system", Content: system})
	msgs = append(msgs, history...)

	go func() {
		defer close(out)
		defer close(errs)

		resp, err := d.client.R().
			SetContext(ctx).
			SetBody(&chatRequest{
				Model:       d.chatModel,
				Stream:      true,
				Temperature: 0.3,
				Messages:    msgs,
			}).
			SetDoNotParseResponse(true).
			Post("/chat/completions")
		if err != nil {
			errs <- fmt.Errorf("completion request: %w", err)
			return
		}
		body := resp.RawBody()
		defer body.Close()

		if resp.StatusCode() != http.StatusOK {
			errs <- fmt.Errorf("completion status %d", resp.StatusCode())
			return
		}

		scanner := bufio.NewScanner(body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if !strings.HasPrefix(line, "data:") {
				continue
			}
			data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if data == "" || data == "[DONE]" {
				if data == "[DONE]" {
					return
				}
				continue
			}

			var chunk chatStreamChunk
			if err := json.Unmarshal([]byte(data), &chunk); err != nil {
				errs <- fmt.Errorf("decode stream chunk: %w", err)
				return
			}
			for _, ch := range chunk.Choices {
				if ch.Delta.Content != "" {
					select {
					case out <- ch.Delta.Content:
					case <-ctx.Done():
						errs <- ctx.Err()
						return
					}
				}
			}
		}
		if err := scanner.Err(); err != nil {
			errs <- fmt.Errorf("read stream: %w", err)
		}
	}()

	return out, errs
}
