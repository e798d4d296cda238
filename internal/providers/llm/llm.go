package llm

import "context"

type Message struct {
	Role    string `json:"role"` // "system" | "user" | "assistant"
	Content string `json:"content"`
}

// CompletionStreamer delivers a model response as a stream of text
// chunks (incremental). The errs channel carries at most one error;
// both channels are closed when the stream ends.
type CompletionStreamer interface {
	StreamCompletion(ctx context.Context, system string, history []Message) (chunks <-chan string, errs <-chan error)
	Model() string
	Close() error
}

// Embedder turns free text into a fixed-length vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}
