package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/supercore/supercore-api/internal/models"
	"github.com/supercore/supercore-api/internal/providers/llm"
	pgrepo "github.com/supercore/supercore-api/internal/repositories/postgres"
	"github.com/supercore/supercore-api/internal/utils"
	"gorm.io/datatypes"
)

const (
	matchThreshold = 0.5
	matchCount     = 5

	embedTimeout      = 15 * time.Second
	completionTimeout = 2 * time.Minute

	// Sentinel emitted when retrieval clears nothing over the
	// threshold; the system prompt instructs the model to honor it.
	noRelevantData = "未找到相关产品"

	titleMaxRunes = 30
)

const systemPromptTemplate = `你是一個專業的服務器硬件專家 (Supercore AI)。你的回答必須精確、簡潔，並始終基於提供的 [產品庫數據]。

行為規則：
1. 始終使用【繁體中文(香港)】回答用戶，無論用戶使用何種語言提問。
2. 保持專業、冷靜且理性的語氣（瑞士工業設計風格）。
3. 優先引用產品的型號名稱、技術細節和參數。
4. 如果數據庫中沒有相關產品，請直接告知："目前數據庫中沒有關於此問題的詳細資料，請聯繫我們的技術團隊查詢。"

【產品庫數據】:
%s`

// ExchangeResult is delivered exactly once when the stream ends:
// Content is the full accumulated text on clean completion, Err is
// the reason nothing was persisted otherwise.
type ExchangeResult struct {
	Content string
	Err     error
}

// Exchange is the two-phase streaming contract: the caller forwards
// Chunks to its transport and separately awaits Result.
type Exchange struct {
	SessionID string
	Chunks    <-chan string
	Result    <-chan ExchangeResult
}

type ChatStats struct {
	Period          string  `json:"period"`
	TotalSessions   int64   `json:"totalSessions"`
	ActiveSessions  int64   `json:"activeSessions"`
	TotalMessages   int64   `json:"totalMessages"`
	EstimatedTokens int     `json:"estimatedTokens"`
	EstimatedCost   float64 `json:"estimatedCost"` // CNY, qwen-plus pricing
}

type ChatService interface {
	Exchange(ctx context.Context, msgs []llm.Message, sessionID, language string) (*Exchange, error)
	Stats(ctx context.Context, period string) (*ChatStats, error)
}

type chatService struct {
	sessionSvc SessionService
	sessions   pgrepo.SessionRepository
	messages   pgrepo.MessageRepository
	embeddings pgrepo.ProductEmbeddingRepository
	embedder   llm.Embedder
	streamer   llm.CompletionStreamer
	quota      *QuotaGuard
	log        *logrus.Logger
}

func NewChatService(
	sessionSvc SessionService,
	sessions pgrepo.SessionRepository,
	messages pgrepo.MessageRepository,
	embeddings pgrepo.ProductEmbeddingRepository,
	embedder llm.Embedder,
	streamer llm.CompletionStreamer,
	quota *QuotaGuard,
	log *logrus.Logger,
) ChatService {
	return &chatService{
		sessionSvc: sessionSvc,
		sessions:   sessions,
		messages:   messages,
		embeddings: embeddings,
		embedder:   embedder,
		streamer:   streamer,
		quota:      quota,
		log:        log,
	}
}

func (s *chatService) Exchange(ctx context.Context, msgs []llm.Message, sessionID, language string) (*Exchange, error) {
	const op = "ChatService.Exchange"

	if len(msgs) == 0 {
		return nil, utils.E(utils.CodeInvalidArgument, op, "messages are required", nil)
	}
	last := msgs[len(msgs)-1]
	if strings.TrimSpace(last.Content) == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "last message content is empty", nil)
	}
	if language == "" {
		language = defaultLanguage
	}

	// session on demand: no id supplied means a new session titled
	// after the opening message
	if sessionID == "" {
		sess, err := s.sessionSvc.Create(ctx, sessionTitle(last.Content), language)
		if err != nil {
			return nil, err
		}
		sessionID = sess.ID
	} else if _, err := s.sessions.GetByID(ctx, sessionID); err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "Session not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get session", err)
	}

	if _, err := s.sessionSvc.Append(ctx, sessionID, "user", last.Content, map[string]any{
		"language": language,
	}); err != nil {
		return nil, err
	}

	if err := s.quota.Check(ctx); err != nil {
		return nil, err
	}

	matches, err := s.retrieve(ctx, last.Content)
	if err != nil {
		return nil, err
	}

	systemPrompt := fmt.Sprintf(systemPromptTemplate, buildContextBlock(matches))

	streamCtx, cancel := context.WithTimeout(ctx, completionTimeout)
	chunks, errs := s.streamer.StreamCompletion(streamCtx, systemPrompt, msgs)

	out := make(chan string, 32)
	result := make(chan ExchangeResult, 1)

	go func() {
		defer cancel()
		defer close(out)

		var buf strings.Builder
		for chunk := range chunks {
			buf.WriteString(chunk)
			select {
			case out <- chunk:
			case <-ctx.Done():
				// client gone mid-stream; drop the partial output
				s.drain(chunks, errs)
				result <- ExchangeResult{Err: utils.E(utils.CodeUnavailable, op, "client disconnected", ctx.Err())}
				return
			}
		}
		if err := <-errs; err != nil {
			// partial output must never be saved as a finished answer
			s.log.WithError(err).WithField("session_id", sessionID).Error("completion stream failed")
			result <- ExchangeResult{Err: upstreamErr(op, "completion stream failed", err)}
			return
		}

		full := buf.String()
		if strings.TrimSpace(full) == "" {
			result <- ExchangeResult{Err: utils.E(utils.CodeUnavailable, op, "empty completion", nil)}
			return
		}

		// the stream is done; persistence must not be cut short by the
		// request context going away
		persistCtx, pcancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer pcancel()
		_, perr := s.sessionSvc.Append(persistCtx, sessionID, "assistant", full, map[string]any{
			"language":      language,
			"model":         s.streamer.Model(),
			"productsFound": len(matches),
		})
		if perr != nil {
			s.log.WithError(perr).WithField("session_id", sessionID).Error("failed to persist assistant message")
			result <- ExchangeResult{Err: perr}
			return
		}
		result <- ExchangeResult{Content: full}
	}()

	return &Exchange{SessionID: sessionID, Chunks: out, Result: result}, nil
}

// drain keeps the provider goroutine from blocking on its channels
// after the caller has gone away.
func (s *chatService) drain(chunks <-chan string, errs <-chan error) {
	go func() {
		for range chunks {
		}
		<-errs
	}()
}

func (s *chatService) retrieve(ctx context.Context, query string) ([]models.ProductMatch, error) {
	const op = "ChatService.retrieve"

	ectx, cancel := context.WithTimeout(ctx, embedTimeout)
	defer cancel()

	vec, err := s.embedder.Embed(ectx, query)
	if err != nil {
		return nil, upstreamErr(op, "embedding failed", err)
	}

	matches, err := s.embeddings.Search(ctx, vec, matchThreshold, matchCount)
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "similarity search failed", err)
	}
	return matches, nil
}

func upstreamErr(op, msg string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return utils.E(utils.CodeTimeout, op, msg+" (timeout)", err)
	}
	return utils.E(utils.CodeUnavailable, op, msg, err)
}

// buildContextBlock renders retrieved matches into the prompt's
// product-data block, one segment per match.
func buildContextBlock(matches []models.ProductMatch) string {
	if len(matches) == 0 {
		return noRelevantData
	}

	segments := make([]string, 0, len(matches))
	for _, m := range matches {
		segments = append(segments, fmt.Sprintf("[产品]: %s\n[AI摘要]: %s\n---", productName(m.Name), m.Content))
	}
	return strings.Join(segments, "\n")
}

func productName(raw datatypes.JSON) string {
	var m map[string]string
	if err := json.Unmarshal(raw, &m); err == nil {
		for _, k := range []string{"cn", "hk", "en"} {
			if m[k] != "" {
				return m[k]
			}
		}
	}
	return "未命名产品"
}

func sessionTitle(content string) string {
	r := []rune(content)
	if len(r) <= titleMaxRunes {
		return content
	}
	return string(r[:titleMaxRunes]) + "..."
}

func (s *chatService) Stats(ctx context.Context, period string) (*ChatStats, error) {
	const op = "ChatService.Stats"

	days := 7
	switch period {
	case "", "7d":
		period = "7d"
	case "30d":
		days = 30
	case "90d":
		days = 90
	default:
		period = "7d"
	}
	start := time.Now().AddDate(0, 0, -days)

	total, err := s.sessions.CountAll(ctx)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to count sessions", err)
	}
	active, err := s.sessions.CountByStatus(ctx, string(models.SessionActive))
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to count active sessions", err)
	}

	msgs, err := s.messages.ListSince(ctx, start)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to load messages", err)
	}

	tokens := 0
	for _, m := range msgs {
		tokens += EstimateTokens(m.Content)
	}

	return &ChatStats{
		Period:          period,
		TotalSessions:   total,
		ActiveSessions:  active,
		TotalMessages:   int64(len(msgs)),
		EstimatedTokens: tokens,
		// qwen-plus: ¥0.004 per 1k tokens
		EstimatedCost: float64(tokens) / 1000 * 0.004,
	}, nil
}
