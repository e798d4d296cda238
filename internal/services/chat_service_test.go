package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/supercore/supercore-api/internal/models"
	"github.com/supercore/supercore-api/internal/providers/llm"
	"github.com/supercore/supercore-api/internal/utils"
	"gorm.io/datatypes"
)

type chatFixture struct {
	svc      ChatService
	sessions *fakeSessionRepo
	messages *fakeMessageRepo
	emb      *fakeEmbeddingRepo
	streamer *fakeStreamer
}

func newChatFixture(streamer *fakeStreamer) *chatFixture {
	sessions := newFakeSessionRepo()
	messages := &fakeMessageRepo{}
	emb := &fakeEmbeddingRepo{}
	sessionSvc := NewSessionService(sessions, messages)
	quota := NewQuotaGuard(messages, 0)

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	return &chatFixture{
		svc: NewChatService(sessionSvc, sessions, messages, emb,
			&fakeEmbedder{vec: make([]float32, 1024)}, streamer, quota, log),
		sessions: sessions,
		messages: messages,
		emb:      emb,
		streamer: streamer,
	}
}

func userTurn(content string) []llm.Message {
	return []llm.Message{{Role: "user", Content: content}}
}

func awaitResult(t *testing.T, ex *Exchange) ExchangeResult {
	t.Helper()
	select {
	case res := <-ex.Result:
		return res
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for exchange result")
		return ExchangeResult{}
	}
}

func TestExchangeStreamsAndPersists(t *testing.T) {
	f := newChatFixture(&fakeStreamer{chunks: []string{"您好，", "這是 SC-1000 服務器。"}})

	ex, err := f.svc.Exchange(context.Background(), userTurn("介紹一下你們的服務器"), "", "zh-HK")
	require.NoError(t, err)
	require.NotEmpty(t, ex.SessionID)

	var got strings.Builder
	for c := range ex.Chunks {
		got.WriteString(c)
	}
	res := awaitResult(t, ex)
	require.NoError(t, res.Err)
	assert.Equal(t, "您好，這是 SC-1000 服務器。", got.String())
	assert.Equal(t, res.Content, got.String())

	rows := f.messages.all()
	require.Len(t, rows, 2)
	assert.Equal(t, "user", rows[0].Role)
	assert.Equal(t, "assistant", rows[1].Role)
	assert.Equal(t, got.String(), rows[1].Content)

	var meta map[string]any
	require.NoError(t, json.Unmarshal(rows[1].Metadata, &meta))
	assert.Equal(t, "zh-HK", meta["language"])
	assert.Equal(t, "qwen-plus", meta["model"])
	assert.Equal(t, float64(0), meta["productsFound"])
}

func TestExchangeCreatesSessionWithTruncatedTitle(t *testing.T) {
	f := newChatFixture(&fakeStreamer{chunks: []string{"ok"}})

	long := strings.Repeat("問", 40)
	ex, err := f.svc.Exchange(context.Background(), userTurn(long), "", "")
	require.NoError(t, err)

	for range ex.Chunks {
	}
	require.NoError(t, awaitResult(t, ex).Err)

	sess, err := f.sessions.GetByID(context.Background(), ex.SessionID)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("問", 30)+"...", sess.Title)
	assert.Equal(t, "zh-HK", sess.Language)
}

func TestExchangeReusesSession(t *testing.T) {
	f := newChatFixture(&fakeStreamer{chunks: []string{"ok"}})
	ctx := context.Background()

	sess := &models.ChatSession{ID: "11111111-1111-1111-1111-111111111111", Title: "t", Status: "active"}
	require.NoError(t, f.sessions.Create(ctx, sess))

	ex, err := f.svc.Exchange(ctx, userTurn("hi"), sess.ID, "en")
	require.NoError(t, err)
	assert.Equal(t, sess.ID, ex.SessionID)

	for range ex.Chunks {
	}
	require.NoError(t, awaitResult(t, ex).Err)
}

func TestExchangeUnknownSession(t *testing.T) {
	f := newChatFixture(&fakeStreamer{chunks: []string{"ok"}})

	_, err := f.svc.Exchange(context.Background(), userTurn("hi"), "22222222-2222-2222-2222-222222222222", "")
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeNotFound))
}

func TestExchangeValidation(t *testing.T) {
	f := newChatFixture(&fakeStreamer{})

	_, err := f.svc.Exchange(context.Background(), nil, "", "")
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))

	_, err = f.svc.Exchange(context.Background(), userTurn("   "), "", "")
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))
}

func TestExchangeUpstreamErrorPersistsNothing(t *testing.T) {
	f := newChatFixture(&fakeStreamer{chunks: []string{"partial"}, err: errors.New("upstream broke")})

	ex, err := f.svc.Exchange(context.Background(), userTurn("hi"), "", "")
	require.NoError(t, err)

	for range ex.Chunks {
	}
	res := awaitResult(t, ex)
	require.Error(t, res.Err)
	assert.True(t, utils.IsCode(res.Err, utils.CodeUnavailable))

	// the user turn is saved, the aborted answer is not
	rows := f.messages.all()
	require.Len(t, rows, 1)
	assert.Equal(t, "user", rows[0].Role)
}

func TestExchangeClientDisconnectPersistsNothing(t *testing.T) {
	// enough chunks to overflow the output buffer so the pump is
	// blocked on a send when the client goes away
	chunks := make([]string, 64)
	for i := range chunks {
		chunks[i] = "x"
	}
	f := newChatFixture(&fakeStreamer{chunks: chunks})

	ctx, cancel := context.WithCancel(context.Background())
	ex, err := f.svc.Exchange(ctx, userTurn("hi"), "", "")
	require.NoError(t, err)

	// never read ex.Chunks; drop the connection instead
	cancel()

	res := awaitResult(t, ex)
	require.Error(t, res.Err)
	assert.True(t, utils.IsCode(res.Err, utils.CodeUnavailable))

	rows := f.messages.all()
	require.Len(t, rows, 1)
	assert.Equal(t, "user", rows[0].Role)
}

func TestExchangeEmbeddingTimeout(t *testing.T) {
	f := newChatFixture(&fakeStreamer{chunks: []string{"ok"}})
	svc := f.svc.(*chatService)
	svc.embedder = &fakeEmbedder{err: context.DeadlineExceeded}

	_, err := svc.Exchange(context.Background(), userTurn("hi"), "", "")
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeTimeout))
}

func TestExchangeSearchFailure(t *testing.T) {
	f := newChatFixture(&fakeStreamer{chunks: []string{"ok"}})
	f.emb.searchErr = errors.New("pg down")

	_, err := f.svc.Exchange(context.Background(), userTurn("hi"), "", "")
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeUnavailable))
}

func TestExchangeQuotaExceeded(t *testing.T) {
	f := newChatFixture(&fakeStreamer{chunks: []string{"ok"}})
	svc := f.svc.(*chatService)
	svc.quota = NewQuotaGuard(f.messages, 10)

	f.messages.rows = append(f.messages.rows, models.ChatMessage{
		Content:   strings.Repeat("服", 100),
		CreatedAt: time.Now(),
	})

	_, err := svc.Exchange(context.Background(), userTurn("hi"), "", "")
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeQuotaExceeded))
}

func TestBuildContextBlock(t *testing.T) {
	assert.Equal(t, "未找到相关产品", buildContextBlock(nil))

	matches := []models.ProductMatch{
		{Name: datatypes.JSON(`{"cn":"超核一号","en":"Supercore One"}`), Content: "高密度服务器"},
		{Name: datatypes.JSON(`{"en":"Edge Box"}`), Content: "边缘计算节点"},
	}
	block := buildContextBlock(matches)
	assert.Equal(t,
		"[产品]: 超核一号\n[AI摘要]: 高密度服务器\n---\n[产品]: Edge Box\n[AI摘要]: 边缘计算节点\n---",
		block)
}

func TestProductName(t *testing.T) {
	assert.Equal(t, "超核", productName(datatypes.JSON(`{"cn":"超核","hk":"超核HK","en":"SC"}`)))
	assert.Equal(t, "超核HK", productName(datatypes.JSON(`{"hk":"超核HK","en":"SC"}`)))
	assert.Equal(t, "SC", productName(datatypes.JSON(`{"en":"SC"}`)))
	assert.Equal(t, "未命名产品", productName(datatypes.JSON(`{}`)))
	assert.Equal(t, "未命名产品", productName(datatypes.JSON(`not json`)))
}

func TestSessionTitleTruncation(t *testing.T) {
	assert.Equal(t, "short", sessionTitle("short"))

	exact := strings.Repeat("字", 30)
	assert.Equal(t, exact, sessionTitle(exact))

	over := strings.Repeat("字", 31)
	assert.Equal(t, strings.Repeat("字", 30)+"...", sessionTitle(over))
}

func TestStats(t *testing.T) {
	f := newChatFixture(&fakeStreamer{})
	ctx := context.Background()

	require.NoError(t, f.sessions.Create(ctx, &models.ChatSession{ID: "a", Status: "active"}))
	require.NoError(t, f.sessions.Create(ctx, &models.ChatSession{ID: "b", Status: "archived"}))

	f.messages.rows = append(f.messages.rows,
		models.ChatMessage{Content: strings.Repeat("服", 100), CreatedAt: time.Now()},     // 150 tokens
		models.ChatMessage{Content: "old", CreatedAt: time.Now().AddDate(0, 0, -10)}, // outside 7d
	)

	stats, err := f.svc.Stats(ctx, "7d")
	require.NoError(t, err)
	assert.Equal(t, "7d", stats.Period)
	assert.Equal(t, int64(2), stats.TotalSessions)
	assert.Equal(t, int64(1), stats.ActiveSessions)
	assert.Equal(t, int64(1), stats.TotalMessages)
	assert.Equal(t, 150, stats.EstimatedTokens)
	assert.InDelta(t, 0.0006, stats.EstimatedCost, 1e-9)
}

func TestStatsPeriodFallback(t *testing.T) {
	f := newChatFixture(&fakeStreamer{})

	stats, err := f.svc.Stats(context.Background(), "1y")
	require.NoError(t, err)
	assert.Equal(t, "7d", stats.Period)
}
