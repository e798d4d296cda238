package handlers_test

import (
	"context"
	"sync"

	"github.com/supercore/supercore-api/internal/models"
	"github.com/supercore/supercore-api/internal/providers/llm"
	"github.com/supercore/supercore-api/internal/services"
)

// Mocks hold one func field per method actually exercised by the
// handlers; unset funcs return zero values.

type mockSessionService struct {
	CreateFunc func(ctx context.Context, title, language string) (*models.ChatSession, error)
	GetFunc    func(ctx context.Context, id string) (*models.ChatSession, []models.ChatMessage, error)
	ListFunc   func(ctx context.Context, status string, limit, offset int) ([]models.ChatSession, int64, error)
	UpdateFunc func(ctx context.Context, id string, title, status *string) (*models.ChatSession, error)
	DeleteFunc func(ctx context.Context, id string, hard bool) error
	AppendFunc func(ctx context.Context, sessionID, role, content string, metadata map[string]any) (*models.ChatMessage, error)
}

func (m *mockSessionService) Create(ctx context.Context, title, language string) (*models.ChatSession, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, title, language)
	}
	return nil, nil
}

func (m *mockSessionService) Get(ctx context.Context, id string) (*models.ChatSession, []models.ChatMessage, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return nil, nil, nil
}

func (m *mockSessionService) List(ctx context.Context, status string, limit, offset int) ([]models.ChatSession, int64, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, status, limit, offset)
	}
	return nil, 0, nil
}

func (m *mockSessionService) Update(ctx context.Context, id string, title, status *string) (*models.ChatSession, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, title, status)
	}
	return nil, nil
}

func (m *mockSessionService) Delete(ctx context.Context, id string, hard bool) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id, hard)
	}
	return nil
}

func (m *mockSessionService) Append(ctx context.Context, sessionID, role, content string, metadata map[string]any) (*models.ChatMessage, error) {
	if m.AppendFunc != nil {
		return m.AppendFunc(ctx, sessionID, role, content, metadata)
	}
	return nil, nil
}

type mockChatService struct {
	ExchangeFunc func(ctx context.Context, msgs []llm.Message, sessionID, language string) (*services.Exchange, error)
	StatsFunc    func(ctx context.Context, period string) (*services.ChatStats, error)
}

func (m *mockChatService) Exchange(ctx context.Context, msgs []llm.Message, sessionID, language string) (*services.Exchange, error) {
	if m.ExchangeFunc != nil {
		return m.ExchangeFunc(ctx, msgs, sessionID, language)
	}
	return nil, nil
}

func (m *mockChatService) Stats(ctx context.Context, period string) (*services.ChatStats, error) {
	if m.StatsFunc != nil {
		return m.StatsFunc(ctx, period)
	}
	return nil, nil
}

type mockInquiryService struct {
	CreateFunc    func(ctx context.Context, in services.CreateInquiryInput) (*models.Inquiry, error)
	ListFunc      func(ctx context.Context, status string, limit, offset int) ([]models.Inquiry, int64, error)
	ExportFunc    func(ctx context.Context) ([]models.Inquiry, error)
	SetStatusFunc func(ctx context.Context, id int64, status string) error
	DeleteFunc    func(ctx context.Context, id int64) error
}

func (m *mockInquiryService) Create(ctx context.Context, in services.CreateInquiryInput) (*models.Inquiry, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, in)
	}
	return nil, nil
}

func (m *mockInquiryService) List(ctx context.Context, status string, limit, offset int) ([]models.Inquiry, int64, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, status, limit, offset)
	}
	return nil, 0, nil
}

func (m *mockInquiryService) Export(ctx context.Context) ([]models.Inquiry, error) {
	if m.ExportFunc != nil {
		return m.ExportFunc(ctx)
	}
	return nil, nil
}

func (m *mockInquiryService) SetStatus(ctx context.Context, id int64, status string) error {
	if m.SetStatusFunc != nil {
		return m.SetStatusFunc(ctx, id, status)
	}
	return nil
}

func (m *mockInquiryService) Delete(ctx context.Context, id int64) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

type mockDashboardService struct {
	OverviewFunc func(ctx context.Context) (*services.DashboardOverview, error)
}

func (m *mockDashboardService) Overview(ctx context.Context) (*services.DashboardOverview, error) {
	if m.OverviewFunc != nil {
		return m.OverviewFunc(ctx)
	}
	return &services.DashboardOverview{}, nil
}

// recordingLogService captures admin log entries instead of writing
// them anywhere.
type recordingLogService struct {
	mu      sync.Mutex
	entries []*models.AdminLog
}

func (m *recordingLogService) Record(_ context.Context, l *models.AdminLog) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, l)
}

func (m *recordingLogService) List(_ context.Context, _ string, _ int) ([]models.AdminLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.AdminLog, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, *e)
	}
	return out, nil
}

func (m *recordingLogService) recorded() []*models.AdminLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*models.AdminLog(nil), m.entries...)
}
