package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/supercore/supercore-api/internal/models"
	pgrepo "github.com/supercore/supercore-api/internal/repositories/postgres"
	"github.com/supercore/supercore-api/internal/utils"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	defaultSessionTitle = "新對話"
	defaultLanguage     = "zh-HK"
)

// SessionService is the conversation store: sessions plus their
// append-only message lists.
type SessionService interface {
	Create(ctx context.Context, title, language string) (*models.ChatSession, error)
	Get(ctx context.Context, id string) (*models.ChatSession, []models.ChatMessage, error)
	List(ctx context.Context, status string, limit, offset int) ([]models.ChatSession, int64, error)
	Update(ctx context.Context, id string, title, status *string) (*models.ChatSession, error)
	Delete(ctx context.Context, id string, hard bool) error
	Append(ctx context.Context, sessionID, role, content string, metadata map[string]any) (*models.ChatMessage, error)
}

type sessionService struct {
	sessions pgrepo.SessionRepository
	messages pgrepo.MessageRepository
}

func NewSessionService(sessions pgrepo.SessionRepository, messages pgrepo.MessageRepository) SessionService {
	return &sessionService{sessions: sessions, messages: messages}
}

func (s *sessionService) Create(ctx context.Context, title, language string) (*models.ChatSession, error) {
	const op = "SessionService.Create"

	if title == "" {
		title = defaultSessionTitle
	}
	if language == "" {
		language = defaultLanguage
	}

	now := time.Now().UTC()
	sess := &models.ChatSession{
		ID:        uuid.NewString(),
		Title:     title,
		Language:  language,
		Status:    string(models.SessionActive),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to create session", err)
	}
	return sess, nil
}

func (s *sessionService) Get(ctx context.Context, id string) (*models.ChatSession, []models.ChatMessage, error) {
	const op = "SessionService.Get"

	if id == "" {
		return nil, nil, utils.E(utils.CodeInvalidArgument, op, "session id is required", nil)
	}

	sess, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, nil, utils.E(utils.CodeNotFound, op, "Session not found", err)
		}
		return nil, nil, utils.E(utils.CodeInternal, op, "failed to get session", err)
	}

	msgs, err := s.messages.ListBySession(ctx, id)
	if err != nil {
		return nil, nil, utils.E(utils.CodeInternal, op, "failed to list messages", err)
	}
	return sess, msgs, nil
}

func (s *sessionService) List(ctx context.Context, status string, limit, offset int) ([]models.ChatSession, int64, error) {
	const op = "SessionService.List"

	rows, total, err := s.sessions.List(ctx, status, limit, offset)
	if err != nil {
		return nil, 0, utils.E(utils.CodeInternal, op, "failed to list sessions", err)
	}
	return rows, total, nil
}

func (s *sessionService) Update(ctx context.Context, id string, title, status *string) (*models.ChatSession, error) {
	const op = "SessionService.Update"

	if id == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "session id is required", nil)
	}

	fields := map[string]any{}
	if title != nil {
		fields["session_title"] = *title
	}
	if status != nil {
		if !models.ValidSessionStatus(*status) {
			return nil, utils.E(utils.CodeInvalidArgument, op,
				"invalid status, must be one of: active, archived, deleted", nil)
		}
		fields["status"] = *status
	}
	if len(fields) == 0 {
		return nil, utils.E(utils.CodeInvalidArgument, op, "no fields to update", nil)
	}
	fields["updated_at"] = time.Now().UTC()

	if err := s.sessions.Update(ctx, id, fields); err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "Session not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to update session", err)
	}

	sess, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to reload session", err)
	}
	return sess, nil
}

func (s *sessionService) Delete(ctx context.Context, id string, hard bool) error {
	const op = "SessionService.Delete"

	if id == "" {
		return utils.E(utils.CodeInvalidArgument, op, "session id is required", nil)
	}

	if hard {
		// row removal cascades to messages
		if err := s.sessions.Delete(ctx, id); err != nil {
			if errors.Is(err, utils.ErrNotFound) {
				return utils.E(utils.CodeNotFound, op, "Session not found", err)
			}
			return utils.E(utils.CodeInternal, op, "failed to delete session", err)
		}
		return nil
	}

	// soft delete; repeating it is a no-op, not an error
	err := s.sessions.Update(ctx, id, map[string]any{
		"status":     string(models.SessionDeleted),
		"updated_at": time.Now().UTC(),
	})
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return utils.E(utils.CodeNotFound, op, "Session not found", err)
		}
		return utils.E(utils.CodeInternal, op, "failed to archive session", err)
	}
	return nil
}

func (s *sessionService) Append(ctx context.Context, sessionID, role, content string, metadata map[string]any) (*models.ChatMessage, error) {
	const op = "SessionService.Append"

	if sessionID == "" || role == "" || strings.TrimSpace(content) == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "session_id, role, and content are required", nil)
	}

	if _, err := s.sessions.GetByID(ctx, sessionID); err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "Session not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get session", err)
	}

	var meta datatypes.JSON
	if metadata != nil {
		b, err := json.Marshal(metadata)
		if err != nil {
			return nil, utils.E(utils.CodeInvalidArgument, op, "invalid metadata", err)
		}
		meta = datatypes.JSON(b)
	}

	row := &models.ChatMessage{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		Metadata:  meta,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.messages.Insert(ctx, row); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to insert message", err)
	}
	return row, nil
}
