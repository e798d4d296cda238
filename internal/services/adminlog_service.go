package services

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/supercore/supercore-api/internal/models"
	mongorepo "github.com/supercore/supercore-api/internal/repositories/mongo"
	"github.com/supercore/supercore-api/internal/utils"
)

// AdminLogService records admin mutations. Recording is best-effort:
// a failed log write never fails the mutation it describes.
type AdminLogService interface {
	Record(ctx context.Context, l *models.AdminLog)
	List(ctx context.Context, resourceType string, limit int) ([]models.AdminLog, error)
}

type adminLogService struct {
	logs mongorepo.AdminLogRepository
	log  *logrus.Logger
}

func NewAdminLogService(logs mongorepo.AdminLogRepository, log *logrus.Logger) AdminLogService {
	return &adminLogService{logs: logs, log: log}
}

func (s *adminLogService) Record(ctx context.Context, l *models.AdminLog) {
	if err := s.logs.Insert(ctx, l); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"action":        l.Action,
			"resource_type": l.ResourceType,
		}).Warn("failed to record admin action")
	}
}

func (s *adminLogService) List(ctx context.Context, resourceType string, limit int) ([]models.AdminLog, error) {
	const op = "AdminLogService.List"

	rows, err := s.logs.List(ctx, resourceType, limit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list admin logs", err)
	}
	return rows, nil
}
