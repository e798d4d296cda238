package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/supercore/supercore-api/internal/models"
	pgrepo "github.com/supercore/supercore-api/internal/repositories/postgres"
	"github.com/supercore/supercore-api/internal/utils"
)

type CreateInquiryInput struct {
	Email   string `json:"email" binding:"required"`
	Name    string `json:"name" binding:"required"`
	Company string `json:"company"`
	Phone   string `json:"phone"`
	Message string `json:"message" binding:"required"`
}

type InquiryService interface {
	Create(ctx context.Context, in CreateInquiryInput) (*models.Inquiry, error)
	List(ctx context.Context, status string, limit, offset int) ([]models.Inquiry, int64, error)
	Export(ctx context.Context) ([]models.Inquiry, error)
	SetStatus(ctx context.Context, id int64, status string) error
	Delete(ctx context.Context, id int64) error
}

type inquiryService struct {
	inquiries pgrepo.InquiryRepository
}

func NewInquiryService(inquiries pgrepo.InquiryRepository) InquiryService {
	return &inquiryService{inquiries: inquiries}
}

func (s *inquiryService) Create(ctx context.Context, in CreateInquiryInput) (*models.Inquiry, error) {
	const op = "InquiryService.Create"

	if _, err := mail.ParseAddress(in.Email); err != nil {
		return nil, utils.E(utils.CodeInvalidArgument, op, "invalid email address", err)
	}
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Message) == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "name and message are required", nil)
	}

	now := time.Now().UTC()
	q := &models.Inquiry{
		Email:     in.Email,
		Name:      in.Name,
		Company:   in.Company,
		Phone:     in.Phone,
		Message:   in.Message,
		Status:    "new",
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.inquiries.Create(ctx, q); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to create inquiry", err)
	}
	return q, nil
}

func (s *inquiryService) List(ctx context.Context, status string, limit, offset int) ([]models.Inquiry, int64, error) {
	const op = "InquiryService.List"

	rows, total, err := s.inquiries.List(ctx, status, limit, offset)
	if err != nil {
		return nil, 0, utils.E(utils.CodeInternal, op, "failed to list inquiries", err)
	}
	return rows, total, nil
}

// Export returns every inquiry newest-first, unpaginated.
func (s *inquiryService) Export(ctx context.Context) ([]models.Inquiry, error) {
	const op = "InquiryService.Export"

	rows, err := s.inquiries.ListAll(ctx)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to export inquiries", err)
	}
	return rows, nil
}

func (s *inquiryService) SetStatus(ctx context.Context, id int64, status string) error {
	const op = "InquiryService.SetStatus"

	if !models.ValidInquiryStatus(status) {
		return utils.E(utils.CodeInvalidArgument, op,
			fmt.Sprintf("无效的状态值，必须是 %s 之一", strings.Join(models.InquiryStatuses, ", ")), nil)
	}

	if err := s.inquiries.SetStatus(ctx, id, status); err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return utils.E(utils.CodeNotFound, op, "Inquiry not found", err)
		}
		return utils.E(utils.CodeInternal, op, "failed to update inquiry", err)
	}
	return nil
}

func (s *inquiryService) Delete(ctx context.Context, id int64) error {
	const op = "InquiryService.Delete"

	if err := s.inquiries.Delete(ctx, id); err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return utils.E(utils.CodeNotFound, op, "Inquiry not found", err)
		}
		return utils.E(utils.CodeInternal, op, "failed to delete inquiry", err)
	}
	return nil
}
