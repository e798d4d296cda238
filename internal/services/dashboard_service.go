package services

import (
	"context"
	"time"

	"github.com/supercore/supercore-api/internal/models"
	pgrepo "github.com/supercore/supercore-api/internal/repositories/postgres"
	"github.com/supercore/supercore-api/internal/utils"
)

const recentInquiryCount = 5

type DashboardStats struct {
	Products  int64 `json:"products"`
	Inquiries int64 `json:"inquiries"`
	Posts     int64 `json:"posts"`
}

type DashboardOverview struct {
	Stats           DashboardStats   `json:"stats"`
	RecentInquiries []models.Inquiry `json:"recentInquiries"`

	// DBLatency is how long the backing queries took, reported as the
	// backend response time on the dashboard.
	DBLatency time.Duration `json:"-"`
}

type DashboardService interface {
	Overview(ctx context.Context) (*DashboardOverview, error)
}

type dashboardService struct {
	products  pgrepo.ProductRepository
	posts     pgrepo.PostRepository
	inquiries pgrepo.InquiryRepository
}

func NewDashboardService(products pgrepo.ProductRepository, posts pgrepo.PostRepository, inquiries pgrepo.InquiryRepository) DashboardService {
	return &dashboardService{products: products, posts: posts, inquiries: inquiries}
}

func (s *dashboardService) Overview(ctx context.Context) (*DashboardOverview, error) {
	const op = "DashboardService.Overview"

	start := time.Now()

	products, err := s.products.Count(ctx)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to count products", err)
	}
	inquiries, err := s.inquiries.Count(ctx)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to count inquiries", err)
	}
	posts, err := s.posts.Count(ctx)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to count posts", err)
	}

	recent, _, err := s.inquiries.List(ctx, "", recentInquiryCount, 0)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list recent inquiries", err)
	}

	return &DashboardOverview{
		Stats: DashboardStats{
			Products:  products,
			Inquiries: inquiries,
			Posts:     posts,
		},
		RecentInquiries: recent,
		DBLatency:       time.Since(start),
	}, nil
}
