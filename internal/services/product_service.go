package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/supercore/supercore-api/internal/cache"
	"github.com/supercore/supercore-api/internal/models"
	pgrepo "github.com/supercore/supercore-api/internal/repositories/postgres"
	"github.com/supercore/supercore-api/internal/utils"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

var requiredLanguages = []string{"hk", "cn", "en"}

const publicCacheTTL = 5 * time.Minute

type CreateProductInput struct {
	Slug        string            `json:"slug" binding:"required"`
	Name        map[string]string `json:"name" binding:"required"`
	Description map[string]string `json:"description" binding:"required"`
	Specs       map[string]any    `json:"specs"`
	Images      []string          `json:"images"`
	Category    string            `json:"category"`
	Featured    bool              `json:"featured"`
	Status      string            `json:"status"`
}

type UpdateProductInput struct {
	Slug        *string           `json:"slug"`
	Name        map[string]string `json:"name"`
	Description map[string]string `json:"description"`
	Specs       map[string]any    `json:"specs"`
	Images      []string          `json:"images"`
	Category    *string           `json:"category"`
	Featured    *bool             `json:"featured"`
	Status      *string           `json:"status"`
}

type ProductService interface {
	Create(ctx context.Context, in CreateProductInput) (*models.Product, error)
	Update(ctx context.Context, id int64, in UpdateProductInput) (*models.Product, error)
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (*models.Product, error)
	GetPublishedBySlug(ctx context.Context, slug string) (*models.Product, error)
	List(ctx context.Context, limit, offset int) ([]models.Product, int64, error)
	ListPublished(ctx context.Context, limit int) ([]models.Product, error)
}

type productService struct {
	products pgrepo.ProductRepository
	indexer  *ProductIndexer
	cache    cache.Cache
	log      *logrus.Logger
}

func NewProductService(products pgrepo.ProductRepository, indexer *ProductIndexer, c cache.Cache, log *logrus.Logger) ProductService {
	return &productService{products: products, indexer: indexer, cache: c, log: log}
}

func validateSlug(slug string) error {
	if !slugPattern.MatchString(slug) {
		return errors.New("slug 只能包含小写字母、数字和连字符")
	}
	return nil
}

func validateMultilingual(field string, m map[string]string) []string {
	var errs []string
	for _, lang := range requiredLanguages {
		if strings.TrimSpace(m[lang]) == "" {
			errs = append(errs, fmt.Sprintf("%s 必须包含 %s 语言版本", field, strings.ToUpper(lang)))
		}
	}
	return errs
}

func mustJSON(v any) datatypes.JSON {
	b, _ := json.Marshal(v)
	return datatypes.JSON(b)
}

func (s *productService) Create(ctx context.Context, in CreateProductInput) (*models.Product, error) {
	const op = "ProductService.Create"

	var verrs []string
	if err := validateSlug(in.Slug); err != nil {
		verrs = append(verrs, err.Error())
	}
	verrs = append(verrs, validateMultilingual("name", in.Name)...)
	verrs = append(verrs, validateMultilingual("description", in.Description)...)
	if len(verrs) > 0 {
		return nil, utils.E(utils.CodeInvalidArgument, op, strings.Join(verrs, "；"), nil)
	}

	exists, err := s.products.SlugExists(ctx, in.Slug, 0)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to check slug", err)
	}
	if exists {
		return nil, utils.E(utils.CodeConflict, op, fmt.Sprintf("slug %q 已存在，请使用其他 slug", in.Slug), nil)
	}

	status := in.Status
	if status == "" {
		status = "draft"
	}

	now := time.Now().UTC()
	p := &models.Product{
		Slug:        in.Slug,
		Name:        mustJSON(in.Name),
		Description: mustJSON(in.Description),
		Specs:       mustJSON(in.Specs),
		Images:      pq.StringArray(in.Images),
		Category:    in.Category,
		IsFeatured:  in.Featured,
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.products.Create(ctx, p); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to create product", err)
	}

	s.refreshIndex(ctx, p)
	s.invalidatePublic(ctx)
	return p, nil
}

func (s *productService) Update(ctx context.Context, id int64, in UpdateProductInput) (*models.Product, error) {
	const op = "ProductService.Update"

	fields := map[string]any{}
	var verrs []string

	if in.Slug != nil {
		if err := validateSlug(*in.Slug); err != nil {
			verrs = append(verrs, err.Error())
		} else {
			exists, err := s.products.SlugExists(ctx, *in.Slug, id)
			if err != nil {
				return nil, utils.E(utils.CodeInternal, op, "failed to check slug", err)
			}
			if exists {
				return nil, utils.E(utils.CodeConflict, op, fmt.Sprintf("slug %q 已存在，请使用其他 slug", *in.Slug), nil)
			}
			fields["slug"] = *in.Slug
		}
	}
	if in.Name != nil {
		verrs = append(verrs, validateMultilingual("name", in.Name)...)
		fields["name"] = mustJSON(in.Name)
	}
	if in.Description != nil {
		verrs = append(verrs, validateMultilingual("description", in.Description)...)
		fields["description"] = mustJSON(in.Description)
	}
	if len(verrs) > 0 {
		return nil, utils.E(utils.CodeInvalidArgument, op, strings.Join(verrs, "；"), nil)
	}
	if in.Specs != nil {
		fields["specs"] = mustJSON(in.Specs)
	}
	if in.Images != nil {
		fields["images"] = pq.StringArray(in.Images)
	}
	if in.Category != nil {
		fields["category"] = *in.Category
	}
	if in.Featured != nil {
		fields["is_featured"] = *in.Featured
	}
	if in.Status != nil {
		fields["status"] = *in.Status
	}
	if len(fields) == 0 {
		return nil, utils.E(utils.CodeInvalidArgument, op, "没有提供要更新的数据", nil)
	}
	fields["updated_at"] = time.Now().UTC()

	if err := s.products.Update(ctx, id, fields); err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "Product not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to update product", err)
	}

	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to reload product", err)
	}

	s.refreshIndex(ctx, p)
	s.invalidatePublic(ctx)
	return p, nil
}

func (s *productService) Delete(ctx context.Context, id int64) error {
	const op = "ProductService.Delete"

	if err := s.products.Delete(ctx, id); err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return utils.E(utils.CodeNotFound, op, "Product not found", err)
		}
		return utils.E(utils.CodeInternal, op, "failed to delete product", err)
	}

	if s.indexer != nil {
		s.indexer.Remove(ctx, id)
	}
	s.invalidatePublic(ctx)
	return nil
}

func (s *productService) Get(ctx context.Context, id int64) (*models.Product, error) {
	const op = "ProductService.Get"

	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "Product not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get product", err)
	}
	return p, nil
}

func (s *productService) GetPublishedBySlug(ctx context.Context, slug string) (*models.Product, error) {
	const op = "ProductService.GetPublishedBySlug"

	if err := validateSlug(slug); err != nil {
		return nil, utils.E(utils.CodeInvalidArgument, op, err.Error(), nil)
	}

	p, err := s.products.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "Product not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get product", err)
	}
	if p.Status != "published" {
		return nil, utils.E(utils.CodeNotFound, op, "Product not found", nil)
	}
	return p, nil
}

func (s *productService) List(ctx context.Context, limit, offset int) ([]models.Product, int64, error) {
	const op = "ProductService.List"

	rows, total, err := s.products.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, utils.E(utils.CodeInternal, op, "failed to list products", err)
	}
	return rows, total, nil
}

// ListPublished caches the full published listing under a single key
// and slices per request, so one Del on mutation invalidates every
// limit a client may ask for.
func (s *productService) ListPublished(ctx context.Context, limit int) ([]models.Product, error) {
	const op = "ProductService.ListPublished"

	const key = "products:public"
	if s.cache != nil {
		var cached []models.Product
		if hit, err := s.cache.GetJSON(ctx, key, &cached); err == nil && hit {
			return clampList(cached, limit), nil
		}
	}

	rows, err := s.products.ListPublished(ctx, 0)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list published products", err)
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, key, rows, publicCacheTTL); err != nil {
			s.log.WithError(err).Warn("failed to cache public products")
		}
	}
	return clampList(rows, limit), nil
}

func clampList[T any](rows []T, limit int) []T {
	if limit > 0 && len(rows) > limit {
		return rows[:limit]
	}
	return rows
}

// refreshIndex is best-effort: the product write has already
// succeeded, a failed embedding refresh only degrades retrieval.
func (s *productService) refreshIndex(ctx context.Context, p *models.Product) {
	if s.indexer == nil {
		return
	}
	if err := s.indexer.Reindex(ctx, p); err != nil {
		s.log.WithError(err).WithField("product_id", p.ID).Warn("failed to refresh product embedding")
	}
}

func (s *productService) invalidatePublic(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, "products:public"); err != nil {
		s.log.WithError(err).Warn("failed to invalidate product cache")
	}
}
