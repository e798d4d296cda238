package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/supercore/supercore-api/internal/cache"
	"github.com/supercore/supercore-api/internal/models"
	pgrepo "github.com/supercore/supercore-api/internal/repositories/postgres"
	"github.com/supercore/supercore-api/internal/utils"

	"github.com/lib/pq"
)

type CreatePostInput struct {
	Slug        string            `json:"slug" binding:"required"`
	Title       map[string]string `json:"title" binding:"required"`
	Summary     map[string]string `json:"summary" binding:"required"`
	Content     map[string]string `json:"content" binding:"required"`
	CoverImage  string            `json:"coverImage"`
	Tags        []string          `json:"tags"`
	PublishedAt *time.Time        `json:"publishedAt"`
}

type UpdatePostInput struct {
	Slug        *string           `json:"slug"`
	Title       map[string]string `json:"title"`
	Summary     map[string]string `json:"summary"`
	Content     map[string]string `json:"content"`
	CoverImage  *string           `json:"coverImage"`
	Tags        []string          `json:"tags"`
	PublishedAt *time.Time        `json:"publishedAt"`
}

type PostService interface {
	Create(ctx context.Context, in CreatePostInput) (*models.Post, error)
	Update(ctx context.Context, id int64, in UpdatePostInput) (*models.Post, error)
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (*models.Post, error)
	GetPublishedBySlug(ctx context.Context, slug string) (*models.Post, error)
	List(ctx context.Context, limit, offset int) ([]models.Post, int64, error)
	ListPublished(ctx context.Context, limit int) ([]models.Post, error)
}

type postService struct {
	posts pgrepo.PostRepository
	cache cache.Cache
	log   *logrus.Logger
}

func NewPostService(posts pgrepo.PostRepository, c cache.Cache, log *logrus.Logger) PostService {
	return &postService{posts: posts, cache: c, log: log}
}

func (s *postService) Create(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	const op = "PostService.Create"

	var verrs []string
	if err := validateSlug(in.Slug); err != nil {
		verrs = append(verrs, err.Error())
	}
	verrs = append(verrs, validateMultilingual("title", in.Title)...)
	verrs = append(verrs, validateMultilingual("summary", in.Summary)...)
	verrs = append(verrs, validateMultilingual("content", in.Content)...)
	if len(verrs) > 0 {
		return nil, utils.E(utils.CodeInvalidArgument, op, strings.Join(verrs, "；"), nil)
	}

	exists, err := s.posts.SlugExists(ctx, in.Slug, 0)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to check slug", err)
	}
	if exists {
		return nil, utils.E(utils.CodeConflict, op, fmt.Sprintf("slug %q 已存在，请使用其他 slug", in.Slug), nil)
	}

	now := time.Now().UTC()
	p := &models.Post{
		Slug:        in.Slug,
		Title:       mustJSON(in.Title),
		Summary:     mustJSON(in.Summary),
		Content:     mustJSON(in.Content),
		CoverImage:  in.CoverImage,
		Tags:        pq.StringArray(in.Tags),
		PublishedAt: in.PublishedAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.posts.Create(ctx, p); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to create post", err)
	}

	s.invalidatePublic(ctx)
	return p, nil
}

func (s *postService) Update(ctx context.Context, id int64, in UpdatePostInput) (*models.Post, error) {
	const op = "PostService.Update"

	fields := map[string]any{}
	var verrs []string

	if in.Slug != nil {
		if err := validateSlug(*in.Slug); err != nil {
			verrs = append(verrs, err.Error())
		} else {
			exists, err := s.posts.SlugExists(ctx, *in.Slug, id)
			if err != nil {
				return nil, utils.E(utils.CodeInternal, op, "failed to check slug", err)
			}
			if exists {
				return nil, utils.E(utils.CodeConflict, op, fmt.Sprintf("slug %q 已存在，请使用其他 slug", *in.Slug), nil)
			}
			fields["slug"] = *in.Slug
		}
	}
	if in.Title != nil {
		verrs = append(verrs, validateMultilingual("title", in.Title)...)
		fields["title"] = mustJSON(in.Title)
	}
	if in.Summary != nil {
		verrs = append(verrs, validateMultilingual("summary", in.Summary)...)
		fields["summary"] = mustJSON(in.Summary)
	}
	if in.Content != nil {
		verrs = append(verrs, validateMultilingual("content", in.Content)...)
		fields["content"] = mustJSON(in.Content)
	}
	if len(verrs) > 0 {
		return nil, utils.E(utils.CodeInvalidArgument, op, strings.Join(verrs, "；"), nil)
	}
	if in.CoverImage != nil {
		fields["cover_image"] = *in.CoverImage
	}
	if in.Tags != nil {
		fields["tags"] = pq.StringArray(in.Tags)
	}
	if in.PublishedAt != nil {
		fields["published_at"] = *in.PublishedAt
	}
	if len(fields) == 0 {
		return nil, utils.E(utils.CodeInvalidArgument, op, "没有提供要更新的数据", nil)
	}
	fields["updated_at"] = time.Now().UTC()

	if err := s.posts.Update(ctx, id, fields); err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "Post not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to update post", err)
	}

	p, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to reload post", err)
	}

	s.invalidatePublic(ctx)
	return p, nil
}

func (s *postService) Delete(ctx context.Context, id int64) error {
	const op = "PostService.Delete"

	if err := s.posts.Delete(ctx, id); err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return utils.E(utils.CodeNotFound, op, "Post not found", err)
		}
		return utils.E(utils.CodeInternal, op, "failed to delete post", err)
	}

	s.invalidatePublic(ctx)
	return nil
}

func (s *postService) Get(ctx context.Context, id int64) (*models.Post, error) {
	const op = "PostService.Get"

	p, err := s.posts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "Post not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get post", err)
	}
	return p, nil
}

func (s *postService) GetPublishedBySlug(ctx context.Context, slug string) (*models.Post, error) {
	const op = "PostService.GetPublishedBySlug"

	if err := validateSlug(slug); err != nil {
		return nil, utils.E(utils.CodeInvalidArgument, op, err.Error(), nil)
	}

	p, err := s.posts.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "Post not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get post", err)
	}
	if p.PublishedAt == nil || p.PublishedAt.After(time.Now()) {
		return nil, utils.E(utils.CodeNotFound, op, "Post not found", nil)
	}
	return p, nil
}

func (s *postService) List(ctx context.Context, limit, offset int) ([]models.Post, int64, error) {
	const op = "PostService.List"

	rows, total, err := s.posts.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, utils.E(utils.CodeInternal, op, "failed to list posts", err)
	}
	return rows, total, nil
}

func (s *postService) ListPublished(ctx context.Context, limit int) ([]models.Post, error) {
	const op = "PostService.ListPublished"

	const key = "news:public"
	if s.cache != nil {
		var cached []models.Post
		if hit, err := s.cache.GetJSON(ctx, key, &cached); err == nil && hit {
			return clampList(cached, limit), nil
		}
	}

	rows, err := s.posts.ListPublished(ctx, 0)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list published posts", err)
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, key, rows, publicCacheTTL); err != nil {
			s.log.WithError(err).Warn("failed to cache public posts")
		}
	}
	return clampList(rows, limit), nil
}

func (s *postService) invalidatePublic(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, "news:public"); err != nil {
		s.log.WithError(err).Warn("failed to invalidate post cache")
	}
}
