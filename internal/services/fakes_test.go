package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/supercore/supercore-api/internal/models"
	"github.com/supercore/supercore-api/internal/providers/llm"
	"github.com/supercore/supercore-api/internal/utils"
)

type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*models.ChatSession
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: map[string]*models.ChatSession{}}
}

func (r *fakeSessionRepo) Create(_ context.Context, s *models.ChatSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	r.sessions[s.ID] = &cp
	return nil
}

func (r *fakeSessionRepo) GetByID(_ context.Context, id string) (*models.ChatSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, utils.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *fakeSessionRepo) List(_ context.Context, status string, limit, offset int) ([]models.ChatSession, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var rows []models.ChatSession
	for _, s := range r.sessions {
		if status == "" || s.Status == status {
			rows = append(rows, *s)
		}
	}
	return rows, int64(len(rows)), nil
}

func (r *fakeSessionRepo) CountAll(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.sessions)), nil
}

func (r *fakeSessionRepo) CountByStatus(_ context.Context, status string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, s := range r.sessions {
		if s.Status == status {
			n++
		}
	}
	return n, nil
}

func (r *fakeSessionRepo) Update(_ context.Context, id string, fields map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return utils.ErrNotFound
	}
	if v, ok := fields["session_title"]; ok {
		s.Title = v.(string)
	}
	if v, ok := fields["status"]; ok {
		s.Status = v.(string)
	}
	if v, ok := fields["updated_at"]; ok {
		s.UpdatedAt = v.(time.Time)
	}
	return nil
}

func (r *fakeSessionRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return utils.ErrNotFound
	}
	delete(r.sessions, id)
	return nil
}

type fakeMessageRepo struct {
	mu        sync.Mutex
	rows      []models.ChatMessage
	insertErr error
}

func (r *fakeMessageRepo) Insert(_ context.Context, m *models.ChatMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.insertErr != nil {
		return r.insertErr
	}
	r.rows = append(r.rows, *m)
	return nil
}

func (r *fakeMessageRepo) ListBySession(_ context.Context, sessionID string) ([]models.ChatMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.ChatMessage
	for _, m := range r.rows {
		if m.SessionID == sessionID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeMessageRepo) ListSince(_ context.Context, since time.Time) ([]models.ChatMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.ChatMessage
	for _, m := range r.rows {
		if !m.CreatedAt.Before(since) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeMessageRepo) CountSince(_ context.Context, since time.Time) (int64, error) {
	rows, _ := r.ListSince(context.Background(), since)
	return int64(len(rows)), nil
}

func (r *fakeMessageRepo) all() []models.ChatMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.ChatMessage, len(r.rows))
	copy(out, r.rows)
	return out
}

type fakeEmbeddingRepo struct {
	matches   []models.ProductMatch
	searchErr error
	replaced  []*models.ProductEmbedding
	deleted   []int64
}

func (r *fakeEmbeddingRepo) Replace(_ context.Context, e *models.ProductEmbedding) error {
	r.replaced = append(r.replaced, e)
	return nil
}

func (r *fakeEmbeddingRepo) DeleteByProduct(_ context.Context, productID int64) error {
	r.deleted = append(r.deleted, productID)
	return nil
}

func (r *fakeEmbeddingRepo) Search(_ context.Context, _ []float32, _ float64, _ int) ([]models.ProductMatch, error) {
	if r.searchErr != nil {
		return nil, r.searchErr
	}
	return r.matches, nil
}

type fakeProductRepo struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]*models.Product
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{rows: map[int64]*models.Product{}}
}

func (r *fakeProductRepo) Create(_ context.Context, p *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	p.ID = r.nextID
	cp := *p
	r.rows[p.ID] = &cp
	return nil
}

func (r *fakeProductRepo) GetByID(_ context.Context, id int64) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.rows[id]
	if !ok {
		return nil, utils.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakeProductRepo) GetBySlug(_ context.Context, slug string) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.rows {
		if p.Slug == slug {
			cp := *p
			return &cp, nil
		}
	}
	return nil, utils.ErrNotFound
}

func (r *fakeProductRepo) SlugExists(_ context.Context, slug string, excludeID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.rows {
		if p.Slug == slug && p.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeProductRepo) List(_ context.Context, _, _ int) ([]models.Product, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Product
	for _, p := range r.rows {
		out = append(out, *p)
	}
	return out, int64(len(out)), nil
}

func (r *fakeProductRepo) ListPublished(_ context.Context, _ int) ([]models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Product
	for _, p := range r.rows {
		if p.Status == "published" {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *fakeProductRepo) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.rows)), nil
}

func (r *fakeProductRepo) Update(_ context.Context, id int64, fields map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.rows[id]
	if !ok {
		return utils.ErrNotFound
	}
	if v, ok := fields["slug"]; ok {
		p.Slug = v.(string)
	}
	if v, ok := fields["status"]; ok {
		p.Status = v.(string)
	}
	return nil
}

func (r *fakeProductRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return utils.ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

type fakeCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	deleted []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string][]byte{}}
}

func (c *fakeCache) GetJSON(_ context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *fakeCache) SetJSON(_ context.Context, key string, val any, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, err := json.Marshal(val)
	if err != nil {
		return err
	}
	c.entries[key] = b
	return nil
}

func (c *fakeCache) Del(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.entries, k)
	}
	c.deleted = append(c.deleted, keys...)
	return nil
}

type fakeEmbedder struct {
	vec []float32
	err error
}

func (e *fakeEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	return e.vec, nil
}

func (e *fakeEmbedder) Dimensions() int { return len(e.vec) }

// fakeStreamer plays back a scripted stream in the provider channel
// idiom: chunks first, then one optional error, both channels closed.
type fakeStreamer struct {
	chunks []string
	err    error
	model  string
}

func (s *fakeStreamer) StreamCompletion(ctx context.Context, _ string, _ []llm.Message) (<-chan string, <-chan error) {
	out := make(chan string)
	errs := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errs)
		for _, c := range s.chunks {
			select {
			case out <- c:
			case <-ctx.Done():
				errs <- ctx.Err()
				return
			}
		}
		if s.err != nil {
			errs <- s.err
		}
	}()
	return out, errs
}

func (s *fakeStreamer) Model() string {
	if s.model != "" {
		return s.model
	}
	return "qwen-plus"
}

func (s *fakeStreamer) Close() error { return nil }
