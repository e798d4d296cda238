package services

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/supercore/supercore-api/internal/models"
	"github.com/supercore/supercore-api/internal/utils"
)

type fakeInquiryRepo struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]*models.Inquiry
}

func newFakeInquiryRepo() *fakeInquiryRepo {
	return &fakeInquiryRepo{rows: map[int64]*models.Inquiry{}}
}

func (r *fakeInquiryRepo) Create(_ context.Context, q *models.Inquiry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	q.ID = r.nextID
	cp := *q
	r.rows[q.ID] = &cp
	return nil
}

func (r *fakeInquiryRepo) GetByID(_ context.Context, id int64) (*models.Inquiry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.rows[id]
	if !ok {
		return nil, utils.ErrNotFound
	}
	cp := *q
	return &cp, nil
}

func (r *fakeInquiryRepo) List(_ context.Context, status string, limit, _ int) ([]models.Inquiry, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Inquiry
	for _, q := range r.rows {
		if status == "" || q.Status == status {
			out = append(out, *q)
		}
	}
	total := int64(len(out))
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, total, nil
}

func (r *fakeInquiryRepo) ListAll(_ context.Context) ([]models.Inquiry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Inquiry
	for _, q := range r.rows {
		out = append(out, *q)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeInquiryRepo) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.rows)), nil
}

func (r *fakeInquiryRepo) SetStatus(_ context.Context, id int64, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.rows[id]
	if !ok {
		return utils.ErrNotFound
	}
	q.Status = status
	return nil
}

func (r *fakeInquiryRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return utils.ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

func validInquiry() CreateInquiryInput {
	return CreateInquiryInput{
		Email:   "buyer@example.com",
		Name:    "陳大文",
		Message: "想了解 SC-1000 的報價",
	}
}

func TestInquiryCreate(t *testing.T) {
	svc := NewInquiryService(newFakeInquiryRepo())

	q, err := svc.Create(context.Background(), validInquiry())
	require.NoError(t, err)
	assert.Equal(t, "new", q.Status)
	assert.NotZero(t, q.ID)
}

func TestInquiryCreateBadEmail(t *testing.T) {
	svc := NewInquiryService(newFakeInquiryRepo())

	in := validInquiry()
	in.Email = "not-an-email"
	_, err := svc.Create(context.Background(), in)
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))
}

func TestInquiryExportReturnsAllRows(t *testing.T) {
	svc := NewInquiryService(newFakeInquiryRepo())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.Create(ctx, validInquiry())
		require.NoError(t, err)
	}

	rows, err := svc.Export(ctx)
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestInquirySetStatus(t *testing.T) {
	repo := newFakeInquiryRepo()
	svc := NewInquiryService(repo)
	ctx := context.Background()

	q, err := svc.Create(ctx, validInquiry())
	require.NoError(t, err)

	require.NoError(t, svc.SetStatus(ctx, q.ID, "read"))
	got, err := repo.GetByID(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, "read", got.Status)
}

func TestInquirySetStatusInvalid(t *testing.T) {
	svc := NewInquiryService(newFakeInquiryRepo())

	err := svc.SetStatus(context.Background(), 1, "spam")
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))

	var ae *utils.AppError
	require.ErrorAs(t, err, &ae)
	assert.Contains(t, ae.Message, "new, read, archived")
}

func TestInquirySetStatusMissing(t *testing.T) {
	svc := NewInquiryService(newFakeInquiryRepo())
	err := svc.SetStatus(context.Background(), 404, "read")
	assert.True(t, utils.IsCode(err, utils.CodeNotFound))
}

func TestInquiryDelete(t *testing.T) {
	repo := newFakeInquiryRepo()
	svc := NewInquiryService(repo)
	ctx := context.Background()

	q, err := svc.Create(ctx, validInquiry())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, q.ID))
	assert.True(t, utils.IsCode(svc.Delete(ctx, q.ID), utils.CodeNotFound))
}
