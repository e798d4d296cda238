package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pgvector/pgvector-go"
	"github.com/sirupsen/logrus"
	"github.com/supercore/supercore-api/internal/models"
	"github.com/supercore/supercore-api/internal/providers/llm"
	pgrepo "github.com/supercore/supercore-api/internal/repositories/postgres"
	"github.com/supercore/supercore-api/internal/utils"
)

// ProductIndexer keeps the vector index in step with the products
// table: one embedding row per product, replaced on every change.
type ProductIndexer struct {
	embeddings pgrepo.ProductEmbeddingRepository
	embedder   llm.Embedder
	log        *logrus.Logger
}

func NewProductIndexer(embeddings pgrepo.ProductEmbeddingRepository, embedder llm.Embedder, log *logrus.Logger) *ProductIndexer {
	return &ProductIndexer{embeddings: embeddings, embedder: embedder, log: log}
}

func (ix *ProductIndexer) Reindex(ctx context.Context, p *models.Product) error {
	const op = "ProductIndexer.Reindex"

	content := composeEmbeddingContent(p)

	ectx, cancel := context.WithTimeout(ctx, embedTimeout)
	defer cancel()

	vec, err := ix.embedder.Embed(ectx, content)
	if err != nil {
		return upstreamErr(op, "embedding failed", err)
	}

	row := &models.ProductEmbedding{
		ProductID: p.ID,
		Content:   content,
		Embedding: pgvector.NewVector(vec),
		CreatedAt: time.Now().UTC(),
	}
	if err := ix.embeddings.Replace(ctx, row); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to store embedding", err)
	}
	return nil
}

func (ix *ProductIndexer) Remove(ctx context.Context, productID int64) {
	if err := ix.embeddings.DeleteByProduct(ctx, productID); err != nil {
		ix.log.WithError(err).WithField("product_id", productID).Warn("failed to remove product embedding")
	}
}

func composeEmbeddingContent(p *models.Product) string {
	name := extractText(p.Name)
	desc := extractText(p.Description)
	specs := ""
	if len(p.Specs) > 0 {
		specs = string(p.Specs)
	}
	return fmt.Sprintf("产品名称: %s 类别: %s 描述: %s 规格参数: %s", name, p.Category, desc, specs)
}

// extractText flattens a multilingual JSONB field, preferring
// cn, then hk, then en.
func extractText(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}
	var m map[string]string
	if err := json.Unmarshal(raw, &m); err != nil {
		return string(raw)
	}
	for _, k := range []string{"cn", "hk", "en"} {
		if m[k] != "" {
			return m[k]
		}
	}
	return ""
}
