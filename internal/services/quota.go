package services

import (
	"context"
	"math"
	"time"

	pgrepo "github.com/supercore/supercore-api/internal/repositories/postgres"
	"github.com/supercore/supercore-api/internal/utils"
)

const defaultDailyTokenCeiling = 100000

// EstimateTokens approximates the token cost of text: CJK characters
// weigh 1.5 tokens each, everything else 0.3. This is the single
// canonical estimator, used by both the quota guard and the stats
// endpoint.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	var cjk, other int
	for _, r := range text {
		if r >= 0x4E00 && r <= 0x9FA5 {
			cjk++
		} else {
			other++
		}
	}
	return int(math.Ceil(float64(cjk)*1.5 + float64(other)*0.3))
}

// QuotaGuard is a soft daily cost-control gate over the chat pipeline.
// The check is read-then-act without a transactional reservation:
// concurrent requests can both pass before either's usage is counted,
// so the ceiling can be overshot. Known race, accepted for a soft
// guard.
type QuotaGuard struct {
	messages pgrepo.MessageRepository
	ceiling  int
	now      func() time.Time
}

func NewQuotaGuard(messages pgrepo.MessageRepository, ceiling int) *QuotaGuard {
	if ceiling <= 0 {
		ceiling = defaultDailyTokenCeiling
	}
	return &QuotaGuard{messages: messages, ceiling: ceiling, now: time.Now}
}

func (g *QuotaGuard) Check(ctx context.Context) error {
	const op = "QuotaGuard.Check"

	now := g.now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	rows, err := g.messages.ListSince(ctx, midnight)
	if err != nil {
		return utils.E(utils.CodeInternal, op, "failed to load today's messages", err)
	}

	total := 0
	for _, m := range rows {
		total += EstimateTokens(m.Content)
	}
	if total >= g.ceiling {
		return utils.E(utils.CodeQuotaExceeded, op, "daily usage ceiling reached", nil)
	}
	return nil
}
