package simulator

import (
	"context"

	"github.com/krobus00/execution-simulator/internal/entity"
)

// instantFill fills the whole quantity at the signal price with no latency.
type instantFill struct{}

func (instantFill) fill(ctx context.Context, req entity.OrderRequest) (fillResult, error) {
	if err := ctx.Err(); err != nil {
		return fillResult{}, err
	}

	return fillResult{
		mode:           entity.FillModeInstant,
		price:          req.SignalPrice,
		quantity:       req.Quantity,
		slippagePct:    0,
		fillPercentage: 100,
	}, nil
}
