package plans

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("plan not found in store")

type Store interface {
	SavePlan(ctx context.Context, rec Record) error
	GetPlan(ctx context.Context, planID string) (Record, error)
	ListPlansByUser(ctx context.Context, userID string, limit int) ([]Record, error)
	Close() error
}
