package repository

import (
	"context"

	"campusgreen/internal/domain/entity"
)

// ContentGenerator returns the model's text for a generation. An empty
// string with a nil error means the call succeeded but produced nothing
// usable (for instance a safety block).
type ContentGenerator interface {
	Generate(ctx context.Context, gen entity.Generation) (string, error)
}

// InFlightGuard is the busy flag a calling surface holds while a gateway
// call is outstanding.
type InFlightGuard interface {
	Acquire(ctx context.Context, key string) (token string, ok bool, err error)
	Release(ctx context.Context, key, token string) error
}
