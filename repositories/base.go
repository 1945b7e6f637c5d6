package repositories

import (
	"context"
	"errors"
	"time"

	"users-server/apperrors"
	"users-server/db"
	"users-server/metrics"

	"gorm.io/gorm"
)

const defaultListLimit = 100

// baseRepository carries the reads every entity shares. from selects the
// relation (and joins) for T; columns, when set, is the select list used to
// load T.
type baseRepository[T any] struct {
	db       db.Database
	entity   string
	idColumn string
	columns  string
	from     func(tx *gorm.DB) *gorm.DB
}

// run executes fn as one unit of work and records it. fn's error is returned
// as is; translation to an AppError happens inside fn so the transaction sees
// the same error the caller does.
func (r *baseRepository[T]) run(ctx context.Context, op string, fn func(tx *gorm.DB) error) error {
	start := time.Now()
	err := r.db.Transaction(ctx, fn)
	metrics.ObserveRepository(r.entity, op, start, err)
	return err
}

func (r *baseRepository[T]) query(tx *gorm.DB) *gorm.DB {
	q := r.from(tx)
	if r.columns != "" {
		q = q.Select(r.columns)
	}
	return q
}

func (r *baseRepository[T]) take(tx *gorm.DB, id int64) (*T, error) {
	var out T
	if err := r.query(tx).Where(r.idColumn+" = ?", id).Take(&out).Error; err != nil {
		return nil, r.translate(err, id)
	}
	return &out, nil
}

func (r *baseRepository[T]) Get(ctx context.Context, id int64) (*T, error) {
	var out *T
	err := r.run(ctx, "get", func(tx *gorm.DB) error {
		found, err := r.take(tx, id)
		if err != nil {
			return err
		}
		out = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *baseRepository[T]) List(ctx context.Context, skip, limit int) ([]T, error) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	out := make([]T, 0)
	err := r.run(ctx, "list", func(tx *gorm.DB) error {
		err := r.query(tx).Order(r.idColumn + " ASC").Offset(skip).Limit(limit).Find(&out).Error
		return r.translate(err, nil)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *baseRepository[T]) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.run(ctx, "count", func(tx *gorm.DB) error {
		return r.translate(r.from(tx).Count(&n).Error, nil)
	})
	return n, err
}

// translate maps store errors onto the application taxonomy. AppErrors and
// context cancellations pass through untouched.
func (r *baseRepository[T]) translate(err error, id any) error {
	if err == nil {
		return nil
	}
	if _, ok := apperrors.As(err); ok {
		return err
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperrors.NewNotFoundError(r.entity, id)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperrors.NewConflictError(r.entity, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	}
	return apperrors.NewDatabaseError(r.entity, err)
}
