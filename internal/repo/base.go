package repo

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	pkgerrors "github.com/angelmondragon/roastery-backend/pkg/errors"
)

// Base provides a shared foundation for domain repositories.
type Base struct {
	db *gorm.DB
}

// NewBase constructs a Base repository backed by the provided GORM connection.
func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB returns the GORM connection bound to the supplied context (if any).
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// WithTx rebinds the base to an open transaction.
func (b Base) WithTx(tx *gorm.DB) Base {
	if tx == nil {
		return b
	}
	return Base{db: tx}
}

// Get loads one row by id. A missing row is reported as CodeNotFound using label
// ("order", "roasted stock") in the message.
func Get[T any](db *gorm.DB, id, label string) (*T, error) {
	if id == "" {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "%s id is required", label)
	}
	var out T
	if err := db.Where("id = ?", id).First(&out).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "%s not found", label)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, fmt.Sprintf("load %s", label))
	}
	return &out, nil
}

// Filter is an equality filter applied by List; zero values are skipped.
type Filter map[string]any

// List returns every row matching filter, ordered by order (e.g. "created_at DESC").
func List[T any](db *gorm.DB, filter Filter, order string) ([]T, error) {
	q := db
	for column, value := range filter {
		if isZero(value) {
			continue
		}
		q = q.Where(column+" = ?", value)
	}
	if order != "" {
		q = q.Order(order)
	}
	var out []T
	if err := q.Find(&out).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list records")
	}
	return out, nil
}

func isZero(v any) bool {
	switch typed := v.(type) {
	case nil:
		return true
	case string:
		return typed == ""
	case fmt.Stringer:
		return typed.String() == ""
	case *string:
		return typed == nil || *typed == ""
	case *bool:
		return typed == nil
	}
	return false
}
