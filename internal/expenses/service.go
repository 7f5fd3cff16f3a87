// Package expenses tracks operating costs, including shipping costs raised by dispatch.
package expenses

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/roastery-backend/internal/repo"
	"github.com/angelmondragon/roastery-backend/internal/store"
	"github.com/angelmondragon/roastery-backend/pkg/db/models"
	"github.com/angelmondragon/roastery-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/roastery-backend/pkg/errors"
)

type Input struct {
	Reason         string              `json:"reason" validate:"required"`
	Amount         decimal.Decimal     `json:"amount"`
	DocumentType   *string             `json:"document_type"`
	DocumentNumber *string             `json:"document_number"`
	Date           *time.Time          `json:"date"`
	Status         enums.ExpenseStatus `json:"status"`
	OrderID        *string             `json:"order_id"`
	Responsible    string              `json:"responsible"`
}

func (in Input) validate() error {
	if strings.TrimSpace(in.Reason) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "reason is required")
	}
	if !in.Amount.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "amount must be greater than zero")
	}
	if in.Status != "" && !in.Status.IsValid() {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "invalid expense status %q", in.Status)
	}
	return nil
}

func (in Input) apply(e *models.Expense) {
	e.Reason = strings.TrimSpace(in.Reason)
	e.Amount = in.Amount.Round(2)
	e.DocumentType = trimmed(in.DocumentType)
	e.DocumentNumber = trimmed(in.DocumentNumber)
	e.OrderID = trimmed(in.OrderID)
	e.Responsible = strings.TrimSpace(in.Responsible)
	if in.Date != nil {
		e.Date = in.Date.UTC()
	}
	if in.Status != "" {
		e.Status = in.Status
	}
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

type ListFilter struct {
	Status  enums.ExpenseStatus
	OrderID string
}

// Summary totals the listed expenses by status.
type Summary struct {
	Pending decimal.Decimal `json:"pending"`
	Paid    decimal.Decimal `json:"paid"`
}

type Service interface {
	Create(ctx context.Context, actor string, input Input) (*models.Expense, error)
	Update(ctx context.Context, actor, id string, input Input) (*models.Expense, error)
	MarkPaid(ctx context.Context, actor, id string) (*models.Expense, error)
	Delete(ctx context.Context, actor, id string) error
	Get(ctx context.Context, id string) (*models.Expense, error)
	List(ctx context.Context, filter ListFilter) ([]models.Expense, error)
	Summarize(ctx context.Context) (Summary, error)
}

type service struct {
	writer *store.Writer
}

func NewService(writer *store.Writer) (Service, error) {
	if writer == nil {
		return nil, errors.New("store writer required")
	}
	return &service{writer: writer}, nil
}

func (s *service) Create(ctx context.Context, actor string, input Input) (*models.Expense, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	expense := &models.Expense{ID: uuid.NewString(), Status: enums.ExpenseStatusPending}
	input.apply(expense)
	err := s.writer.Run(ctx, actor, func(tx *store.Tx) error {
		if expense.Date.IsZero() {
			expense.Date = tx.Now()
		}
		return tx.Put(expense)
	})
	if err != nil {
		return nil, err
	}
	return expense, nil
}

func (s *service) Update(ctx context.Context, actor, id string, input Input) (*models.Expense, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	return s.mutate(ctx, actor, id, func(e *models.Expense) error {
		input.apply(e)
		return nil
	})
}

func (s *service) MarkPaid(ctx context.Context, actor, id string) (*models.Expense, error) {
	return s.mutate(ctx, actor, id, func(e *models.Expense) error {
		if e.Status == enums.ExpenseStatusPaid {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "expense already paid")
		}
		e.Status = enums.ExpenseStatusPaid
		return nil
	})
}

func (s *service) Delete(ctx context.Context, actor, id string) error {
	return s.writer.Run(ctx, actor, func(tx *store.Tx) error {
		expense, err := repo.Get[models.Expense](tx.DB, id, "expense")
		if err != nil {
			return err
		}
		return tx.Remove(expense)
	})
}

func (s *service) Get(ctx context.Context, id string) (*models.Expense, error) {
	return repo.Get[models.Expense](s.writer.DB(ctx), id, "expense")
}

func (s *service) List(ctx context.Context, filter ListFilter) ([]models.Expense, error) {
	return repo.List[models.Expense](s.writer.DB(ctx), repo.Filter{
		"status":   filter.Status,
		"order_id": filter.OrderID,
	}, "date DESC")
}

func (s *service) Summarize(ctx context.Context) (Summary, error) {
	all, err := s.List(ctx, ListFilter{})
	if err != nil {
		return Summary{}, err
	}
	return Summarize(all), nil
}

// Summarize adds up amounts per status.
func Summarize(list []models.Expense) Summary {
	sum := Summary{Pending: decimal.Zero, Paid: decimal.Zero}
	for _, e := range list {
		switch e.Status {
		case enums.ExpenseStatusPaid:
			sum.Paid = sum.Paid.Add(e.Amount)
		default:
			sum.Pending = sum.Pending.Add(e.Amount)
		}
	}
	return sum
}

func (s *service) mutate(ctx context.Context, actor, id string, fn func(*models.Expense) error) (*models.Expense, error) {
	var expense *models.Expense
	err := s.writer.Run(ctx, actor, func(tx *store.Tx) error {
		var err error
		if expense, err = repo.Get[models.Expense](tx.DB, id, "expense"); err != nil {
			return err
		}
		if err := fn(expense); err != nil {
			return err
		}
		return tx.Put(expense)
	})
	if err != nil {
		return nil, err
	}
	return expense, nil
}
