// Package cupping stores sensory evaluation sessions exactly as entered.
package cupping

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/angelmondragon/roastery-backend/internal/repo"
	"github.com/angelmondragon/roastery-backend/internal/store"
	"github.com/angelmondragon/roastery-backend/pkg/db/models"
	"github.com/angelmondragon/roastery-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/roastery-backend/pkg/errors"
)

const (
	MinScore = 0
	MaxScore = 10
)

type SessionInput struct {
	TasterName     string                 `json:"taster_name" validate:"required"`
	Kind           enums.CuppingKind      `json:"kind" validate:"required,enum"`
	Date           *time.Time             `json:"date"`
	RoastedStockID *string                `json:"roasted_stock_id"`
	Form           *models.SensoryForm    `json:"form"`
	Samples        []models.CuppingSample `json:"samples"`
}

type ListFilter struct {
	Kind           enums.CuppingKind
	RoastedStockID string
}

type Service interface {
	Create(ctx context.Context, actor string, input SessionInput) (*models.CuppingSession, error)
	Get(ctx context.Context, id string) (*models.CuppingSession, error)
	List(ctx context.Context, filter ListFilter) ([]models.CuppingSession, error)
	Delete(ctx context.Context, actor, id string) error
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

func (s *service) Create(ctx context.Context, actor string, input SessionInput) (*models.CuppingSession, error) {
	if err := Validate(input); err != nil {
		return nil, err
	}
	session := &models.CuppingSession{
		ID:         uuid.NewString(),
		TasterName: strings.TrimSpace(input.TasterName),
		Kind:       input.Kind,
		Samples:    datatypes.JSONSlice[models.CuppingSample]{},
	}
	if input.Kind == enums.CuppingKindInternal {
		stockID := strings.TrimSpace(*input.RoastedStockID)
		session.RoastedStockID = &stockID
		form := datatypes.NewJSONType(normalizeForm(*input.Form))
		session.Form = &form
	} else {
		for _, sample := range input.Samples {
			sample.Brand = strings.TrimSpace(sample.Brand)
			sample.Variety = strings.TrimSpace(sample.Variety)
			sample.Form = normalizeForm(sample.Form)
			session.Samples = append(session.Samples, sample)
		}
	}

	err := s.writer.Run(ctx, actor, func(tx *store.Tx) error {
		if session.RoastedStockID != nil {
			if _, err := repo.Get[models.RoastedStock](tx.DB, *session.RoastedStockID, "roasted stock"); err != nil {
				return err
			}
		}
		session.Date = tx.Now()
		if input.Date != nil {
			session.Date = input.Date.UTC()
		}
		return tx.Put(session)
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (s *service) Get(ctx context.Context, id string) (*models.CuppingSession, error) {
	return repo.Get[models.CuppingSession](s.writer.DB(ctx), id, "cupping session")
}

func (s *service) List(ctx context.Context, filter ListFilter) ([]models.CuppingSession, error) {
	return repo.List[models.CuppingSession](s.writer.DB(ctx), repo.Filter{
		"kind":             filter.Kind,
		"roasted_stock_id": filter.RoastedStockID,
	}, "date DESC")
}

func (s *service) Delete(ctx context.Context, actor, id string) error {
	return s.writer.Run(ctx, actor, func(tx *store.Tx) error {
		session, err := repo.Get[models.CuppingSession](tx.DB, id, "cupping session")
		if err != nil {
			return err
		}
		return tx.Remove(session)
	})
}

// Validate checks a session before it is stored. Errors carry the offending
// field path in their details.
func Validate(input SessionInput) error {
	if strings.TrimSpace(input.TasterName) == "" {
		return invalid("taster_name", "taster name is required")
	}
	switch input.Kind {
	case enums.CuppingKindInternal:
		if input.RoastedStockID == nil || strings.TrimSpace(*input.RoastedStockID) == "" {
			return invalid("roasted_stock_id", "internal cupping needs a roasted lot")
		}
		if input.Form == nil {
			return invalid("form", "sensory form is required")
		}
		return validateForm("form", *input.Form)
	case enums.CuppingKindFree:
		if len(input.Samples) == 0 {
			return invalid("samples", "free cupping needs at least one sample")
		}
		for i, sample := range input.Samples {
			path := fmt.Sprintf("samples[%d]", i)
			if strings.TrimSpace(sample.Brand) == "" {
				return invalid(path+".brand", fmt.Sprintf("sample %d: brand is required", i+1))
			}
			if strings.TrimSpace(sample.Variety) == "" {
				return invalid(path+".variety", fmt.Sprintf("sample %d: variety is required", i+1))
			}
			if err := validateForm(path+".form", sample.Form); err != nil {
				return err
			}
		}
		return nil
	default:
		return invalid("kind", fmt.Sprintf("invalid cupping kind %q", input.Kind))
	}
}

func validateForm(path string, form models.SensoryForm) error {
	for _, attr := range attributes(&form) {
		field := path + "." + attr.name
		if attr.score.Score < MinScore || attr.score.Score > MaxScore {
			return invalid(field+".score", fmt.Sprintf("%s score must be between %d and %d", attr.name, MinScore, MaxScore))
		}
		if attr.name == Sweetness && len(attr.score.Tags) > 0 {
			return invalid(field+".tags", "sweetness takes no descriptor tags")
		}
		for _, tag := range attr.score.Tags {
			if !allowed(attr.name, tag) {
				return invalid(field+".tags", fmt.Sprintf("unknown %s descriptor %q", attr.name, tag))
			}
		}
	}
	return nil
}

type namedScore struct {
	name  string
	score *models.AttributeScore
}

func attributes(form *models.SensoryForm) []namedScore {
	return []namedScore{
		{Fragrance, &form.Fragrance},
		{Aroma, &form.Aroma},
		{Flavor, &form.Flavor},
		{Aftertaste, &form.Aftertaste},
		{Acidity, &form.Acidity},
		{Sweetness, &form.Sweetness},
		{Mouthfeel, &form.Mouthfeel},
	}
}

// normalizeForm trims notes and maps tags onto their vocabulary spelling.
func normalizeForm(form models.SensoryForm) models.SensoryForm {
	for _, attr := range attributes(&form) {
		attr.score.Notes = strings.TrimSpace(attr.score.Notes)
		tags := make([]string, 0, len(attr.score.Tags))
		for _, tag := range attr.score.Tags {
			for _, candidate := range vocabularies[attr.name] {
				if strings.EqualFold(candidate, tag) {
					tags = append(tags, candidate)
					break
				}
			}
		}
		if len(tags) == 0 {
			tags = nil
		}
		attr.score.Tags = tags
	}
	return form
}

func invalid(field, message string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, message).WithDetails(map[string]any{"field": field})
}
