package remote

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/roastery-backend/pkg/db/models"
)

const (
	settingURL       = "remote.url"
	settingAccessKey = "remote.access_key"
)

// Settings is the operator-entered endpoint of the remote mirror.
type Settings struct {
	URL       string
	AccessKey string
}

func (s Settings) Configured() bool {
	return s.URL != ""
}

// SettingsStore persists Settings in the local settings table.
type SettingsStore struct {
	db *gorm.DB
}

func NewSettingsStore(db *gorm.DB) *SettingsStore {
	return &SettingsStore{db: db}
}

func (s *SettingsStore) Load(ctx context.Context) (Settings, error) {
	var rows []models.Setting
	err := s.db.WithContext(ctx).
		Where("key IN ?", []string{settingURL, settingAccessKey}).
		Find(&rows).Error
	if err != nil {
		return Settings{}, err
	}
	var out Settings
	for _, row := range rows {
		switch row.Key {
		case settingURL:
			out.URL = row.Value
		case settingAccessKey:
			out.AccessKey = row.Value
		}
	}
	return out, nil
}

func (s *SettingsStore) Save(ctx context.Context, settings Settings) error {
	if settings.URL == "" {
		return errors.New("remote url is required")
	}
	now := time.Now().UTC()
	rows := []models.Setting{
		{Key: settingURL, Value: settings.URL, UpdatedAt: now},
		{Key: settingAccessKey, Value: settings.AccessKey, UpdatedAt: now},
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&rows).Error
}
