package auth

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/roastery-backend/pkg/db/models"
)

// identityRepository reads and writes auth_identities on the remote mirror.
type identityRepository struct {
	db *gorm.DB
}

func (r identityRepository) FindByEmail(ctx context.Context, email string) (*models.Identity, error) {
	var identity models.Identity
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&identity).Error; err != nil {
		return nil, err
	}
	return &identity, nil
}

func (r identityRepository) Create(ctx context.Context, identity *models.Identity) error {
	return r.db.WithContext(ctx).Create(identity).Error
}

func (r identityRepository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.Identity{}).Where("id = ?", id).Update("last_login_at", at).Error
}

func (r identityRepository) FindProfile(ctx context.Context, id string) (*models.UserProfile, error) {
	var profile models.UserProfile
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}
