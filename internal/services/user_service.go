package services

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"

	"github.com/remoteradar/remote-radar/internal/models"
)

// UserService is the read-mostly boundary to the user subsystem: it
// resolves an identity to its resume text and role→keywords interest
// profile. Account management itself lives elsewhere.
type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// InterestProfile decodes the stored role→keywords mapping. A user without
// one gets an empty profile, which recommend mode treats as "all active
// jobs".
func (s *UserService) InterestProfile(user *models.User) (map[string][]string, error) {
	if len(user.ResumeKeywords) == 0 {
		return map[string][]string{}, nil
	}
	var profile map[string][]string
	if err := json.Unmarshal(user.ResumeKeywords, &profile); err != nil {
		return nil, fmt.Errorf("decode interest profile for %s: %w", user.Email, err)
	}
	return profile, nil
}

// SaveInterestProfile stores a freshly extracted role→keywords mapping.
func (s *UserService) SaveInterestProfile(ctx context.Context, userID uint, profile map[string][]string) error {
	raw, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("encode interest profile: %w", err)
	}
	return s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Update("resume_keywords", raw).Error
}
