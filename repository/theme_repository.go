package repository

import (
	"errors"
	"fmt"

	"songclub/model"

	"gorm.io/gorm"
)

// ThemeRepository defines read access to the theme reference data.
type ThemeRepository interface {
	GetAllThemes() ([]model.Theme, error)
	GetThemeByID(id int64) (*model.Theme, error)
}

// gormThemeRepository implements ThemeRepository on the GORM connection.
type gormThemeRepository struct {
	db *gorm.DB
}

// NewGormThemeRepository creates a new gormThemeRepository.
func NewGormThemeRepository(db *gorm.DB) ThemeRepository {
	return &gormThemeRepository{db: db}
}

// GetAllThemes returns all themes ordered by name.
func (r *gormThemeRepository) GetAllThemes() ([]model.Theme, error) {
	var themes []model.Theme
	if err := r.db.Order("name ASC").Find(&themes).Error; err != nil {
		return nil, fmt.Errorf("failed to query themes: %w", err)
	}
	return themes, nil
}

// GetThemeByID returns a theme, or nil when it does not exist.
func (r *gormThemeRepository) GetThemeByID(id int64) (*model.Theme, error) {
	var theme model.Theme
	err := r.db.First(&theme, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query theme ID %d: %w", id, err)
	}
	return &theme, nil
}
