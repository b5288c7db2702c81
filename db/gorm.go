package db

import (
	"fmt"
	"time"

	"songclub/config"
	"songclub/model"
	applogger "songclub/logger"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// GormDB is the GORM database handle. It coexists with DB (*sql.DB); the
// themes and reactions tables are managed through GORM.
var GormDB *gorm.DB

// ConnectGormDB establishes the GORM database connection.
func ConnectGormDB(cfg *config.Config) error {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)

	var err error
	GormDB, err = gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Warn),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return fmt.Errorf("failed to connect database with GORM: %w", err)
	}

	sqlDB, err := GormDB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	applogger.Info("Successfully connected to the database with GORM")
	return nil
}

// MigrateGormModels creates or updates the GORM-managed tables and seeds the
// default theme reference data.
func MigrateGormModels() error {
	if err := GormDB.AutoMigrate(&model.Theme{}, &model.Reaction{}); err != nil {
		return fmt.Errorf("failed to migrate GORM models: %w", err)
	}
	return seedThemes()
}

// seedThemes inserts the default themes when the table is empty. Themes are
// read-only reference data from the application's point of view.
func seedThemes() error {
	var count int64
	if err := GormDB.Model(&model.Theme{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count themes: %w", err)
	}
	if count > 0 {
		return nil
	}

	defaults := []model.Theme{
		{Name: "Acoustic"},
		{Name: "Electronic"},
		{Name: "Hip-Hop"},
		{Name: "Jazz"},
		{Name: "Lo-Fi"},
		{Name: "Rock"},
	}
	if err := GormDB.Create(&defaults).Error; err != nil {
		return fmt.Errorf("failed to seed themes: %w", err)
	}
	applogger.Info("Seeded default themes", applogger.Int("count", len(defaults)))
	return nil
}

// CloseGormDB closes the GORM database connection.
func CloseGormDB() error {
	if GormDB == nil {
		return nil
	}

	sqlDB, err := GormDB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
