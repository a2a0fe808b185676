// Package sqlite provides SQLite database setup and configuration
package sqlite

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/alchemorsel/fusionchef/internal/domain/recipe"
	"github.com/alchemorsel/fusionchef/internal/infrastructure/config"
	gormModels "github.com/alchemorsel/fusionchef/internal/infrastructure/persistence/gorm"
)

// SetupDatabase opens the SQLite database and migrates the schema
func SetupDatabase(cfg config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	dbPath := cfg.SQLitePath
	// Use in-memory database if no path provided
	if dbPath == "" {
		dbPath = "file::memory:?cache=shared"
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: gormModels.NewLogger(log, cfg.LogLevel, cfg.SlowQueryThreshold),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	// SQLite serialises writers; one connection avoids SQLITE_BUSY under load
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(gormModels.AllModels()...); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Info("SQLite database ready", zap.String("path", dbPath))
	return db, nil
}

// SeedDatabase populates an empty database with demo recipes for the community feed
func SeedDatabase(db *gorm.DB) error {
	var count int64
	if err := db.Model(&gormModels.RecipeModel{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil // Already seeded
	}

	demo := []recipe.Result{
		{
			DishName:        "김치 크림 파스타",
			Comment:         "새콤한 김치와 크림의 의외의 궁합!",
			IngredientsList: "파스타 100g, 김치 1컵, 생크림 200ml, 베이컨 2줄",
			EasyRecipe:      "1. 파스타를 삶는다\n2. 베이컨과 김치를 볶는다\n3. 생크림을 붓고 파스타와 섞는다",
			GourmetRecipe:   "김치를 버터에 캐러멜라이즈한 뒤 파르미지아노로 마무리한다",
		},
		{
			DishName:        "두부 스테이크",
			Comment:         "겉바속촉 단백질 한 접시",
			IngredientsList: "두부 1모, 간장 2큰술, 올리고당 1큰술, 마늘 2쪽",
			EasyRecipe:      "1. 두부 물기를 뺀다\n2. 노릇하게 굽는다\n3. 간장 소스를 졸여 끼얹는다",
			GourmetRecipe:   "두부를 전분에 굴려 튀기듯 굽고 유자 간장으로 마무리한다",
		},
	}

	stats := []recipe.Stats{
		{RatingSum: 9, RatingCount: 2, VoteSuccess: 3, VoteFail: 1, DownloadCount: 5},
		{RatingSum: 4, RatingCount: 1, VoteSuccess: 1},
	}

	for i, r := range demo {
		model := gormModels.RecipeToModel(r)
		model.RatingSum = stats[i].RatingSum
		model.RatingCount = stats[i].RatingCount
		model.VoteSuccess = stats[i].VoteSuccess
		model.VoteFail = stats[i].VoteFail
		model.DownloadCount = stats[i].DownloadCount
		if err := db.Create(model).Error; err != nil {
			return fmt.Errorf("failed to create demo recipe: %w", err)
		}
	}

	return nil
}
