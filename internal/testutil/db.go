// Package testutil builds throwaway databases and fixtures for package tests.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/javajoker/digital-storefront/internal/database"
	"github.com/javajoker/digital-storefront/internal/models"
)

// NewDB opens a migrated SQLite database that lives in the test's temp dir.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "storefront.db") + "?_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.RunMigrations(db))
	return db
}

func CreateUser(t testing.TB, db *gorm.DB, username string) *models.User {
	t.Helper()

	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Status:   models.UserStatusActive,
	}
	require.NoError(t, user.SetPassword("TestPass123!"))
	require.NoError(t, db.Create(user).Error)
	return user
}

func CreateProduct(t testing.TB, db *gorm.DB, slug string, price int64, active bool) *models.Product {
	t.Helper()

	product := &models.Product{
		Slug:         slug,
		Title:        slug,
		Description:  "Demo",
		PricePennies: price,
		Active:       true,
	}
	require.NoError(t, db.Create(product).Error)

	// gorm skips zero-value bools on create, so inactive rows are flipped afterwards
	if !active {
		require.NoError(t, db.Model(product).Update("active", false).Error)
		product.Active = false
	}
	return product
}

func CreateAsset(t testing.TB, db *gorm.DB, productID uuid.UUID, filePath, fileName string) *models.DigitalAsset {
	t.Helper()

	asset := &models.DigitalAsset{
		ProductID: productID,
		FilePath:  filePath,
		FileName:  fileName,
		SHA256:    "deadbeef",
		SizeBytes: 5,
	}
	require.NoError(t, db.Create(asset).Error)
	return asset
}

func GrantAsset(t testing.TB, db *gorm.DB, userID uuid.UUID, asset *models.DigitalAsset) *models.UserAsset {
	t.Helper()

	grant := &models.UserAsset{
		UserID:         userID,
		ProductID:      asset.ProductID,
		DigitalAssetID: asset.ID,
	}
	require.NoError(t, db.Create(grant).Error)
	return grant
}
