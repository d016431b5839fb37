// internal/database/connection.go
package database

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/buildops/materials-backend/internal/config"
	"github.com/buildops/materials-backend/internal/models"
)

var DB *gorm.DB

func Initialize(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var err error
	var gormConfig *gorm.Config

	// Configure GORM logger
	if cfg.LogLevel == "silent" {
		gormConfig = &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		}
	} else {
		gormConfig = &gorm.Config{
			Logger: logger.Default.LogMode(logger.Info),
		}
	}

	// Connect to database
	DB, err = gorm.Open(postgres.Open(cfg.DSN()), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying sql.DB
	sqlDB, err := DB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxLifetime) * time.Second)

	// Test connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Database connection established successfully")
	return DB, nil
}

func Close(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		log.Printf("Error getting underlying sql.DB: %v", err)
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.Printf("Error closing database connection: %v", err)
	} else {
		log.Println("Database connection closed successfully")
	}
}

func RunMigrations(db *gorm.DB) error {
	log.Println("Running database migrations...")

	err := db.AutoMigrate(
		&models.Product{},
		&models.Variant{},
		&models.SupplierOffer{},
		&models.PriceSnapshot{},
		&models.PropertyDefinition{},
		&models.Discount{},
		&models.InventoryRecord{},
		&models.SerializedUnit{},
		&models.Transaction{},
		&models.Notification{},
		&models.AuditLog{},
	)

	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Create indexes
	if err := createIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	log.Println("Database migrations completed successfully")
	return nil
}

func createIndexes(db *gorm.DB) error {
	indexes := []string{
		// Product indexes
		"CREATE INDEX IF NOT EXISTS idx_products_category_group ON products(category, category_group)",
		"CREATE INDEX IF NOT EXISTS idx_products_manufacturer ON products(manufacturer_id)",
		"CREATE INDEX IF NOT EXISTS idx_products_active ON products(is_active)",
		"CREATE INDEX IF NOT EXISTS idx_variants_product ON variants(product_id)",
		"CREATE INDEX IF NOT EXISTS idx_supplier_offers_product ON supplier_offers(product_id)",
		"CREATE INDEX IF NOT EXISTS idx_supplier_offers_variant ON supplier_offers(variant_id)",
		"CREATE INDEX IF NOT EXISTS idx_supplier_offers_manufacturer ON supplier_offers(manufacturer_id)",

		// Pricing history indexes
		"CREATE INDEX IF NOT EXISTS idx_price_snapshots_product ON price_snapshots(product_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_price_snapshots_discount ON price_snapshots(discount_id)",

		// Discount indexes
		"CREATE INDEX IF NOT EXISTS idx_discounts_type_active ON discounts(discount_type, is_active)",

		// Inventory indexes
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_inventory_product_variant ON inventory_records(product_id, COALESCE(variant_id, '00000000-0000-0000-0000-000000000000'::uuid)) WHERE deleted_at IS NULL",
		"CREATE INDEX IF NOT EXISTS idx_inventory_low_stock ON inventory_records(inventory_type, quantity_on_hand) WHERE reorder_point IS NOT NULL",
		"CREATE INDEX IF NOT EXISTS idx_inventory_transactions_record ON inventory_transactions(inventory_record_id, performed_at)",
		"CREATE INDEX IF NOT EXISTS idx_inventory_transactions_reference ON inventory_transactions(reference_type, reference_id)",

		// Notification indexes
		"CREATE INDEX IF NOT EXISTS idx_notifications_status ON notifications(status, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_resource ON audit_logs(resource_type, resource_id)",
	}

	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			log.Printf("Warning: Failed to create index: %s, Error: %v", index, err)
			// Continue with other indexes instead of failing completely
		}
	}

	return nil
}

// SeedInitialData installs the baseline property-definition catalog used to
// validate product and variant property maps.
func SeedInitialData(db *gorm.DB) error {
	log.Println("Seeding initial data...")

	defaults := []models.PropertyDefinition{
		{Key: "categoryGroup", Label: "Pricebook category group", DataType: "string"},
		{Key: "pipe_diameter", Label: "Pipe diameter", DataType: "number", UnitKey: "pipe_diameter", IsVariantKey: true},
		{Key: "insulation_thickness", Label: "Insulation thickness", DataType: "number", UnitKey: "insulation_thickness", IsVariantKey: true},
		{Key: "length", Label: "Length", DataType: "number", UnitKey: "length"},
		{Key: "weight", Label: "Weight", DataType: "number", UnitKey: "weight"},
		{Key: "temperature_rating", Label: "Temperature rating", DataType: "number", UnitKey: "temperature_rating"},
		{Key: "color", Label: "Color", DataType: "string"},
		{Key: "fire_rated", Label: "Fire rated", DataType: "boolean"},
	}

	for _, def := range defaults {
		var count int64
		db.Model(&models.PropertyDefinition{}).Where("key = ?", def.Key).Count(&count)
		if count == 0 {
			if err := db.Create(&def).Error; err != nil {
				log.Printf("Warning: Failed to seed property definition %s: %v", def.Key, err)
			}
		}
	}

	log.Println("Initial data seeding completed")
	return nil
}

// Transaction helper
func WithTransaction(db *gorm.DB, fn func(*gorm.DB) error) error {
	tx := db.Begin()
	if tx.Error != nil {
		return tx.Error
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}
