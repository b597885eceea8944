package db

import (
	"fmt"
	"os"
	"strings"
	"time"

	migrate "github.com/golang-migrate/migrate/v4"
	// The following blank imports register the postgres driver and file source for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/nexbill/payments/internal/models"
)

// ConnectAndMigrate opens the database and brings the schema up to date.
// Postgres DSNs get a retry loop (container startup races); sqlite DSNs are
// opened directly and always use AutoMigrate. With MIGRATIONS=1 the postgres
// path runs SQL migrations via golang-migrate instead of AutoMigrate.
func ConnectAndMigrate() (*gorm.DB, error) {
	dsn := GetNormalizedDSN()
	if dsn == "" {
		return nil, fmt.Errorf("DATABASE_DSN is empty, check environment configuration")
	}

	logLevel := logger.Silent
	if os.Getenv("DB_DEBUG") == "1" {
		logLevel = logger.Info
	}
	cfg := &gorm.Config{Logger: logger.Default.LogMode(logLevel)}

	var db *gorm.DB
	var err error
	if IsSQLiteDSN(dsn) {
		db, err = gorm.Open(sqlite.Open(dsn), cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}
		if err := AutoMigrate(db); err != nil {
			return nil, err
		}
		return db, nil
	}

	for i := 0; i < 10; i++ {
		db, err = gorm.Open(postgres.Open(dsn), cfg)
		if err == nil {
			break
		}
		fmt.Println("Retrying DB connection...", err)
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect database after retries: %w", err)
	}
	if pingErr := db.Exec("SELECT 1").Error; pingErr != nil {
		return nil, fmt.Errorf("db ping failed: %w", pingErr)
	}

	fmt.Println("[DB] Using DSN:", MaskDSN(dsn))

	if v := strings.ToLower(os.Getenv("MIGRATIONS")); v == "1" || v == "true" || v == "yes" {
		if err := runSQLMigrations(dsn); err != nil {
			return nil, fmt.Errorf("sql migrations failed: %w", err)
		}
		return db, nil
	}
	if err := AutoMigrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// AutoMigrate creates/updates all tables the payment stack owns.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Customer{},
		&models.Supplier{},
		&models.Quotation{},
		&models.Invoice{},
		&models.PurchaseOrder{},
		&models.Proforma{},
		&models.AMCQuotation{},
		&models.AMCInvoice{},
		&models.DGQuotation{},
		&models.DGInvoice{},
		&models.DGPurchaseOrder{},
		&models.PaymentRecord{},
	)
}

func runSQLMigrations(dsn string) error {
	src := os.Getenv("MIGRATIONS_PATH")
	if src == "" {
		src = "migrations"
	}
	m, err := migrate.New("file://"+src, dsn)
	if err != nil {
		return err
	}
	defer func() { _, _ = m.Close() }()
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}
