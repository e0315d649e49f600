package sqlite

import (
	"context"
	"embed"

	"github.com/pressly/goose/v3"
	"gorm.io/gorm"
)

// Schema migrations ship inside the binary; the server and the tests apply
// them the same way.
//
//go:embed migrations/*.sql
var migrationsFS embed.FS

// RunMigrations brings the cmdb schema up to date on the given connection.
func RunMigrations(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	// modernc registers as "sqlite"; goose only knows the dialect as sqlite3.
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	goose.SetBaseFS(migrationsFS)

	return goose.UpContext(ctx, sqlDB, "migrations")
}
