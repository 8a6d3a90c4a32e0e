package store

import (
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/tariktz/siteindexer/internal/store/migrations"
)

// Migrate applies every pending migration embedded in internal/store/migrations.
func (s *MySQLStore) Migrate() error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("mysql"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.Up(s.DB(), "."); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}
