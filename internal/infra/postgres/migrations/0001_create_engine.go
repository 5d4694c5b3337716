package migrations

import (
	"context"
	_ "embed"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

//go:embed 0001_create_engine.sql
var createEngineSQL string

var Migrations = migrate.NewMigrations()

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.Exec(createEngineSQL)
			return err
		},
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.Exec(`
				DROP TABLE IF EXISTS quiz_attempts;
				DROP TABLE IF EXISTS user_progress;
				DROP TABLE IF EXISTS path_quizzes;
				DROP TABLE IF EXISTS path_templates;
				DROP TABLE IF EXISTS paths;
				DROP TABLE IF EXISTS quizzes;
				DROP TABLE IF EXISTS users;
				DROP SEQUENCE IF EXISTS quiz_key_seq;
			`)
			return err
		},
	)
}
