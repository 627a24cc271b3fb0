package migrations

import (
	"context"

	"github.com/uptrace/bun"

	"teacher-assistant-bot/internal/infra/sqlstore"
)

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.NewCreateIndex().
				Model((*sqlstore.ResultRow)(nil)).
				Index("quiz_results_tg_id_idx").
				Column("tg_id").
				IfNotExists().
				Exec(ctx)
			return err
		},
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.NewDropIndex().
				Model((*sqlstore.ResultRow)(nil)).
				Index("quiz_results_tg_id_idx").
				IfExists().
				Exec(ctx)
			return err
		},
	)
}
