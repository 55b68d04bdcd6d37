package auth

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// Migrate creates the admins and users tables with the unique email index
// each store relies on. It is safe to run more than once.
func Migrate(ctx context.Context, db bun.IDB) error {
	tables := []struct {
		model any
		index string
		table string
	}{
		{model: (*AdminAccount)(nil), index: "admins_email_key_idx", table: "admins"},
		{model: (*UserAccount)(nil), index: "users_email_key_idx", table: "users"},
	}

	for _, t := range tables {
		if _, err := db.NewCreateTable().Model(t.model).IfNotExists().Exec(ctx); err != nil {
			return errors.Wrap(err, errors.CategoryInternal, "failed to create table "+t.table)
		}

		_, err := db.NewCreateIndex().
			Model(t.model).
			Unique().
			IfNotExists().
			Index(t.index).
			Column("email_key").
			Exec(ctx)
		if err != nil {
			return errors.Wrap(err, errors.CategoryInternal, "failed to create index "+t.index)
		}
	}

	return nil
}
