package database

import (
	"context"
	"errors"
	"fmt"

	"entrypass/entity"
	"entrypass/lib/apperr"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgSchema = `
CREATE TABLE IF NOT EXISTS passes (
	id                BIGSERIAL PRIMARY KEY,
	name              TEXT NOT NULL,
	surname           TEXT NOT NULL,
	national_id       TEXT NOT NULL,
	status            TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'registered')),
	created_at        TIMESTAMPTZ NOT NULL,
	checked_in_at     TIMESTAMPTZ NULL,
	owner_id          BIGINT NULL,
	record_created_at TIMESTAMPTZ NOT NULL,
	record_updated_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS passes_created_at_idx ON passes (created_at DESC);
CREATE INDEX IF NOT EXISTS passes_national_id_idx ON passes (national_id);
`

type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(ctx context.Context, url string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("postgres connect: %w", err)
	}
	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	if _, err = pool.Exec(ctx, pgSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres schema: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Close() {
	p.pool.Close()
}

func (p *Postgres) CreatePass(ctx context.Context, pass *entity.Pass) (*entity.Pass, error) {
	query := `
		INSERT INTO passes (name, surname, national_id, status, created_at, checked_in_at, owner_id, record_created_at, record_updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + passColumns

	created, err := scanPgPass(p.pool.QueryRow(ctx, query,
		pass.Name,
		pass.Surname,
		pass.NationalId,
		string(pass.Status),
		pass.CreatedAt,
		pass.CheckedInAt,
		pass.OwnerId,
		pass.RecordCreatedAt,
		pass.RecordUpdatedAt,
	))
	if err != nil {
		return nil, apperr.Internal("insert pass", err)
	}
	return created, nil
}

func (p *Postgres) GetPass(ctx context.Context, id int64) (*entity.Pass, error) {
	query := `SELECT ` + passColumns + ` FROM passes WHERE id = $1`
	pass, err := scanPgPass(p.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("pass %d", id)
		}
		return nil, apperr.Internal("select pass", err)
	}
	return pass, nil
}

// UpdatePassStatus writes and reads back in one statement; no row means the id
// is unknown or the guard did not hold.
func (p *Postgres) UpdatePassStatus(ctx context.Context, upd entity.StatusUpdate) (*entity.Pass, bool, error) {
	query := `
		UPDATE passes
		SET status = $1, checked_in_at = $2, record_updated_at = $3
		WHERE id = $4`
	args := []any{string(upd.Status), upd.CheckedInAt, upd.UpdatedAt, upd.Id}
	if upd.Expect != nil {
		query += ` AND status = $5`
		args = append(args, string(*upd.Expect))
	}
	query += ` RETURNING ` + passColumns

	pass, err := scanPgPass(p.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, apperr.Internal("update status", err)
	}
	return pass, true, nil
}

func (p *Postgres) ListPasses(ctx context.Context, search string) ([]*entity.Pass, error) {
	query := `SELECT ` + passColumns + ` FROM passes`
	var args []any
	if search != "" {
		query += ` WHERE national_id ILIKE $1 OR name ILIKE $1 OR surname ILIKE $1`
		args = append(args, likePattern(search))
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, apperr.Internal("query passes", err)
	}
	defer rows.Close()

	passes := make([]*entity.Pass, 0)
	for rows.Next() {
		pass, err := scanPgPass(rows)
		if err != nil {
			return nil, apperr.Internal("scan pass", err)
		}
		passes = append(passes, pass)
	}
	if err = rows.Err(); err != nil {
		return nil, apperr.Internal("read passes", err)
	}
	return passes, nil
}

func scanPgPass(row pgx.Row) (*entity.Pass, error) {
	var pass entity.Pass
	var status string
	if err := row.Scan(
		&pass.Id,
		&pass.Name,
		&pass.Surname,
		&pass.NationalId,
		&status,
		&pass.CreatedAt,
		&pass.CheckedInAt,
		&pass.OwnerId,
		&pass.RecordCreatedAt,
		&pass.RecordUpdatedAt,
	); err != nil {
		return nil, err
	}
	pass.Status = entity.Status(status)
	pass.CreatedAt = pass.CreatedAt.UTC()
	pass.RecordCreatedAt = pass.RecordCreatedAt.UTC()
	pass.RecordUpdatedAt = pass.RecordUpdatedAt.UTC()
	if pass.CheckedInAt != nil {
		t := pass.CheckedInAt.UTC()
		pass.CheckedInAt = &t
	}
	return &pass, nil
}
