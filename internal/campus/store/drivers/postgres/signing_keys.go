package postgres

import (
	"context"
	"time"

	"github.com/aussiebroadwan/campus/internal/campus/domain"
	"github.com/jackc/pgx/v5"
)

type signingKeysRepo struct {
	db dbtx
}

func (r *signingKeysRepo) CreateSigningKey(ctx context.Context, key domain.SigningKey) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO signing_keys (id, kid, algorithm, private_key_encrypted, created_at, retired_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		key.ID, key.Kid, key.Algorithm, key.PrivateKeyEncrypted, key.CreatedAt, key.RetiredAt,
	)
	return mapUnique(err)
}

func (r *signingKeysRepo) ListSigningKeys(ctx context.Context) ([]domain.SigningKey, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, kid, algorithm, private_key_encrypted, created_at, retired_at
		 FROM signing_keys ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	keys, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.SigningKey, error) {
		var k domain.SigningKey
		err := row.Scan(&k.ID, &k.Kid, &k.Algorithm, &k.PrivateKeyEncrypted, &k.CreatedAt, &k.RetiredAt)
		return k, err
	})
	if err != nil {
		return nil, err
	}
	if keys == nil {
		keys = []domain.SigningKey{}
	}
	return keys, nil
}

func (r *signingKeysRepo) RetireSigningKey(ctx context.Context, kid string, at time.Time) error {
	return mustAffect(r.db.Exec(ctx,
		`UPDATE signing_keys SET retired_at = $1 WHERE kid = $2 AND retired_at IS NULL`,
		at, kid,
	))
}
