package postgres

import (
	"context"
	"time"

	"github.com/aussiebroadwan/campus/internal/campus/domain"
	"github.com/aussiebroadwan/campus/internal/campus/store"
)

type imagesRepo struct {
	db dbtx
}

func (r *imagesRepo) CreateImage(ctx context.Context, img domain.Image) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO images (id, content_type, data, created_at) VALUES ($1, $2, $3, $4)`,
		img.ID, img.ContentType, img.Data, img.CreatedAt,
	)
	return mapUnique(err)
}

func (r *imagesRepo) GetImage(ctx context.Context, id string) (domain.Image, error) {
	var img domain.Image
	err := r.db.QueryRow(ctx,
		`SELECT id, content_type, data, created_at FROM images WHERE id = $1`, id,
	).Scan(&img.ID, &img.ContentType, &img.Data, &img.CreatedAt)
	return img, mapNotFound(err)
}

func (r *imagesRepo) DeleteImage(ctx context.Context, id string) error {
	return mustAffect(r.db.Exec(ctx, `DELETE FROM images WHERE id = $1`, id))
}

func (r *imagesRepo) DeleteOrphanedImages(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM images i
		 WHERE i.created_at < $1
		   AND NOT EXISTS (SELECT 1 FROM events e WHERE e.image = $2 || i.id)`,
		cutoff, store.MediaPrefix,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
