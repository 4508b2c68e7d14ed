package sqlite

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
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO images (id, content_type, data, created_at) VALUES (?, ?, ?, ?)`,
		img.ID, img.ContentType, img.Data, img.CreatedAt.UTC(),
	)
	return mapUnique(err)
}

func (r *imagesRepo) GetImage(ctx context.Context, id string) (domain.Image, error) {
	var img domain.Image
	err := r.db.QueryRowContext(ctx,
		`SELECT id, content_type, data, created_at FROM images WHERE id = ?`, id,
	).Scan(&img.ID, &img.ContentType, &img.Data, &img.CreatedAt)
	return img, mapNotFound(err)
}

func (r *imagesRepo) DeleteImage(ctx context.Context, id string) error {
	return mustAffect(r.db.ExecContext(ctx, `DELETE FROM images WHERE id = ?`, id))
}

func (r *imagesRepo) DeleteOrphanedImages(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM images
		 WHERE created_at < ?
		   AND NOT EXISTS (SELECT 1 FROM events e WHERE e.image = ? || images.id)`,
		cutoff.UTC(), store.MediaPrefix,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
