package session

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/campus/internal/campus/domain"
	"github.com/aussiebroadwan/campus/internal/campus/store"
)

// StoreBackend keeps sessions in the SQL store. Expired rows are removed by
// housekeeping.
type StoreBackend struct {
	Store store.Store
}

func (b *StoreBackend) Save(ctx context.Context, s domain.Session) error {
	return b.Store.Sessions().CreateSession(ctx, s)
}

func (b *StoreBackend) Load(ctx context.Context, id string, now time.Time) (domain.Session, error) {
	s, err := b.Store.Sessions().GetSession(ctx, id, now)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Session{}, ErrNotFound
	}
	return s, err
}

func (b *StoreBackend) Delete(ctx context.Context, id string) error {
	return b.Store.Sessions().DeleteSession(ctx, id)
}
