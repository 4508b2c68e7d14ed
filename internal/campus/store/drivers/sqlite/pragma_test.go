package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWithForeignKeys(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{":memory:", ":memory:?_pragma=foreign_keys(1)"},
		{"file:campus.db?_pragma=busy_timeout(5000)", "file:campus.db?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"},
		{"file:campus.db?_pragma=foreign_keys(0)", "file:campus.db?_pragma=foreign_keys(0)"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, withForeignKeys(tt.in))
	}
}

func TestForeignKeysSurviveReconnect(t *testing.T) {
	s, err := NewStore("file:" + filepath.Join(t.TempDir(), "campus.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	// Every query below runs on a freshly opened connection.
	s.db.SetMaxIdleConns(0)

	for range 3 {
		var on int
		require.NoError(t, s.db.QueryRowContext(context.Background(), `PRAGMA foreign_keys`).Scan(&on))
		require.Equal(t, 1, on)
	}
}
