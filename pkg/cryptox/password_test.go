package cryptox

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "campus-pepper")
	if err != nil {
		panic(err)
	}
	SetPepperPath(filepath.Join(dir, "pepper"))

	code := m.Run()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

func TestPasswordRoundTrip(t *testing.T) {
	for _, pw := range []string{"admin123", "secret1", "", "   ", "mot de passe élève", strings.Repeat("x", 128)} {
		hash, err := HashPassword(pw)
		require.NoError(t, err)
		require.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=19456,t=2,p=1$"), hash)

		require.NoError(t, VerifyPassword(pw, hash))
		require.ErrorIs(t, VerifyPassword(pw+"!", hash), ErrPasswordMismatch)
	}
}

func TestHashPasswordSaltsEachCall(t *testing.T) {
	a, err := HashPassword("admin123")
	require.NoError(t, err)
	b, err := HashPassword("admin123")
	require.NoError(t, err)

	require.NotEqual(t, a, b)
	require.NoError(t, VerifyPassword("admin123", a))
	require.NoError(t, VerifyPassword("admin123", b))
}

func TestVerifyPasswordMalformedHash(t *testing.T) {
	good, err := HashPassword("secret1")
	require.NoError(t, err)
	parts := strings.Split(good, "$")

	tests := map[string]string{
		"empty":          "",
		"bcrypt":         "$2a$10$abcdefghijklmnopqrstuv",
		"wrong version":  strings.Join([]string{"", "argon2id", "v=18", parts[3], parts[4], parts[5]}, "$"),
		"bad params":     strings.Join([]string{"", "argon2id", "v=19", "m=x", parts[4], parts[5]}, "$"),
		"bad salt":       strings.Join([]string{"", "argon2id", "v=19", parts[3], "!!", parts[5]}, "$"),
		"bad digest":     strings.Join([]string{"", "argon2id", "v=19", parts[3], parts[4], "!!"}, "$"),
		"not argon2id":   strings.Join([]string{"", "argon2i", "v=19", parts[3], parts[4], parts[5]}, "$"),
		"too many parts": good + "$extra",
	}
	for name, hash := range tests {
		t.Run(name, func(t *testing.T) {
			require.ErrorIs(t, VerifyPassword("secret1", hash), ErrMalformedHash)
		})
	}
}

func TestPepperChangesHash(t *testing.T) {
	hash, err := HashPassword("secret1")
	require.NoError(t, err)

	original := pepperFile
	SetPepperPath(filepath.Join(t.TempDir(), "other-pepper"))
	t.Cleanup(func() { SetPepperPath(original) })

	require.ErrorIs(t, VerifyPassword("secret1", hash), ErrPasswordMismatch)
}

func TestPepperPersistsAcrossReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "pepper")

	first, err := loadOrGeneratePepper(path)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	second, err := loadOrGeneratePepper(path)
	require.NoError(t, err)
	require.Equal(t, first, second)
}
