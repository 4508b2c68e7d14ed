package cryptox

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateToken(t *testing.T) {
	tests := []struct {
		size    int
		wantLen int
	}{
		{TokenSize128, 22},
		{TokenSize256, 43},
	}
	for _, tt := range tests {
		tok, err := GenerateToken(tt.size)
		require.NoError(t, err)
		require.Len(t, tok, tt.wantLen)

		raw, err := base64.RawURLEncoding.DecodeString(tok)
		require.NoError(t, err)
		require.Len(t, raw, tt.size)
	}

	_, err := GenerateToken(0)
	require.Error(t, err)
	require.Panics(t, func() { MustGenerateToken(-1) })
}

func TestSessionIDsDoNotRepeat(t *testing.T) {
	seen := make(map[string]struct{}, 500)
	for range 500 {
		id := MustGenerateToken(TokenSize256)
		_, dup := seen[id]
		require.False(t, dup)
		seen[id] = struct{}{}
	}
}

func TestFingerprint(t *testing.T) {
	fp := FingerprintToken("042917")
	require.Len(t, fp, 43)
	require.Equal(t, fp, FingerprintToken("042917"))
	require.NotEqual(t, fp, FingerprintToken("042918"))

	require.True(t, MatchFingerprint("042917", fp))
	require.False(t, MatchFingerprint("042918", fp))
	require.False(t, MatchFingerprint("042917", ""))
}

func TestGenerateOTP(t *testing.T) {
	seen := make(map[string]struct{})
	for range 200 {
		code, err := GenerateOTP()
		require.NoError(t, err)
		require.Len(t, code, 6)
		for _, c := range code {
			require.True(t, c >= '0' && c <= '9', "otp must be numeric: %q", code)
		}
		seen[code] = struct{}{}
	}
	// 200 draws from a million values should almost never collide much.
	require.Greater(t, len(seen), 190)
}
