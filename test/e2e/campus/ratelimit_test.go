//go:build integration

package campus_test

import (
	"errors"
	"testing"

	"github.com/aussiebroadwan/campus/pkg/campussdk"
	"github.com/stretchr/testify/require"
)

// TestLoginRateLimit runs with production limits: five strict requests per
// minute per IP.
func TestLoginRateLimit(t *testing.T) {
	svc := startCampus(t, serviceOptions{})
	ctx := t.Context()
	c := campussdk.NewSDKClient(svc.BaseURL)

	limited := false
	for range 10 {
		_, err := c.Login(ctx, "nobody@college.edu", "wrong-password")
		if errors.Is(err, campussdk.ErrRateLimited) {
			limited = true
			break
		}
		require.ErrorIs(t, err, campussdk.ErrInvalidCredentials)
	}
	require.True(t, limited, "login should be rate limited")

	// Anonymous reads use a separate profile.
	_, err := c.ListEvents(ctx)
	require.NoError(t, err)
}
