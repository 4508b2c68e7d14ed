//go:build integration

package campus_test

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aussiebroadwan/campus/pkg/campussdk"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/network"
	"github.com/testcontainers/testcontainers-go/wait"
	"golang.org/x/sync/errgroup"
)

// startBackingServices runs postgres and redis on a private network and
// returns the environment the service needs to reach them.
func startBackingServices(t *testing.T) (*testcontainers.DockerNetwork, map[string]string) {
	t.Helper()
	ctx := context.Background()
	nw := newNetwork(t)

	pg, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("campus"),
		tcpostgres.WithUsername("campus"),
		tcpostgres.WithPassword("campus"),
		network.WithNetwork([]string{"db"}, nw),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(pg) })

	rd, err := tcredis.Run(ctx, "redis:7-alpine", network.WithNetwork([]string{"cache"}, nw))
	require.NoError(t, err)
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(rd) })

	env := map[string]string{
		"DATABASE_DRIVER": "postgres",
		"DATABASE_URL":    "postgres://campus:campus@db:5432/campus?sslmode=disable",
		"REDIS_URL":       "redis://cache:6379/0",
		"CAPACITY_MODE":   "strict",
	}
	for k, v := range relaxedLimits {
		env[k] = v
	}
	return nw, env
}

func TestSessionsAndTicketsSurviveRestart(t *testing.T) {
	nw, env := startBackingServices(t)
	ctx := t.Context()

	first := startCampus(t, serviceOptions{env: env, networks: []string{nw.Name}})
	admin := first.admin(t)
	events, err := admin.ListEvents(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, events)

	student := first.signUp(t, "Kai", "kai@college.edu")
	reg, err := student.RegisterForEvent(ctx, events[0].ID)
	require.NoError(t, err)
	require.NoError(t, first.container.Stop(ctx, nil))

	// A fresh instance shares nothing with the first but postgres and redis.
	second := startCampus(t, serviceOptions{env: env, networks: []string{nw.Name}})

	adminAgain := campussdk.NewSDKClient(second.BaseURL)
	_, err = adminAgain.Login(ctx, seedAdminEmail, seedAdminPassword)
	require.NoError(t, err)

	in, err := adminAgain.CheckIn(ctx, reg.TicketToken)
	require.NoError(t, err, "ticket signed before the restart still verifies")
	require.Equal(t, reg.ID, in.ID)

	events, err = adminAgain.ListEvents(ctx)
	require.NoError(t, err)
	require.Len(t, events, 5, "seeding is skipped on a populated store")
}

func TestConcurrentRegistrationsRespectCapacity(t *testing.T) {
	nw, env := startBackingServices(t)
	ctx := t.Context()

	svc := startCampus(t, serviceOptions{env: env, networks: []string{nw.Name}})
	ev, err := svc.admin(t).CreateEvent(ctx, campussdk.EventRequest{
		Title: "Flash Workshop", Description: "Very limited", Date: "2025-06-01",
		Time: "9:00 AM", Venue: "Lab 2", Image: "https://example.com/f.jpg",
		MaxCapacity: 3,
	})
	require.NoError(t, err)

	const students = 8
	clients := make([]*campussdk.SDKClient, students)
	for i := range clients {
		clients[i] = svc.signUp(t, fmt.Sprintf("Racer %d", i), fmt.Sprintf("racer%d@college.edu", i))
	}

	var ok, full atomic.Int32
	var g errgroup.Group
	for _, c := range clients {
		g.Go(func() error {
			_, err := c.RegisterForEvent(ctx, ev.ID)
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, campussdk.ErrEventFull):
				full.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	require.Equal(t, int32(3), ok.Load())
	require.Equal(t, int32(students-3), full.Load())

	detail, err := clients[0].GetEvent(ctx, ev.ID)
	require.NoError(t, err)
	require.Equal(t, 3, detail.RegisteredCount)
	require.Len(t, detail.RegisteredStudents, 3)
}
