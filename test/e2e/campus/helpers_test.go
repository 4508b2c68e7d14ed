//go:build integration

package campus_test

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/campus/pkg/campussdk"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/network"
	"github.com/testcontainers/testcontainers-go/wait"
)

/*
 * Container setup and account helpers shared by the campus end-to-end tests.
 * OTP codes are read back from the service log, since SMTP is left
 * unconfigured and the log mailer records each message summary.
 */

const (
	testImageName = "campus-test:latest"

	seedAdminEmail    = "admin@college.edu"
	seedAdminPassword = "admin123"
)

// TestMain builds the Docker image once before all tests and removes it
// afterwards.
func TestMain(m *testing.M) {
	fmt.Fprintf(os.Stdout, "Building campus Docker image...")

	if err := buildDockerImage(); err != nil {
		fmt.Fprintf(os.Stderr, "\nFailed to build Docker image: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stdout, " done\n")

	exitCode := m.Run()

	fmt.Fprintf(os.Stdout, "Cleaning up campus Docker image...")
	cleanupDockerImage()
	fmt.Fprintf(os.Stdout, " done\n")

	os.Exit(exitCode)
}

func buildDockerImage() error {
	cmd := exec.CommandContext(context.Background(), "docker", "build",
		"-t", testImageName,
		"-f", "../../../cmd/server/Dockerfile",
		"../../../")
	cmd.Stdout = os.Stdout
	return cmd.Run()
}

func cleanupDockerImage() {
	_ = exec.CommandContext(context.Background(), "docker", "rmi", "-f", testImageName).Run()
}

// relaxedLimits keeps the strict auth profile out of the way of tests that
// sign up several accounts.
var relaxedLimits = map[string]string{
	"RATELIMIT_STRICT_REQUESTS":   "1000",
	"RATELIMIT_STRICT_WINDOW_SEC": "60",
	"RATELIMIT_STRICT_BURST":      "1000",
	"RATELIMIT_MODERATE_REQUESTS": "1000",
	"RATELIMIT_MODERATE_BURST":    "1000",
}

type campusService struct {
	BaseURL   string
	container testcontainers.Container
}

type serviceOptions struct {
	env      map[string]string
	networks []string
}

// startCampus runs the service image with the given environment on top of
// the test defaults.
func startCampus(t *testing.T, opts serviceOptions) *campusService {
	t.Helper()
	ctx := context.Background()

	env := map[string]string{
		"ENV":               "test",
		"LOG_LEVEL":         "info",
		"LOG_FORMAT":        "json",
		"SEED_DEMO":         "true",
		"CAMPUS_MASTER_KEY": "e2e-master-key",
	}
	for k, v := range opts.env {
		env[k] = v
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        testImageName,
			ExposedPorts: []string{"8080/tcp"},
			Env:          env,
			Networks:     opts.networks,
			WaitingFor: wait.ForHTTP("/readyz").
				WithPort("8080/tcp").
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "8080")
	require.NoError(t, err)

	return &campusService{
		BaseURL:   fmt.Sprintf("http://%s:%s", host, port.Port()),
		container: container,
	}
}

// startSQLiteCampus runs the service on its bundled sqlite database.
func startSQLiteCampus(t *testing.T) *campusService {
	return startCampus(t, serviceOptions{env: relaxedLimits})
}

// newNetwork creates a docker network removed with the test.
func newNetwork(t *testing.T) *testcontainers.DockerNetwork {
	t.Helper()
	nw, err := network.New(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = nw.Remove(context.Background()) })
	return nw
}

// latestOTP scans the service log for the most recent OTP sent to email.
func (s *campusService) latestOTP(email string) string {
	logs, err := s.container.Logs(context.Background())
	if err != nil {
		return ""
	}
	defer logs.Close()

	var code string
	sc := bufio.NewScanner(logs)
	for sc.Scan() {
		line := sc.Text()
		// Docker multiplexed streams prefix each line with a frame header.
		if i := strings.IndexByte(line, '{'); i > 0 {
			line = line[i:]
		}
		var entry struct {
			To      string `json:"to"`
			Summary string `json:"summary"`
		}
		if json.Unmarshal([]byte(line), &entry) != nil || entry.To != email {
			continue
		}
		if c, ok := strings.CutPrefix(entry.Summary, "otp "); ok {
			code = c
		}
	}
	return code
}

// otpFor waits for an OTP addressed to email to show up in the log.
func (s *campusService) otpFor(t *testing.T, email string) string {
	t.Helper()

	var code string
	require.Eventually(t, func() bool {
		code = s.latestOTP(email)
		return code != ""
	}, 10*time.Second, 200*time.Millisecond)
	return code
}

// signUp registers and verifies a student, returning a signed-in client.
func (s *campusService) signUp(t *testing.T, name, email string) *campussdk.SDKClient {
	t.Helper()
	ctx := t.Context()

	c := campussdk.NewSDKClient(s.BaseURL)
	_, err := c.Register(ctx, campussdk.RegisterRequest{Name: name, Email: email, Password: "secret1"})
	require.NoError(t, err)

	_, err = c.VerifyOTP(ctx, email, s.otpFor(t, email))
	require.NoError(t, err)
	return c
}

// admin signs in as the seeded demo admin.
func (s *campusService) admin(t *testing.T) *campussdk.SDKClient {
	t.Helper()

	c := campussdk.NewSDKClient(s.BaseURL)
	auth, err := c.Login(t.Context(), seedAdminEmail, seedAdminPassword)
	require.NoError(t, err)
	require.Equal(t, "admin", auth.User.Role)
	return c
}
