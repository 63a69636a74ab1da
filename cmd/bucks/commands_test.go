package main

import (
	"bytes"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/redmonkez12/mybucks/internal/auth"
	"github.com/redmonkez12/mybucks/internal/config"
	httpServer "github.com/redmonkez12/mybucks/internal/http"
	"github.com/redmonkez12/mybucks/internal/logging"
	"github.com/redmonkez12/mybucks/internal/transaction"
	"github.com/redmonkez12/mybucks/internal/user"
)

var uuidPattern = regexp.MustCompile(`[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`)

func newTestAPI(t *testing.T) *httptest.Server {
	t.Helper()

	logger := logging.NewLoggerWithWriter(io.Discard, false, "error")
	tokens, err := auth.NewJWTService([]byte("0123456789abcdef0123456789abcdef"), "mybucks-test", time.Hour)
	require.NoError(t, err)
	hasher, err := auth.NewHasher(auth.HashBcrypt, bcrypt.MinCost)
	require.NoError(t, err)

	router := httpServer.NewRouter(httpServer.RouterDeps{
		Config:             &config.Config{Server: config.ServerConfig{Env: "prod"}},
		Logger:             logger,
		AuthHandler:        auth.NewHandler(auth.NewService(user.NewMemoryRepository(), tokens, hasher, logger)),
		AuthMiddleware:     auth.NewMiddleware(tokens),
		TransactionHandler: transaction.NewHandler(transaction.NewService(transaction.NewMemoryRepository(), nil, logger)),
		Health:             httpServer.NewHealthHandler(time.Now(), nil, nil),
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

type harness struct {
	t         *testing.T
	apiURL    string
	tokenPath string
	confirmed bool
}

func newHarness(t *testing.T) *harness {
	return &harness{
		t:         t,
		apiURL:    newTestAPI(t).URL,
		tokenPath: filepath.Join(t.TempDir(), "token"),
	}
}

// run executes one bucks invocation and returns its stdout
func (h *harness) run(args ...string) (string, error) {
	h.t.Helper()

	var out bytes.Buffer
	a := &app{
		out:     &out,
		confirm: func(string) (bool, error) { return h.confirmed, nil },
		prompt: func(email, password *string, confirm bool) error {
			h.t.Fatalf("unexpected prompt")
			return nil
		},
	}

	cmd := newRootCmd(a)
	cmd.SetArgs(append([]string{"--api", h.apiURL, "--token-file", h.tokenPath}, args...))
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	err := cmd.Execute()
	return out.String(), err
}

func TestBucks_FullSession(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("signup", "--email", "alice@example.com", "--password", "s3cret")
	require.NoError(t, err)
	assert.Contains(t, out, "Account created")
	assert.Contains(t, out, "Logged in as alice@example.com")

	info, err := os.Stat(h.tokenPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	out, err = h.run("add", "--price", "2500", "--name", "salary", "--at", "2026-03-01")
	require.NoError(t, err)
	assert.Contains(t, out, "Recorded salary +2500.00")

	out, err = h.run("add", "--", "-4.50", "coffee", "with", "friends")
	require.NoError(t, err)
	assert.Contains(t, out, "Recorded coffee with friends -4.50")
	coffeeID := uuidPattern.FindString(out)
	require.NotEmpty(t, coffeeID)

	out, err = h.run("list", "--sort", "highest")
	require.NoError(t, err)
	assert.Contains(t, out, "salary")
	assert.Contains(t, out, "coffee with friends")
	assert.Contains(t, out, "2495.50")

	out, err = h.run("balance")
	require.NoError(t, err)
	assert.Contains(t, out, "2500.00")
	assert.Contains(t, out, "-4.50")
	assert.Contains(t, out, "2495.50")

	// declined confirmation leaves the record in place
	out, err = h.run("delete", coffeeID)
	require.NoError(t, err)
	assert.Contains(t, out, "Aborted.")

	out, err = h.run("delete", "--yes", coffeeID)
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted coffee with friends")

	out, err = h.run("list")
	require.NoError(t, err)
	assert.NotContains(t, out, "coffee")

	_, err = h.run("logout")
	require.NoError(t, err)
	_, err = os.Stat(h.tokenPath)
	assert.True(t, os.IsNotExist(err))

	_, err = h.run("list")
	assert.ErrorContains(t, err, "not logged in")
}

func TestBucks_LoginFailureKeepsNoToken(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("login", "--email", "ghost@example.com", "--password", "nope")
	assert.ErrorContains(t, err, "invalid email or password")

	_, statErr := os.Stat(h.tokenPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestBucks_StaleTokenIsCleared(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, os.WriteFile(h.tokenPath, []byte("garbage\n"), 0o600))

	_, err := h.run("balance")
	assert.ErrorContains(t, err, "bucks login")

	_, statErr := os.Stat(h.tokenPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestBucks_AddValidation(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("signup", "--email", "bob@example.com", "--password", "pw")
	require.NoError(t, err)

	_, err = h.run("add", "--name", "coffee")
	assert.ErrorContains(t, err, "price is required")

	_, err = h.run("add", "abc", "coffee")
	assert.ErrorContains(t, err, `invalid price "abc"`)

	_, err = h.run("add", "--price", "5", "--name", "x", "--at", "yesterday")
	assert.ErrorContains(t, err, "datetime")
}

func TestParseEntry(t *testing.T) {
	price, name, err := parseEntry([]string{"-4.50", "coffee", "with", "friends"})
	require.NoError(t, err)
	assert.Equal(t, -4.5, price)
	assert.Equal(t, "coffee with friends", name)

	_, _, err = parseEntry([]string{"four"})
	assert.Error(t, err)
}
