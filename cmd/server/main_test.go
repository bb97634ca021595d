package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/movledger/internal/adapter/http/dto"
	"github.com/iho/movledger/internal/adapter/http/middleware"
	"github.com/iho/movledger/internal/infrastructure/config"
)

func memoryConfig(t *testing.T) *config.Config {
	t.Helper()

	t.Setenv("STORAGE_DRIVER", config.StorageDriverMemory)
	t.Setenv("RATE_LIMIT_RPS", "0")
	cfg, err := config.LoadFrom()
	require.NoError(t, err)
	return cfg
}

func TestBuildApp_MemoryStorage(t *testing.T) {
	cfg := memoryConfig(t)

	a, err := buildApp(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	defer a.Close()

	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	a.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestBuildApp_IdempotentMovement(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := memoryConfig(t)
	cfg.RedisURL = "redis://" + mr.Addr()

	a, err := buildApp(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	defer a.Close()

	post := func(path, body, key string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		if key != "" {
			req.Header.Set(middleware.IdempotencyKeyHeader, key)
		}
		rec := httptest.NewRecorder()
		a.handler.ServeHTTP(rec, req)
		return rec
	}

	rec := post("/api/v1/accounts/", `{"number":"225487","type":"checking","initial_balance":"100","customer_id":"c-9"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var account dto.AccountResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &account))

	body := `{"account_id":"` + account.ID + `","kind":"deposit","amount":"50"}`
	first := post("/api/v1/movements/", body, "deposit-1")
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())

	replay := post("/api/v1/movements/", body, "deposit-1")
	require.Equal(t, http.StatusCreated, replay.Code)
	assert.Equal(t, "true", replay.Header().Get(middleware.IdempotencyReplayHeader))
	assert.JSONEq(t, first.Body.String(), replay.Body.String())

	rec = httptest.NewRecorder()
	a.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/accounts/"+account.ID+"/balance", nil))
	var balance dto.BalanceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &balance))
	assert.Equal(t, "150", balance.Balance.String(), "replayed request must not record twice")
}

func TestBuildApp_RedisUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := memoryConfig(t)
	cfg.RedisURL = "redis://" + addr

	_, err := buildApp(context.Background(), cfg, zerolog.Nop())
	require.Error(t, err)
}

func TestRun_StopsOnCancel(t *testing.T) {
	cfg := memoryConfig(t)
	cfg.HTTPPort = "0"
	cfg.HTTPShutdownTimeout = time.Second

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- run(ctx, cfg, zerolog.Nop()) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop after cancel")
	}
}
