package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keuin/daigunyun/internal/config"
	"github.com/keuin/daigunyun/internal/logger"
	"github.com/keuin/daigunyun/internal/registry"
	"github.com/keuin/daigunyun/internal/resolver"
)

// stubSource serves canned lookups for the endpoint tests.
type stubSource struct {
	name   string
	fields []string
	data   map[string]map[string][]string // "field=value" -> result
}

func (s *stubSource) Name() string       { return s.name }
func (s *stubSource) FieldIDs() []string { return s.fields }

func (s *stubSource) Lookup(ctx context.Context, field, value string) (map[string][]string, error) {
	return s.data[field+"="+value], nil
}

func newTestServer(t *testing.T) *Server {
	t.Helper()

	fields := []config.Field{
		{ID: "user_id", Distinct: true},
		{ID: "email", Distinct: true},
		{ID: "country"},
	}
	users := &stubSource{
		name:   "users",
		fields: []string{"user_id", "email"},
		data: map[string]map[string][]string{
			"user_id=42":    {"user_id": {"42"}, "email": {"a@x.com"}},
			"email=a@x.com": {"user_id": {"42"}, "email": {"a@x.com"}},
		},
	}
	accounts := &stubSource{
		name:   "accounts",
		fields: []string{"email", "country"},
		data: map[string]map[string][]string{
			"email=a@x.com": {"email": {"a@x.com"}, "country": {"US"}},
		},
	}

	reg, err := registry.New(fields, []registry.Source{users, accounts})
	require.NoError(t, err)

	res := resolver.New(reg, logger.NewDefault(), resolver.Options{})
	return New(res, logger.NewDefault())
}

func doQuery(t *testing.T, srv *Server, target string) (int, resolver.Result) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	var result resolver.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	return rec.Code, result
}

func TestQueryEndpoint(t *testing.T) {
	srv := newTestServer(t)

	code, result := doQuery(t, srv, "/query?user_id=42")

	assert.Equal(t, http.StatusOK, code)
	assert.True(t, result.Success)
	assert.Empty(t, result.Message)
	assert.Equal(t, map[string][]string{
		"email":   {"a@x.com"},
		"country": {"US"},
	}, result.Data)
}

func TestQueryEndpointUnknownField(t *testing.T) {
	srv := newTestServer(t)

	code, result := doQuery(t, srv, "/query?bogus_field=1")

	// Failure rides on the body, not the transport status.
	assert.Equal(t, http.StatusOK, code)
	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "no relation has field `bogus_field`")
	assert.Empty(t, result.Data)
}

func TestQueryEndpointNoParams(t *testing.T) {
	srv := newTestServer(t)

	code, result := doQuery(t, srv, "/query")

	assert.Equal(t, http.StatusOK, code)
	assert.True(t, result.Success)
	assert.Empty(t, result.Data)
}

func TestQueryEndpointRepeatedParamKeepsFirst(t *testing.T) {
	srv := newTestServer(t)

	_, result := doQuery(t, srv, "/query?user_id=42&user_id=43")

	assert.True(t, result.Success)
	assert.Equal(t, []string{"a@x.com"}, result.Data["email"])
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRunShutsDownOnContextCancel(t *testing.T) {
	srv := newTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.Run(ctx, "127.0.0.1:0")
	}()

	cancel()
	err := <-done
	assert.NoError(t, err)
}
