package adminapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"mspcore/internal/audit"
	"mspcore/internal/permissions"
	"mspcore/internal/queue"
	"mspcore/pkg/config"
	"mspcore/pkg/tenants"
)

type fakeEnqueuer struct {
	items []queue.Item
	err   error
}

func (f *fakeEnqueuer) Enqueue(ctx context.Context, it queue.Item) error {
	if f.err != nil {
		return f.err
	}
	f.items = append(f.items, it)
	return nil
}

func newTestApp(t *testing.T) (*App, *fakeEnqueuer, permissions.Store) {
	t.Helper()
	log := zap.NewNop().Sugar()
	dir := tenants.NewMemoryDirectory(log)
	dir.Put(tenants.Tenant{ID: "t1", DisplayName: "Contoso", DefaultDomainName: "contoso.example", Relationship: tenants.RelationshipDelegated})
	store := permissions.NewMemoryStore()
	q := &fakeEnqueuer{}
	app := New(log, config.Config{Env: "dev"}, store, dir, audit.NewLog(nil, log), q)
	return app, q, store
}

func TestPostReconcileFillsFromDirectory(t *testing.T) {
	app, q, _ := newTestApp(t)
	srv := httptest.NewServer(app.Router())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/v1/tenants/t1/reconcile", "application/json", strings.NewReader("{}"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	require.Len(t, q.items, 1)
	assert.Equal(t, "t1", q.items[0].CustomerID)
	assert.Equal(t, "Contoso", q.items[0].DisplayName)
	assert.Equal(t, "contoso.example", q.items[0].DefaultDomainName)
}

func TestPostReconcileBodyOverridesDirectory(t *testing.T) {
	app, q, _ := newTestApp(t)
	srv := httptest.NewServer(app.Router())
	defer srv.Close()

	body := `{"displayName":"Override","defaultDomainName":""}`
	resp, err := http.Post(srv.URL+"/v1/tenants/t1/reconcile", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	require.Len(t, q.items, 1)
	assert.Equal(t, "Override", q.items[0].DisplayName)
	// Empty domain is filled from the directory when known.
	assert.Equal(t, "contoso.example", q.items[0].DefaultDomainName)
}

func TestGetPermissions(t *testing.T) {
	app, _, store := newTestApp(t)
	srv := httptest.NewServer(app.Router())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/tenants/t1/permissions")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	require.NoError(t, store.Upsert(context.Background(), permissions.Record{
		ApplicationID: "app-1", Tenant: "t1", LastApply: "1700000000",
	}))

	resp, err = http.Get(srv.URL + "/v1/tenants/t1/permissions")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "app-1", out["applicationId"])
	assert.Equal(t, "1700000000", out["lastApply"])
}

func TestGetAuditEmptyWithoutPool(t *testing.T) {
	app, _, _ := newTestApp(t)
	srv := httptest.NewServer(app.Router())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/tenants/t1/audit")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Entries []any `json:"entries"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Empty(t, out.Entries)
}

func TestPostReconcileEnqueueFailureLogsRequestID(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	log := zap.New(core).Sugar()
	dir := tenants.NewMemoryDirectory(log)
	q := &fakeEnqueuer{err: errors.New("redis down")}
	app := New(log, config.Config{Env: "dev"}, permissions.NewMemoryStore(), dir, audit.NewLog(nil, log), q)
	srv := httptest.NewServer(app.Router())
	defer srv.Close()

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/v1/tenants/t1/reconcile", strings.NewReader("{}"))
	require.NoError(t, err)
	req.Header.Set("X-Request-Id", "req-123")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	entries := logs.FilterMessage("enqueue reconcile").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "req-123", entries[0].ContextMap()["reqId"])
}
