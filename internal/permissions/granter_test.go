package permissions

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mspcore/pkg/config"
	"mspcore/pkg/graph"
)

// fakeGraph emulates just enough of the Graph surface for the granter:
// token endpoint, service principal lookup/registration, app role
// assignments, delegated grants and directory roles.
type fakeGraph struct {
	mu             sync.Mutex
	tokenRequests  int
	spRegistered   bool
	spConflict     bool
	roleAssigns    []map[string]any
	delegated      []map[string]any
	roleActivated  bool
	roleMembers    int
	missingAdminID bool
}

func (f *fakeGraph) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		switch {
		case r.URL.Path == "/token":
			f.tokenRequests++
			json.NewEncoder(w).Encode(map[string]any{"access_token": "tok", "expires_in": 3600})
		case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/servicePrincipals"):
			filter := r.URL.Query().Get("$filter")
			appID := strings.TrimSuffix(strings.TrimPrefix(filter, "appId eq '"), "'")
			json.NewEncoder(w).Encode(map[string]any{"value": []map[string]any{{"id": "sp-" + appID}}})
		case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/servicePrincipals"):
			if f.spConflict {
				w.WriteHeader(http.StatusConflict)
				return
			}
			f.spRegistered = true
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(map[string]any{"id": "sp-new"})
		case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/appRoleAssignments"):
			var body map[string]any
			json.NewDecoder(r.Body).Decode(&body)
			f.roleAssigns = append(f.roleAssigns, body)
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(map[string]any{"id": "ra"})
		case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/oauth2PermissionGrants"):
			var body map[string]any
			json.NewDecoder(r.Body).Decode(&body)
			f.delegated = append(f.delegated, body)
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(map[string]any{"id": "pg"})
		case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/directoryRoles"):
			if f.missingAdminID && !f.roleActivated {
				json.NewEncoder(w).Encode(map[string]any{"value": []map[string]any{}})
				return
			}
			json.NewEncoder(w).Encode(map[string]any{"value": []map[string]any{{"id": "role-1"}}})
		case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/directoryRoles"):
			f.roleActivated = true
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(map[string]any{"id": "role-1"})
		case r.Method == http.MethodPost && strings.Contains(r.URL.Path, "/members/$ref"):
			f.roleMembers++
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

func newTestGranter(t *testing.T, f *fakeGraph) Granter {
	t.Helper()
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)
	cfg := config.Config{
		GraphBaseURL:      srv.URL,
		GraphTokenURL:     srv.URL + "/token",
		GraphClientID:     "client",
		GraphClientSecret: "secret",
	}
	cli := graph.New(cfg, zap.NewNop().Sugar())
	return NewGraphGranter(cli, DefaultCatalog(), testAppID, zap.NewNop().Sugar())
}

func TestGrantConsentRegistersServicePrincipal(t *testing.T) {
	f := &fakeGraph{}
	g := newTestGranter(t, f)

	require.NoError(t, g.GrantConsent(context.Background(), testTenant))
	assert.True(t, f.spRegistered)
}

func TestGrantConsentToleratesConflict(t *testing.T) {
	f := &fakeGraph{spConflict: true}
	g := newTestGranter(t, f)

	require.NoError(t, g.GrantConsent(context.Background(), testTenant))
}

func TestGrantApplicationPermissionsAssignsEveryRole(t *testing.T) {
	f := &fakeGraph{}
	g := newTestGranter(t, f)

	require.NoError(t, g.GrantApplicationPermissions(context.Background(), DefaultProfileName, testAppID, testTenant))

	wanted := len(DefaultCatalog()[DefaultProfileName].Application[0].RoleIDs)
	require.Len(t, f.roleAssigns, wanted)
	for _, body := range f.roleAssigns {
		assert.Equal(t, "sp-"+testAppID, body["principalId"])
	}
	assert.Equal(t, 1, f.tokenRequests, "token is cached across calls")
}

func TestGrantDelegatedPermissionsJoinsScopes(t *testing.T) {
	f := &fakeGraph{}
	g := newTestGranter(t, f)

	require.NoError(t, g.GrantDelegatedPermissions(context.Background(), DefaultProfileName, testAppID, testTenant))

	require.Len(t, f.delegated, 1)
	assert.Equal(t, "AllPrincipals", f.delegated[0]["consentType"])
	scope, _ := f.delegated[0]["scope"].(string)
	assert.Contains(t, scope, "Directory.AccessAsUser.All")
	assert.Contains(t, scope, " ")
}

func TestGrantUnknownProfileFails(t *testing.T) {
	g := newTestGranter(t, &fakeGraph{})
	require.Error(t, g.GrantApplicationPermissions(context.Background(), "NoSuchProfile", testAppID, testTenant))
}

func TestAssignAdminRolesActivatesWhenMissing(t *testing.T) {
	f := &fakeGraph{missingAdminID: true}
	g := newTestGranter(t, f)

	require.NoError(t, g.AssignAdminRoles(context.Background(), testTenant))
	assert.True(t, f.roleActivated)
	assert.Equal(t, 1, f.roleMembers)
}
