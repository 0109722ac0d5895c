package permissions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCatalog(t *testing.T) {
	data := []byte(`
- name: CIPPDefaults
  application:
    - resource_app_id: 00000003-0000-0000-c000-000000000000
      role_ids:
        - 7ab1d382-f21e-4acd-a863-ba3e13f7da61
  delegated:
    - resource_app_id: 00000003-0000-0000-c000-000000000000
      scopes:
        - Directory.AccessAsUser.All
- name: ReadOnly
  application:
    - resource_app_id: 00000003-0000-0000-c000-000000000000
      role_ids:
        - 7ab1d382-f21e-4acd-a863-ba3e13f7da61
`)
	cat, err := ParseCatalog(data)
	require.NoError(t, err)
	require.Len(t, cat, 2)

	def := cat[DefaultProfileName]
	assert.Equal(t, DefaultProfileName, def.Name)
	require.Len(t, def.Application, 1)
	assert.Equal(t, []string{"7ab1d382-f21e-4acd-a863-ba3e13f7da61"}, def.Application[0].RoleIDs)
	require.Len(t, def.Delegated, 1)
	assert.Equal(t, []string{"Directory.AccessAsUser.All"}, def.Delegated[0].Scopes)
}

func TestParseCatalogRejectsDuplicatesAndAnonymous(t *testing.T) {
	_, err := ParseCatalog([]byte("- name: A\n- name: A\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")

	_, err = ParseCatalog([]byte("- application: []\n"))
	require.Error(t, err)
}

func TestDefaultCatalogCarriesBaselineProfile(t *testing.T) {
	cat, err := LoadCatalog("")
	require.NoError(t, err)
	def, ok := cat[DefaultProfileName]
	require.True(t, ok)
	assert.NotEmpty(t, def.Application)
	assert.NotEmpty(t, def.Delegated)
}
