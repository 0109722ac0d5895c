package permissions

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultProfileName is the baseline permission profile every reconciliation
// applies.
const DefaultProfileName = "CIPPDefaults"

// ResourceAccess names permissions requested against one resource
// application. RoleIDs are application (app-only) role ids; Scopes are
// delegated scope names.
type ResourceAccess struct {
	ResourceAppID string   `yaml:"resource_app_id"`
	RoleIDs       []string `yaml:"role_ids,omitempty"`
	Scopes        []string `yaml:"scopes,omitempty"`
}

// Profile is a named permission set with separate application and delegated
// halves; both are kept current on every reconciliation.
type Profile struct {
	Name        string           `yaml:"name"`
	Application []ResourceAccess `yaml:"application"`
	Delegated   []ResourceAccess `yaml:"delegated"`
}

// Catalog maps profile names to profiles.
type Catalog map[string]Profile

// ParseCatalog decodes a YAML list of profiles.
func ParseCatalog(data []byte) (Catalog, error) {
	var list []Profile
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("parse profile catalog: %w", err)
	}
	cat := Catalog{}
	for _, p := range list {
		if p.Name == "" {
			return nil, fmt.Errorf("profile catalog: profile without a name")
		}
		if _, dup := cat[p.Name]; dup {
			return nil, fmt.Errorf("profile catalog: duplicate profile %q", p.Name)
		}
		cat[p.Name] = p
	}
	return cat, nil
}

// LoadCatalog reads a catalog file, or returns the built-in defaults when
// path is empty. A file must still contain the default profile.
func LoadCatalog(path string) (Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile catalog: %w", err)
	}
	cat, err := ParseCatalog(data)
	if err != nil {
		return nil, err
	}
	if _, ok := cat[DefaultProfileName]; !ok {
		return nil, fmt.Errorf("profile catalog %s missing %q", path, DefaultProfileName)
	}
	return cat, nil
}

// DefaultCatalog is the baseline shipped with the service: directory read,
// user read-write and group management against Microsoft Graph.
func DefaultCatalog() Catalog {
	const msGraph = "00000003-0000-0000-c000-000000000000"
	return Catalog{
		DefaultProfileName: {
			Name: DefaultProfileName,
			Application: []ResourceAccess{
				{
					ResourceAppID: msGraph,
					RoleIDs: []string{
						"7ab1d382-f21e-4acd-a863-ba3e13f7da61", // Directory.Read.All
						"741f803b-c850-494e-b5df-cde7c675a1ca", // User.ReadWrite.All
						"62a82d76-70ea-41e2-9197-370581804d09", // Group.ReadWrite.All
					},
				},
			},
			Delegated: []ResourceAccess{
				{
					ResourceAppID: msGraph,
					Scopes: []string{
						"Directory.AccessAsUser.All",
						"User.ReadWrite.All",
						"Group.ReadWrite.All",
					},
				},
			},
		},
	}
}
