package permissions

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"mspcore/pkg/graph"
)

// globalAdminTemplateID is the directory role template for the company
// administrator role assigned to the portal's service principal.
const globalAdminTemplateID = "62e90394-69f5-4237-9190-012177145e10"

// Granter applies consent, permission grants and admin roles inside a
// tenant. All operations are idempotent at the remote API: re-applying an
// existing grant is a no-op (conflicts are swallowed).
type Granter interface {
	GrantConsent(ctx context.Context, tenantID string) error
	GrantApplicationPermissions(ctx context.Context, profile, applicationID, tenantID string) error
	GrantDelegatedPermissions(ctx context.Context, profile, applicationID, tenantID string) error
	AssignAdminRoles(ctx context.Context, tenantID string) error
}

type graphGranter struct {
	cli     *graph.Client
	catalog Catalog
	appID   string
	log     *zap.SugaredLogger
}

// NewGraphGranter builds a Granter over the Graph-style API using the given
// profile catalog.
func NewGraphGranter(cli *graph.Client, catalog Catalog, appID string, log *zap.SugaredLogger) Granter {
	return &graphGranter{cli: cli, catalog: catalog, appID: appID, log: log}
}

// GrantConsent registers the portal's application (a service principal) in
// the tenant. An existing registration is not an error.
func (g *graphGranter) GrantConsent(ctx context.Context, tenantID string) error {
	_, err := g.cli.Post(ctx, tenantPath(tenantID, "/servicePrincipals"), map[string]any{
		"appId": g.appID,
	})
	if err != nil && !graph.IsConflict(err) {
		return fmt.Errorf("grant consent: %w", err)
	}
	return nil
}

func (g *graphGranter) GrantApplicationPermissions(ctx context.Context, profile, applicationID, tenantID string) error {
	p, ok := g.catalog[profile]
	if !ok {
		return fmt.Errorf("unknown permission profile %q", profile)
	}
	spID, err := g.servicePrincipalID(ctx, tenantID, applicationID)
	if err != nil {
		return err
	}
	for _, ra := range p.Application {
		resourceID, err := g.servicePrincipalID(ctx, tenantID, ra.ResourceAppID)
		if err != nil {
			return err
		}
		for _, roleID := range ra.RoleIDs {
			_, err := g.cli.Post(ctx, tenantPath(tenantID, fmt.Sprintf("/servicePrincipals/%s/appRoleAssignments", spID)), map[string]any{
				"principalId": spID,
				"resourceId":  resourceID,
				"appRoleId":   roleID,
			})
			if err != nil && !graph.IsConflict(err) {
				return fmt.Errorf("assign app role %s: %w", roleID, err)
			}
		}
	}
	return nil
}

func (g *graphGranter) GrantDelegatedPermissions(ctx context.Context, profile, applicationID, tenantID string) error {
	p, ok := g.catalog[profile]
	if !ok {
		return fmt.Errorf("unknown permission profile %q", profile)
	}
	spID, err := g.servicePrincipalID(ctx, tenantID, applicationID)
	if err != nil {
		return err
	}
	for _, ra := range p.Delegated {
		if len(ra.Scopes) == 0 {
			continue
		}
		resourceID, err := g.servicePrincipalID(ctx, tenantID, ra.ResourceAppID)
		if err != nil {
			return err
		}
		_, err = g.cli.Post(ctx, tenantPath(tenantID, "/oauth2PermissionGrants"), map[string]any{
			"clientId":    spID,
			"consentType": "AllPrincipals",
			"resourceId":  resourceID,
			"scope":       strings.Join(ra.Scopes, " "),
		})
		if err != nil && !graph.IsConflict(err) {
			return fmt.Errorf("grant delegated scopes for %s: %w", ra.ResourceAppID, err)
		}
	}
	return nil
}

// AssignAdminRoles puts the portal's service principal into the company
// administrator directory role.
func (g *graphGranter) AssignAdminRoles(ctx context.Context, tenantID string) error {
	spID, err := g.servicePrincipalID(ctx, tenantID, g.appID)
	if err != nil {
		return err
	}
	doc, err := g.cli.Get(ctx, tenantPath(tenantID, fmt.Sprintf("/directoryRoles?$filter=roleTemplateId eq '%s'", globalAdminTemplateID)))
	if err != nil {
		return fmt.Errorf("resolve admin role: %w", err)
	}
	roleID := graph.String(doc, "value[0].id")
	if roleID == "" {
		// The role is not activated in this tenant yet.
		act, err := g.cli.Post(ctx, tenantPath(tenantID, "/directoryRoles"), map[string]any{
			"roleTemplateId": globalAdminTemplateID,
		})
		if err != nil && !graph.IsConflict(err) {
			return fmt.Errorf("activate admin role: %w", err)
		}
		roleID = graph.String(act, "id")
		if roleID == "" {
			// Activation raced another writer; the role exists now.
			doc, err = g.cli.Get(ctx, tenantPath(tenantID, fmt.Sprintf("/directoryRoles?$filter=roleTemplateId eq '%s'", globalAdminTemplateID)))
			if err != nil {
				return fmt.Errorf("resolve admin role: %w", err)
			}
			roleID = graph.String(doc, "value[0].id")
		}
	}
	if roleID == "" {
		return fmt.Errorf("admin role unavailable in tenant %s", tenantID)
	}
	_, err = g.cli.Post(ctx, tenantPath(tenantID, fmt.Sprintf("/directoryRoles/%s/members/$ref", roleID)), map[string]any{
		"@odata.id": fmt.Sprintf("https://graph.microsoft.com/v1.0/directoryObjects/%s", spID),
	})
	if err != nil && !graph.IsConflict(err) {
		return fmt.Errorf("assign admin role: %w", err)
	}
	return nil
}

func (g *graphGranter) servicePrincipalID(ctx context.Context, tenantID, appID string) (string, error) {
	doc, err := g.cli.Get(ctx, tenantPath(tenantID, fmt.Sprintf("/servicePrincipals?$filter=appId eq '%s'", appID)))
	if err != nil {
		return "", fmt.Errorf("resolve service principal %s: %w", appID, err)
	}
	id := graph.String(doc, "value[0].id")
	if id == "" {
		return "", fmt.Errorf("service principal for app %s not found in tenant %s", appID, tenantID)
	}
	return id, nil
}

func tenantPath(tenantID, suffix string) string {
	return "/" + tenantID + "/v1.0" + suffix
}
