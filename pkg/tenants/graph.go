// pkg/tenants/graph.go
package tenants

import (
	"context"
	"fmt"

	"mspcore/pkg/graph"
)

// graphSource fetches tenant snapshots from the Graph-style directory API.
type graphSource struct {
	cli *graph.Client
}

// NewGraphSource wraps a graph client as a directory Source.
func NewGraphSource(cli *graph.Client) Source {
	return &graphSource{cli: cli}
}

func (s *graphSource) Fetch(ctx context.Context, tenantID string) (Tenant, error) {
	doc, err := s.cli.Get(ctx, fmt.Sprintf("/v1.0/tenantRelationships/findTenantInformationByTenantId(tenantId='%s')", tenantID))
	if err != nil {
		return Tenant{}, fmt.Errorf("fetch tenant %s: %w", tenantID, err)
	}
	t := Tenant{
		ID:                graph.String(doc, "tenantId"),
		DisplayName:       graph.String(doc, "displayName"),
		DefaultDomainName: graph.String(doc, "defaultDomainName"),
		Relationship:      RelationshipNone,
	}
	if t.ID == "" {
		t.ID = tenantID
	}
	// The relationship endpoint reports delegated admin status separately;
	// absence of any relationship list entry means direct registration.
	rel, err := s.cli.Get(ctx, fmt.Sprintf("/v1.0/tenantRelationships/delegatedAdminRelationships?$filter=customer/tenantId eq '%s'", tenantID))
	if err != nil {
		return Tenant{}, fmt.Errorf("fetch tenant relationship %s: %w", tenantID, err)
	}
	statuses := graph.Strings(rel, "value[].status")
	if len(statuses) == 0 {
		t.Relationship = RelationshipDirect
		return t, nil
	}
	for _, st := range statuses {
		if st == "active" {
			t.Relationship = RelationshipDelegated
			return t, nil
		}
	}
	return t, nil
}
