package tenants

// Relationship describes how the operator reaches into a managed tenant.
type Relationship string

const (
	// RelationshipDirect means the tenant is the operator's own (or a
	// directly registered) tenant; baseline consent is implicit.
	RelationshipDirect Relationship = "direct"
	// RelationshipDelegated means access flows through a partner/delegated
	// admin relationship and consent must be granted explicitly.
	RelationshipDelegated Relationship = "delegated"
	// RelationshipNone means no privilege relationship is known.
	RelationshipNone Relationship = "none"
)

// OperatorTenantDomain is the reserved defaultDomainName a queue item carries
// when it refers to the portal's own operator tenant. Admin roles are never
// (re)assigned there.
const OperatorTenantDomain = "PartnerTenant"

// Tenant is a read-only snapshot of a managed tenant from the directory.
type Tenant struct {
	ID                string
	DisplayName       string
	DefaultDomainName string
	Relationship      Relationship
}
