package tenants

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMemoryDirectoryLookup(t *testing.T) {
	d := NewMemoryDirectory(zap.NewNop().Sugar())
	d.Put(Tenant{ID: "t1", DisplayName: "Contoso", DefaultDomainName: "contoso.example", Relationship: RelationshipDelegated})

	got, err := d.Lookup(context.Background(), "t1", LookupOptions{})
	require.NoError(t, err)
	assert.Equal(t, "Contoso", got.DisplayName)

	_, err = d.Lookup(context.Background(), "missing", LookupOptions{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryDirectoryCountsRefreshes(t *testing.T) {
	d := NewMemoryDirectory(zap.NewNop().Sugar())
	d.Put(Tenant{ID: "t1", Relationship: RelationshipDirect})

	_, err := d.Lookup(context.Background(), "t1", LookupOptions{TriggerRefresh: true})
	require.NoError(t, err)
	_, err = d.Lookup(context.Background(), "t1", LookupOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1, d.Refreshes("t1"))
}
