package gate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const exclusionPolicy = `
package reconcile

default allow = true

allow = false {
	input.tenant_id == data_excluded[_]
}

data_excluded = ["blocked-tenant"]
`

func TestGateAllowsWithoutPolicy(t *testing.T) {
	g, err := New(context.Background(), "", zap.NewNop().Sugar())
	require.NoError(t, err)
	require.True(t, g.Allow(context.Background(), "any", "any.example"))
}

func TestGateExclusionPolicy(t *testing.T) {
	g, err := NewFromSource(context.Background(), exclusionPolicy, zap.NewNop().Sugar())
	require.NoError(t, err)

	require.True(t, g.Allow(context.Background(), "normal-tenant", "n.example"))
	require.False(t, g.Allow(context.Background(), "blocked-tenant", "b.example"))
}

func TestGateRejectsBrokenPolicy(t *testing.T) {
	_, err := NewFromSource(context.Background(), "package reconcile\nallow {", zap.NewNop().Sugar())
	require.Error(t, err)
}
