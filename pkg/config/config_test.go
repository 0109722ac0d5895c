package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGraphHTTPTimeoutDefaults(t *testing.T) {
	t.Setenv("GRAPH_HTTP_TIMEOUT_SEC", "")
	assert.Equal(t, 30*time.Second, Load().GraphHTTPTimeout)
}

func TestGraphHTTPTimeoutOverride(t *testing.T) {
	t.Setenv("GRAPH_HTTP_TIMEOUT_SEC", "5")
	assert.Equal(t, 5*time.Second, Load().GraphHTTPTimeout)
}

func TestGraphHTTPTimeoutBadValueFallsBack(t *testing.T) {
	for _, v := range []string{"abc", "-1", "0"} {
		t.Setenv("GRAPH_HTTP_TIMEOUT_SEC", v)
		assert.Equal(t, 30*time.Second, Load().GraphHTTPTimeout, "value %q", v)
	}
}

func TestWorkersBadValueFallsBack(t *testing.T) {
	t.Setenv("RECONCILE_WORKERS", "lots")
	assert.Equal(t, 4, Load().Workers)
}
