package tenants

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRowVisible(t *testing.T) {
	assert.True(t, rowVisible("", false))
	assert.True(t, rowVisible("", true))
	assert.True(t, rowVisible("graph timeout", true))
	// A recorded sync failure hides the row from plain and source-less
	// refresh lookups alike.
	assert.False(t, rowVisible("graph timeout", false))
}
