package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsTerminal(t *testing.T) {
	assert.True(t, IsTerminal(JobStatusSucceeded))
	assert.True(t, IsTerminal(JobStatusPartial))
	assert.True(t, IsTerminal(JobStatusFailed))
	assert.False(t, IsTerminal(JobStatusQueued))
	assert.False(t, IsTerminal(JobStatusRunning))
	assert.False(t, IsTerminal(""))
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "bournemouth-uk", Slugify("Bournemouth, UK"))
	assert.Equal(t, "seabourne", Slugify("Seabourne"))
	assert.Equal(t, "st-peter-s-quay", Slugify("St Peter's Quay"))
	assert.Equal(t, "", Slugify("***"))
}
