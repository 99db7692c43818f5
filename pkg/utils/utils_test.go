package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPassword(t *testing.T) {
	h, err := HashPassword("pw12345")
	require.NoError(t, err)
	assert.NotEqual(t, "pw12345", h)
	assert.True(t, CheckPassword("pw12345", h))
	assert.False(t, CheckPassword("pw123456", h))

	h2, err := HashPassword("pw12345")
	require.NoError(t, err)
	assert.NotEqual(t, h, h2, "salted")

	_, err = HashPassword(strings.Repeat("x", 100))
	require.Error(t, err)
}

func TestStorageName(t *testing.T) {
	a := StorageName("Report.PDF")
	b := StorageName("Report.PDF")
	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasSuffix(a, ".pdf"))
	assert.Len(t, a, 36+4)
}
