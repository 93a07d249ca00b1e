package middleware

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateActorID(t *testing.T) {
	assert.NoError(t, ValidateActorID("alice"))
	assert.NoError(t, ValidateActorID("svc-publisher_01"))
	assert.NoError(t, ValidateActorID("bob@example.com"))

	assert.Error(t, ValidateActorID(""))
	assert.Error(t, ValidateActorID("has space"))
	assert.Error(t, ValidateActorID("semi;colon"))
}

func TestValidateRunID(t *testing.T) {
	assert.NoError(t, ValidateRunID("550e8400-e29b-41d4-a716-446655440000"))
	assert.Error(t, ValidateRunID(""))
	assert.Error(t, ValidateRunID("not-a-uuid"))
}

func TestValidateItemType(t *testing.T) {
	assert.NoError(t, ValidateItemType("article"))
	assert.NoError(t, ValidateItemType("landing_page"))
	assert.Error(t, ValidateItemType(""))
	assert.Error(t, ValidateItemType("Article"))
	assert.Error(t, ValidateItemType("1type"))
}

func TestValidateSeverityAndRunMode(t *testing.T) {
	for _, s := range []string{"none", "low", "medium", "high", "High"} {
		assert.NoError(t, ValidateSeverity(s), s)
	}
	assert.Error(t, ValidateSeverity("critical"))

	assert.NoError(t, ValidateRunMode(""))
	assert.NoError(t, ValidateRunMode("sync"))
	assert.NoError(t, ValidateRunMode("deferred"))
	assert.Error(t, ValidateRunMode("async"))
}

func TestValidateLimit(t *testing.T) {
	n, err := ValidateLimit("", 20, 100)
	require.NoError(t, err)
	assert.Equal(t, 20, n)

	n, err = ValidateLimit("50", 20, 100)
	require.NoError(t, err)
	assert.Equal(t, 50, n)

	// capped at max
	n, err = ValidateLimit("500", 20, 100)
	require.NoError(t, err)
	assert.Equal(t, 100, n)

	_, err = ValidateLimit("0", 20, 100)
	assert.Error(t, err)
	_, err = ValidateLimit("abc", 20, 100)
	assert.Error(t, err)
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "hello world", SanitizeString("  hello world  "))
	assert.Equal(t, "line1\nline2", SanitizeString("line1\nline2"))
	assert.Equal(t, "clean", SanitizeString("cle\x00an"))
}
