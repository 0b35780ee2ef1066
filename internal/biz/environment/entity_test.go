package environment

import (
	"testing"

	domainError "github.com/autotest/backend/internal/domain/error"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	env, err := New("ci-env", "ubuntu:20.04", "admin", map[string]any{
		"ports": []any{"8080:80"},
	})
	require.NoError(t, err)

	assert.Contains(t, env.ID, "env-")
	assert.Equal(t, StatusPending, env.Status)
	assert.Equal(t, "admin", env.Owner)
	assert.Empty(t, env.OwnerTask)
	assert.NotNil(t, env.Config)
}

func TestNew_EmptyName(t *testing.T) {
	_, err := New("", "ubuntu:20.04", "admin", nil)
	var verr *domainError.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "name", verr.Field)
}

func TestNewToken(t *testing.T) {
	a := NewToken()
	b := NewToken()
	assert.Contains(t, a, "prov-")
	assert.NotEqual(t, a, b)
}
