package rider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chennai-transit/service-pass/internal/domain/route"
	"github.com/chennai-transit/service-pass/internal/pkg/auth"
)

func TestNewRider(t *testing.T) {
	r, err := NewRider("Priya S", "Priya@Example.com ", "s3cret-pass", "+91 9876543210", route.CategoryStudent)
	require.NoError(t, err)

	assert.Equal(t, "priya@example.com", r.Email(), "email is normalized")
	assert.Equal(t, auth.RoleRider, r.Role())
	assert.True(t, r.IsActive())
	assert.NotEqual(t, "s3cret-pass", r.PasswordHash())
}

func TestNewRiderValidation(t *testing.T) {
	_, err := NewRider("", "a@b.com", "s3cret-pass", "", route.CategoryGeneral)
	assert.Error(t, err)

	_, err = NewRider("Priya", "not-an-email", "s3cret-pass", "", route.CategoryGeneral)
	assert.Error(t, err)

	_, err = NewRider("Priya", "a@b.com", "short", "", route.CategoryGeneral)
	assert.Error(t, err)

	_, err = NewRider("Priya", "a@b.com", "s3cret-pass", "", route.RiderCategory("vip"))
	assert.Error(t, err)
}

func TestCheckPassword(t *testing.T) {
	r, err := NewRider("Priya", "a@b.com", "s3cret-pass", "", route.CategoryGeneral)
	require.NoError(t, err)

	assert.NoError(t, r.CheckPassword("s3cret-pass"))
	assert.Error(t, r.CheckPassword("wrong"))
}

func TestPromoteAndDisable(t *testing.T) {
	r, err := NewRider("Priya", "a@b.com", "s3cret-pass", "", route.CategoryGeneral)
	require.NoError(t, err)

	r.PromoteToAdmin()
	assert.Equal(t, auth.RoleAdmin, r.Role())

	r.Disable()
	assert.False(t, r.IsActive())
	assert.Equal(t, int64(3), r.Version())
}
