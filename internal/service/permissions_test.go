package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-auth/internal/model"
	"storefront-auth/pkg/apierror"
)

func TestCheckPermissions(t *testing.T) {
	admin := model.TokenUser{UserID: "admin-1", Name: "Root", Role: model.RoleAdmin}
	owner := model.TokenUser{UserID: "user-1", Name: "A", Role: model.RoleUser}

	t.Run("admin may access any resource", func(t *testing.T) {
		assert.NoError(t, CheckPermissions(admin, "user-9"))
	})

	t.Run("owner may access their own resource", func(t *testing.T) {
		assert.NoError(t, CheckPermissions(owner, "user-1"))
	})

	t.Run("non-owner non-admin is rejected", func(t *testing.T) {
		err := CheckPermissions(owner, "user-2")

		var apiErr *apierror.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, "FORBIDDEN", apiErr.Code)
		assert.Equal(t, 403, apiErr.HTTPStatus)
	})
}
