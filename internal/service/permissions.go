package service

import (
	"storefront-auth/internal/model"
	"storefront-auth/pkg/apierror"
)

// CheckPermissions gates ownership-restricted resources: admins pass, owners
// pass, everyone else is rejected. Pure function, evaluated after session
// resolution has populated the caller's identity.
func CheckPermissions(requestUser model.TokenUser, resourceOwnerID string) error {
	if requestUser.Role == model.RoleAdmin {
		return nil
	}
	if requestUser.UserID == resourceOwnerID {
		return nil
	}
	return apierror.Forbidden("Not authorized to access this route")
}
