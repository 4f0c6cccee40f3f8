// internal/handlers/common.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/grocerly/grocerly-backend/internal/services"
	"github.com/grocerly/grocerly-backend/internal/utils"
)

// handleServiceError translates a ServiceError kind into the HTTP status the
// client sees. Ownership violations map to 403; state conflicts, stock
// shortfalls and illegal transitions all map to 409.
func handleServiceError(c *gin.Context, err error) {
	var svcErr *services.ServiceError
	if !errors.As(err, &svcErr) {
		utils.InternalErrorResponse(c, "")
		return
	}

	switch svcErr.Kind {
	case services.ErrKindValidation:
		utils.ErrorResponse(c, http.StatusBadRequest, "VALIDATION_ERROR", svcErr.Message, svcErr.Details)
	case services.ErrKindNotFound:
		utils.ErrorResponse(c, http.StatusNotFound, "NOT_FOUND", svcErr.Message, svcErr.Details)
	case services.ErrKindOwnership:
		utils.ErrorResponse(c, http.StatusForbidden, "FORBIDDEN", svcErr.Message, svcErr.Details)
	case services.ErrKindInsufficientStock:
		utils.ErrorResponse(c, http.StatusConflict, "INSUFFICIENT_STOCK", svcErr.Message, svcErr.Details)
	case services.ErrKindInvalidTransition:
		utils.ErrorResponse(c, http.StatusConflict, "INVALID_TRANSITION", svcErr.Message, svcErr.Details)
	case services.ErrKindConflict:
		utils.ErrorResponse(c, http.StatusConflict, "CONFLICT", svcErr.Message, svcErr.Details)
	default:
		utils.InternalErrorResponse(c, "")
	}
}

// currentUserID parses the authenticated user from the gin context.
func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	userIDStr, exists := utils.GetUserIDFromContext(c)
	if !exists {
		return uuid.Nil, false
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return uuid.Nil, false
	}
	return userID, true
}

// currentOwner resolves the cart/order owner for the request: the
// authenticated user when present, otherwise the guest session.
func currentOwner(c *gin.Context) (services.OwnerRef, bool) {
	if userID, ok := currentUserID(c); ok {
		return services.OwnerRef{UserID: &userID}, true
	}

	if guestIDStr, ok := utils.GetGuestIDFromContext(c); ok {
		if guestID, err := uuid.Parse(guestIDStr); err == nil {
			return services.OwnerRef{GuestID: &guestID}, true
		}
	}

	return services.OwnerRef{}, false
}

func parseIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid "+name, nil)
		return uuid.Nil, false
	}
	return id, true
}
