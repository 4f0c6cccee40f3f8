// internal/handlers/common_test.go
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grocerly/grocerly-backend/internal/services"
	"github.com/grocerly/grocerly-backend/internal/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestHandleServiceErrorStatusMapping(t *testing.T) {
	cases := []struct {
		kind       services.ErrorKind
		wantStatus int
		wantCode   string
	}{
		{services.ErrKindValidation, http.StatusBadRequest, "VALIDATION_ERROR"},
		{services.ErrKindNotFound, http.StatusNotFound, "NOT_FOUND"},
		{services.ErrKindOwnership, http.StatusForbidden, "FORBIDDEN"},
		{services.ErrKindInsufficientStock, http.StatusConflict, "INSUFFICIENT_STOCK"},
		{services.ErrKindInvalidTransition, http.StatusConflict, "INVALID_TRANSITION"},
		{services.ErrKindConflict, http.StatusConflict, "CONFLICT"},
		{services.ErrKindInternal, http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tc := range cases {
		t.Run(string(tc.kind), func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			handleServiceError(c, services.NewServiceError(tc.kind, "boom"))

			assert.Equal(t, tc.wantStatus, w.Code)

			var resp utils.APIResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tc.wantCode, resp.Error.Code)
		})
	}
}

func TestHandleServiceErrorUnwrapsWrappedErrors(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	wrapped := fmt.Errorf("place order: %w",
		services.NewServiceError(services.ErrKindInsufficientStock, "not enough stock"))
	handleServiceError(c, wrapped)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestHandleServiceErrorPlainErrorIsInternal(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	handleServiceError(c, fmt.Errorf("database error"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestCurrentOwnerPrefersUserOverGuest(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	userID := uuid.New()
	guestID := uuid.New()
	c.Set("user_id", userID.String())
	c.Set("guest_id", guestID.String())

	owner, ok := currentOwner(c)
	require.True(t, ok)
	require.NotNil(t, owner.UserID)
	assert.Equal(t, userID, *owner.UserID)
	assert.Nil(t, owner.GuestID)
}

func TestCurrentOwnerFallsBackToGuest(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	guestID := uuid.New()
	c.Set("guest_id", guestID.String())

	owner, ok := currentOwner(c)
	require.True(t, ok)
	require.NotNil(t, owner.GuestID)
	assert.Equal(t, guestID, *owner.GuestID)
}

func TestCurrentOwnerMissingIdentity(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	_, ok := currentOwner(c)
	assert.False(t, ok)
}
