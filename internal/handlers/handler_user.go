package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ManishBastola/bank-app/internal/apperrors"
	portssvc "github.com/ManishBastola/bank-app/internal/core/ports/services"
	"github.com/ManishBastola/bank-app/internal/dto"
	"github.com/ManishBastola/bank-app/internal/middleware"
)

// userHandler handles user profile reads.
type userHandler struct {
	userService portssvc.UserSvcFacade
}

func newUserHandler(us portssvc.UserSvcFacade) *userHandler {
	return &userHandler{userService: us}
}

// registerUserRoutes registers routes related to users.
func registerUserRoutes(rg *gin.RouterGroup, userService portssvc.UserSvcFacade) {
	h := newUserHandler(userService)

	users := rg.Group("/users")
	{
		users.GET("/me", h.getMe)
		users.GET("/:id", h.getUser)
	}
}

// getMe returns the logged-in user's profile.
func (h *userHandler) getMe(c *gin.Context) {
	claim, ok := middleware.RequireIdentity(c)
	if !ok {
		return
	}
	h.respondWithUser(c, claim.UserID)
}

// getUser returns another user's profile. Customers may only read their own;
// employees and admins may read anyone's.
func (h *userHandler) getUser(c *gin.Context) {
	claim, ok := middleware.RequireIdentity(c)
	if !ok {
		return
	}

	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user id"})
		return
	}
	if userID != claim.UserID && !claim.Elevated() {
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
		return
	}
	h.respondWithUser(c, userID)
}

func (h *userHandler) respondWithUser(c *gin.Context, userID int64) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	user, err := h.userService.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		logger.Error("Failed to get user", slog.String("error", err.Error()), slog.Int64("user_id", userID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve user"})
		return
	}

	c.JSON(http.StatusOK, dto.ToUserResponse(user))
}
