package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"paysync-server/internal/http/middleware"
	"paysync-server/internal/utils"
)

type MeHandler struct {
	auth Authenticator
}

func NewMeHandler(auth Authenticator) *MeHandler {
	return &MeHandler{auth: auth}
}

func (h *MeHandler) GetMe(c *gin.Context) {
	userID := c.GetString(middleware.ContextUserID)
	if userID == "" {
		utils.RespondError(c, utils.NewAppError(http.StatusUnauthorized, "UNAUTHORIZED", "missing user", nil))
		return
	}

	user, err := h.auth.Me(c.Request.Context(), userID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}
