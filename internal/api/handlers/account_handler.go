package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/TonyCasey/public-prep-sub002/internal/services"
)

type AccountHandler struct {
	svc services.AuthService
}

func NewAccountHandler(svc services.AuthService) *AccountHandler {
	return &AccountHandler{svc: svc}
}

// Me returns the authenticated account, subscription state included.
func (h *AccountHandler) Me(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	user, err := h.svc.Me(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
