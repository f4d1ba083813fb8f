package analytics

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type Handler struct{ svc *Service }

func RegisterRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}
	r.GET("/analytics", h.Summary)
}

func (h *Handler) Summary(c *gin.Context) {
	out, err := h.svc.Summarize(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build summary"})
		return
	}
	if out.Categories == nil {
		out.Categories = []string{}
	}
	c.JSON(http.StatusOK, out)
}
