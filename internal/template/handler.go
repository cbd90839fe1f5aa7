package template

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	Engine *Engine
}

func NewHandler(engine *Engine) *Handler {
	return &Handler{Engine: engine}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.list)          // GET /templates?q=
	rg.GET("/parse", h.parse)   // GET /templates/parse?t=
}

// RegisterAdminRoutes mounts the mutating endpoints on a protected
// group.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.POST("/regenerate", h.regenerate) // POST /admin/regenerate
}

func (h *Handler) list(c *gin.Context) {
	templates, err := h.Engine.Templates(c.Request.Context())
	if err != nil {
		if templates == nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "templates unavailable", "detail": err.Error()})
			return
		}
		// regeneration failed but the last good cache is servable
		c.Header("X-Spechub-Stale", "true")
	}

	if q := strings.ToLower(strings.TrimSpace(c.Query("q"))); q != "" {
		filtered := make([]string, 0, len(templates))
		for _, t := range templates {
			if strings.Contains(strings.ToLower(t), q) {
				filtered = append(filtered, t)
			}
		}
		templates = filtered
	}

	c.JSON(http.StatusOK, gin.H{
		"total":     len(templates),
		"templates": templates,
	})
}

func (h *Handler) parse(c *gin.Context) {
	raw := c.Query("t")
	if strings.TrimSpace(raw) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "t required"})
		return
	}
	match, ok := h.Engine.Parse(raw)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, match)
}

func (h *Handler) regenerate(c *gin.Context) {
	art, err := h.Engine.Regenerate(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "regenerate failed", "detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"generated_at":    art.GeneratedAt,
		"total_templates": art.TotalTemplates,
		"version":         art.Version,
	})
}
