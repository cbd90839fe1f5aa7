package registry

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"spechub/pkg/models"
)

type Handler struct {
	Store *Store
}

func NewHandler(store *Store) *Handler {
	return &Handler{Store: store}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/:category", h.list)                // GET /registry/:category
	rg.GET("/:category/lookup", h.lookup)       // GET /registry/:category/lookup?name=
	rg.GET("/:category/options", h.options)     // GET /registry/:category/options
}

func (h *Handler) list(c *gin.Context) {
	cat, ok := categoryParam(c)
	if !ok {
		return
	}
	if err := h.Store.Err(cat); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "category unavailable", "detail": err.Error()})
		return
	}
	names := h.Store.Names(cat)
	c.JSON(http.StatusOK, gin.H{
		"category": cat,
		"total":    len(names),
		"names":    names,
	})
}

func (h *Handler) lookup(c *gin.Context) {
	cat, ok := categoryParam(c)
	if !ok {
		return
	}
	name := c.Query("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name required"})
		return
	}

	id, found := h.Store.Lookup(c.Request.Context(), cat, name)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"category":     cat,
		"name":         name,
		"reference_id": id,
	})
}

func (h *Handler) options(c *gin.Context) {
	cat, ok := categoryParam(c)
	if !ok {
		return
	}
	opts := h.Store.Options(cat)
	resp := gin.H{
		"category": cat,
		"options":  opts,
	}
	if v := c.Query("selected"); v != "" {
		resp["selected_index"] = FindIndex(opts, v)
	}
	c.JSON(http.StatusOK, resp)
}

func categoryParam(c *gin.Context) (models.Category, bool) {
	raw := c.Param("category")
	if !models.ValidCategory(raw) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown category"})
		return "", false
	}
	return models.Category(raw), true
}
