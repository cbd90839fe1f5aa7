package catalog

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	Store *Store
}

func NewHandler(store *Store) *Handler {
	return &Handler{Store: store}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/brands", h.brands)        // GET /catalog/brands
	rg.GET("/brands/:brand", h.brand)  // GET /catalog/brands/:brand
	rg.GET("/models/:key", h.model)    // GET /catalog/models/:key
}

func (h *Handler) brands(c *gin.Context) {
	brands := h.Store.Brands()
	c.JSON(http.StatusOK, gin.H{
		"total":  len(brands),
		"brands": brands,
	})
}

func (h *Handler) brand(c *gin.Context) {
	name := c.Param("brand")
	bc, ok := h.Store.Brand(name)
	if !ok {
		if err := h.Store.Err(name); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "brand unavailable", "detail": err.Error()})
			return
		}
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, bc)
}

func (h *Handler) model(c *gin.Context) {
	key := c.Param("key")
	brand, m, ok := h.Store.Model(key)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"brand":     brand,
		"model_key": key,
		"model":     m,
	})
}
