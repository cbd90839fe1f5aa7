package importer

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"spechub/internal/catalog"
	"spechub/internal/template"
)

type Handler struct {
	Store  *catalog.Store
	Engine *template.Engine
}

func NewHandler(store *catalog.Store, engine *template.Engine) *Handler {
	return &Handler{Store: store, Engine: engine}
}

// RegisterAdminRoutes mounts the import endpoints on a protected group.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.POST("/import/:brand/validate", h.validate) // dry run
	rg.POST("/import/:brand", h.importCSV)
}

func (h *Handler) validate(c *gin.Context) {
	file, _, err := c.Request.FormFile("csv")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "csv file required"})
		return
	}
	defer file.Close()

	res, err := Validate(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid csv", "detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) importCSV(c *gin.Context) {
	brand := strings.TrimSpace(c.Param("brand"))
	overwrite := c.Query("overwrite") == "true"

	file, _, err := c.Request.FormFile("csv")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "csv file required"})
		return
	}
	defer file.Close()

	batchID := uuid.NewString()
	merged, res, err := ImportAndMerge(file, h.Store, brand, overwrite)
	if err != nil {
		status := http.StatusBadRequest
		body := gin.H{"error": err.Error(), "batch_id": batchID}
		if res != nil {
			body["result"] = res
		}
		c.JSON(status, body)
		return
	}

	// newly merged models change the template universe
	h.Engine.MarkStale()

	c.JSON(http.StatusOK, gin.H{
		"batch_id": batchID,
		"brand":    merged.Brand,
		"models":   len(merged.Models),
		"result":   res,
	})
}
