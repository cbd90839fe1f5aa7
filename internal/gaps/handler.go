package gaps

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"spechub/internal/ledger"
	"spechub/pkg/models"
)

type Handler struct {
	Analyzer *Analyzer
	Resolver *Resolver
	Ledger   *ledger.Repo
}

func NewHandler(analyzer *Analyzer, resolver *Resolver, ledgerRepo *ledger.Repo) *Handler {
	return &Handler{Analyzer: analyzer, Resolver: resolver, Ledger: ledgerRepo}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/coverage", h.coverage) // GET /gaps/coverage
	rg.GET("/misses", h.misses)     // GET /gaps/misses?category=
}

// RegisterAdminRoutes mounts the mutating endpoints on a protected
// group.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.POST("/resolve/:category", h.resolve)
}

func (h *Handler) coverage(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"coverage": h.Analyzer.AnalyzeCoverage()})
}

func (h *Handler) misses(c *gin.Context) {
	if h.Ledger == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "ledger disabled"})
		return
	}
	var cat models.Category
	if raw := c.Query("category"); raw != "" {
		if !models.ValidCategory(raw) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown category"})
			return
		}
		cat = models.Category(raw)
	}
	misses, err := h.Ledger.List(c.Request.Context(), cat, 0)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": len(misses), "misses": misses})
}

type resolveRequest struct {
	// Names limits the run; empty means every missing name in the
	// category, per the coverage report.
	Names []string `json:"names"`
}

func (h *Handler) resolve(c *gin.Context) {
	raw := c.Param("category")
	if !models.ValidCategory(raw) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown category"})
		return
	}
	cat := models.Category(raw)

	var req resolveRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	names := req.Names
	if len(names) == 0 {
		cov, ok := h.Analyzer.AnalyzeCoverage()[cat]
		if !ok || len(cov.Missing) == 0 {
			c.JSON(http.StatusOK, gin.H{"report": ResolveReport{
				Category: cat, Resolved: map[string]string{}, Unresolved: []Unresolved{},
			}})
			return
		}
		names = cov.Missing
	}

	report, err := h.Resolver.ResolveMissing(c.Request.Context(), cat, names)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "resolve failed", "detail": err.Error(), "report": report})
		return
	}
	c.JSON(http.StatusOK, gin.H{"report": report})
}
