package audit

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tiendreiliass0x/school-management-system/internal/models"
	"github.com/tiendreiliass0x/school-management-system/internal/pkg/pagination"
	"github.com/tiendreiliass0x/school-management-system/internal/pkg/response"
	"gorm.io/gorm"
)

// Handler exposes the audit trail to platform administrators.
type Handler struct {
	db *gorm.DB
}

func NewHandler(db *gorm.DB) *Handler { return &Handler{db: db} }

// RegisterRoutes mounts the audit listing. Callers pass the middleware chain
// that restricts access to platform admins.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, mws ...gin.HandlerFunc) {
	grp := rg.Group("/audit", mws...)
	grp.GET("", h.list)
}

func (h *Handler) list(c *gin.Context) {
	q := pagination.FromContext(c)

	query := h.db.Model(&models.AuditLogModel{}).Order("created_at DESC")
	if kind := strings.TrimSpace(c.Query("kind")); kind != "" {
		query = query.Where("kind = ?", kind)
	}
	if severity := strings.TrimSpace(c.Query("severity")); severity != "" {
		query = query.Where("severity = ?", severity)
	}
	if actor := strings.TrimSpace(c.Query("actor")); actor != "" {
		query = query.Where("actor_id = ?", actor)
	}
	if school := strings.TrimSpace(c.Query("school")); school != "" {
		query = query.Where("school_id = ?", school)
	}

	var entries []models.AuditLogModel
	page, err := pagination.Paginate(query, q, &entries)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Paged(c, entries, page)
}
