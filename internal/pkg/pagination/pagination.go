package pagination

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/tiendreiliass0x/school-management-system/internal/pkg/response"
	"gorm.io/gorm"
)

const (
	defaultPage = 1
	defaultSize = 20
	maxSize     = 100
)

// Query holds clamped page and size parameters for a list endpoint.
// Audit log browsing is the primary consumer.
type Query struct {
	Page int
	Size int
}

// FromContext reads page/size from the query string. Out-of-range or
// unparseable values fall back to the defaults and size is capped.
func FromContext(c *gin.Context) Query {
	q := Query{
		Page: atoiOr(c.Query("page"), defaultPage),
		Size: atoiOr(c.Query("size"), defaultSize),
	}
	if q.Page < 1 {
		q.Page = defaultPage
	}
	if q.Size < 1 {
		q.Size = defaultSize
	}
	if q.Size > maxSize {
		q.Size = maxSize
	}
	return q
}

// Paginate counts the query, fetches the requested window into dest and
// returns the page metadata for the response envelope.
func Paginate[T any](db *gorm.DB, q Query, dest *[]T) (response.Pagination, error) {
	var total int64
	if err := db.Count(&total).Error; err != nil {
		return response.Pagination{}, err
	}

	if err := db.Offset((q.Page - 1) * q.Size).Limit(q.Size).Find(dest).Error; err != nil {
		return response.Pagination{}, err
	}

	pages := int((total + int64(q.Size) - 1) / int64(q.Size))

	return response.Pagination{
		Total:       total,
		CurrentPage: q.Page,
		TotalPage:   pages,
		Size:        q.Size,
		HasNextPage: q.Page < pages,
	}, nil
}

func atoiOr(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}
