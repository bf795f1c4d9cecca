// internal/handlers/media.go
package handlers

import (
	"errors"
	"net/http"
	"strings"

	"questlab/internal/models"
	"questlab/internal/services"
	"questlab/internal/storage"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ServeMedia streams a stored media object by its object key. Backed by the
// local store in development; with MinIO configured clients normally follow
// presigned URLs instead.
func ServeMedia(db *gorm.DB, store storage.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := strings.TrimPrefix(c.Param("key"), "/")

		// Only keys that belong to a Media row are served.
		var media models.Media
		if err := db.First(&media, "object_key = ?", key).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				respondError(c, services.ErrNotFound)
				return
			}
			respondError(c, err)
			return
		}

		obj, err := store.Open(c.Request.Context(), media.ObjectKey)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read media"})
			return
		}
		defer obj.Close()

		c.Header("Content-Disposition", `inline; filename="`+media.FileName+`"`)
		c.DataFromReader(http.StatusOK, media.SizeBytes, media.ContentType, obj, nil)
	}
}
