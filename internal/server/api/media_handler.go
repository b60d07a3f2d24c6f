package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/postbridge/postbridge/internal/logging"
	"github.com/postbridge/postbridge/internal/server/media"
)

// MediaHandler hands out presigned upload URLs. Clients upload directly to
// object storage and then reference the returned key in a post's images.
type MediaHandler struct {
	Media *media.Service
	Log   logging.Logger
}

func (h *MediaHandler) Register(authed *gin.RouterGroup) {
	authed.POST("/media/uploads", h.createUpload)
}

func (h *MediaHandler) createUpload(c *gin.Context) {
	key, url, err := h.Media.NewUploadURL(c.Request.Context())
	if err != nil {
		h.Log.Error(c.Request.Context(), "presign upload failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": key, "upload_url": url})
}
