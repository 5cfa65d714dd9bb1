package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/heartline/heartline/internal/service"
)

type PhotoHandler struct {
	photoService *service.PhotoService
}

func NewPhotoHandler(photoService *service.PhotoService) *PhotoHandler {
	return &PhotoHandler{photoService: photoService}
}

// POST /api/photos (multipart, field "file")
func (h *PhotoHandler) Upload(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		respondBadRequest(c, "file is required")
		return
	}
	if header.Size > service.MaxImageSize {
		respondError(c, service.ErrImageTooLarge)
		return
	}

	file, err := header.Open()
	if err != nil {
		respondBadRequest(c, "unreadable upload")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, service.MaxImageSize+1))
	if err != nil {
		respondBadRequest(c, "unreadable upload")
		return
	}

	photo, err := h.photoService.AddImage(c.Request.Context(), userID, data)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, photo)
}

// PUT /api/photos/:id/main
func (h *PhotoHandler) SetMain(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.photoService.SetMainImage(c.Request.Context(), userID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DELETE /api/photos/:id
func (h *PhotoHandler) Delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.photoService.DeleteImage(c.Request.Context(), userID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /api/photos/sign
func (h *PhotoHandler) Sign(c *gin.Context) {
	if _, ok := currentUser(c); !ok {
		return
	}

	params := map[string]string{}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&params); err != nil {
			respondBadRequest(c, "Invalid request body")
			return
		}
	}

	signed, err := h.photoService.SignUpload(c.Request.Context(), params)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, signed)
}
