package handler

import (
	"errors"
	"net/http"
	"path"
	"path/filepath"

	"inventory-api/internal/middleware"
	"inventory-api/pkg/apperror"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	imageField       = "image"
	maxImageBytes    = 500 * 1024
	publicImagesPath = "uploads/images"
)

var allowedImageTypes = []string{"image/png", "image/jpeg"}

// Uploader stores request images on local disk.
type Uploader struct {
	dir      string
	maxBytes int64
}

func NewUploader(dir string) *Uploader {
	return &Uploader{dir: dir, maxBytes: maxImageBytes}
}

// SaveImage stores the optional "image" part of a multipart request and
// returns its public path. A request without an image yields "".
func (u *Uploader) SaveImage(c *gin.Context) (string, error) {
	fh, err := c.FormFile(imageField)
	if errors.Is(err, http.ErrMissingFile) {
		return "", nil
	}
	if err != nil {
		return "", apperror.Validation(invalidInputs)
	}
	if fh.Size > u.maxBytes {
		return "", apperror.Validation("Image is too large, the limit is 500KB.")
	}

	f, err := fh.Open()
	if err != nil {
		return "", apperror.Internal("Uploading image failed, please try again.", err)
	}
	mt, err := mimetype.DetectReader(f)
	f.Close()
	if err != nil {
		return "", apperror.Internal("Uploading image failed, please try again.", err)
	}
	if !mimetype.EqualsAny(mt.String(), allowedImageTypes...) {
		return "", apperror.Validation("Invalid mime type!")
	}

	name := uuid.NewString() + mt.Extension()
	dst := filepath.Join(u.dir, name)
	if err := c.SaveUploadedFile(fh, dst); err != nil {
		return "", apperror.Internal("Uploading image failed, please try again.", err)
	}
	c.Set(middleware.UploadedFileKey, dst)

	return path.Join(publicImagesPath, name), nil
}
