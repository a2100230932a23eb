package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/campusnet/campusnet/backend/go-services/internal/storage"
	"github.com/campusnet/campusnet/backend/go-services/pkg/response"
	"github.com/campusnet/campusnet/backend/go-services/pkg/validator"
	"github.com/gin-gonic/gin"
)

// maxMultipartMemory caps the in-memory part of multipart bodies; larger files spill to disk.
const maxMultipartMemory = 32 << 20

// bind decodes a JSON or multipart body into dst and writes a 400 on failure.
func bind(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBind(dst); err != nil {
		response.BadRequest(c, validator.FormatValidationError(err))
		return false
	}
	return true
}

func isMultipart(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "multipart/form-data")
}

// formFiles returns the files of a multipart field. Non-multipart requests carry none.
func formFiles(c *gin.Context, field string) ([]storage.Upload, error) {
	if !isMultipart(c) {
		return nil, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, err
	}
	return storage.FromFileHeaders(form.File[field]), nil
}

// formFile returns the single file of a multipart field, or nil when absent.
func formFile(c *gin.Context, field string) (*storage.Upload, error) {
	if !isMultipart(c) {
		return nil, nil
	}
	fh, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	u := storage.FromFileHeader(fh)
	return &u, nil
}

func attachments(c *gin.Context) ([]storage.Upload, bool) {
	files, err := formFiles(c, "attachments")
	if err != nil {
		response.BadRequest(c, "invalid multipart body")
		return nil, false
	}
	return files, true
}
