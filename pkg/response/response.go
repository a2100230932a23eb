package response

import (
	"errors"
	"net/http"

	"github.com/campusnet/campusnet/backend/go-services/pkg/apperror"
	"github.com/campusnet/campusnet/backend/go-services/pkg/logger"
	"github.com/gin-gonic/gin"
)

// Error writes {error: msg} with the status mapped from err.
func Error(c *gin.Context, err error) {
	code := apperror.Status(err)
	if code == http.StatusInternalServerError {
		fields := logger.Fields{"method": c.Request.Method, "path": c.FullPath(), "error": err.Error()}
		var ae *apperror.AppError
		if errors.As(err, &ae) && ae.Err != nil {
			fields["cause"] = ae.Err.Error()
		}
		logger.Errorw("internal error", fields)
	}
	c.AbortWithStatusJSON(code, gin.H{"error": apperror.Message(err)})
}

// BadRequest is a shortcut for binding failures.
func BadRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msg})
}

func Message(c *gin.Context, code int, msg string) {
	c.JSON(code, gin.H{"message": msg})
}
