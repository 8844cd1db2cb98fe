// api/handlers/helpers.go
package handlers

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/Annany2002/nebula-studio/api/middleware"
	"github.com/Annany2002/nebula-studio/internal/logger"
)

var (
	customLog = logger.NewLogger()
)

// pathID parses a positive integer path parameter. On failure it records a bad
// request for the error middleware and returns false.
func pathID(c *gin.Context, name string) (int64, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		_ = c.Error(fmt.Errorf("%w: invalid %s '%s'", middleware.ErrBadRequest, name, raw))
		return 0, false
	}
	return id, true
}

// bindJSON decodes the request body into obj, recording binding failures.
func bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			_ = c.Error(err)
		} else {
			_ = c.Error(fmt.Errorf("%w: invalid JSON request body: %v", middleware.ErrBadRequest, err))
		}
		return false
	}
	return true
}
