// internal/api/response.go
package api

import (
	"github.com/gin-gonic/gin"

	stderrors "compliance-calendar/internal/common/errors"
)

// respondError writes a StandardError body with the status mapped from its
// code. Unknown errors surface as 500 INTERNAL_ERROR.
func respondError(c *gin.Context, err error) {
	std := stderrors.AsStandard(err)
	c.JSON(stderrors.HTTPStatus(std.Code), gin.H{
		"code":    std.Code,
		"message": std.Message,
		"details": std.Details,
	})
}
