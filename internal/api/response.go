package api

import (
	"github.com/gin-gonic/gin"

	"github.com/ajharbinger/refibot/internal/errors"
	"github.com/ajharbinger/refibot/internal/survey"
)

// respondError writes err as {"error": message}, adding per-field failures for
// validation errors. Causes are never sent to the client.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)
	body := gin.H{"error": errors.PublicMessage(err)}
	if fields := survey.FieldErrors(err); len(fields) > 0 {
		body["fields"] = fields
	}
	c.JSON(errors.HTTPStatus(err), body)
}

// bindJSON decodes the request body, answering 400 on failure
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, errors.InvalidInput("Invalid request format", err))
		return false
	}
	return true
}
