package admin

import (
	handlershared "github.com/parcel-billing/internal/http/handlers/shared"
	"github.com/parcel-billing/internal/http/response"

	"github.com/gin-gonic/gin"
)

func getStaffID(c *gin.Context) (uint, bool) {
	return handlershared.StaffIDFromContext(c)
}

func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, ok := handlershared.ParseUintParam(c, name)
	if !ok {
		respondError(c, response.CodeBadRequest, "error.id_invalid", nil)
	}
	return id, ok
}
