package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mmdatafocus/kitchen_backend/config"
	"github.com/mmdatafocus/kitchen_backend/utils"
)

const (
	BusinessIdHeader    = "x-business-id"
	CorrelationIdHeader = "x-correlation-id"
)

// BusinessMiddleware binds every request to one business: the x-business-id header,
// else DEFAULT_BUSINESS_ID.
func BusinessMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		businessId := strings.TrimSpace(c.GetHeader(BusinessIdHeader))
		if businessId == "" {
			businessId = config.DefaultBusinessId()
		}
		if len(businessId) > 64 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "business id too long"})
			return
		}
		c.Request = c.Request.WithContext(utils.SetBusinessIdInContext(c.Request.Context(), businessId))
		c.Next()
	}
}

// CorrelationMiddleware generates a correlation id once per request unless the caller sent one.
func CorrelationMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		cid := c.GetHeader(CorrelationIdHeader)
		if cid == "" {
			cid = uuid.NewString()
		}
		c.Header(CorrelationIdHeader, cid)
		c.Request = c.Request.WithContext(utils.SetCorrelationIdInContext(c.Request.Context(), cid))
		c.Next()
	}
}
