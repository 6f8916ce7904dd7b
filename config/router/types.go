package router

import (
	"github.com/gin-gonic/gin"
)

type RequestContext = gin.Context

type MiddlewareFunc = gin.HandlerFunc

// ServiceResult is rendered as the {code, data, message} envelope.
type ServiceResult struct {
	StatusCode int    `json:"code"`
	Data       any    `json:"data"`
	Message    string `json:"message"`
}

type RateLimitResponse struct {
	Limit             int    `json:"limit"`
	Window            string `json:"window"`
	RetryAfterSeconds int    `json:"retry_after_seconds"`
}

type HandlerFunction func(*RequestContext) *ServiceResult

type RESTController struct {
	name       string
	mountPoint string
	version    string
	routes     []string
	prepare    func(*RouterService, *RESTController)
}

// Routes lists "METHOD /path" for every handler registered so far.
func (controller *RESTController) Routes() []string {
	return append([]string(nil), controller.routes...)
}

func (result *ServiceResult) ToJSON() gin.H {
	return gin.H{
		"code":    result.StatusCode,
		"data":    result.Data,
		"message": result.Message,
	}
}
