package handler

import "github.com/gin-gonic/gin"

// apiResponse is the uniform envelope returned by every endpoint.
type apiResponse struct {
	StatusCode int         `json:"statusCode"`
	Data       interface{} `json:"data,omitempty"`
	Message    string      `json:"message"`
	Success    bool        `json:"success"`
}

// respond writes a success envelope.
func respond(c *gin.Context, statusCode int, data interface{}, message string) {
	c.JSON(statusCode, apiResponse{
		StatusCode: statusCode,
		Data:       data,
		Message:    message,
		Success:    statusCode < 400,
	})
}

// respondError writes an error envelope and aborts the chain.
func respondError(c *gin.Context, statusCode int, message string) {
	c.AbortWithStatusJSON(statusCode, apiResponse{
		StatusCode: statusCode,
		Message:    message,
		Success:    false,
	})
}
