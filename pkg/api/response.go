package api

import "github.com/gin-gonic/gin"

// envelope is the wire shape every response takes per §6: success plus
// either a domain payload or a stable error code.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   *apiError `json:"error,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func ok(c *gin.Context, status int, data any) {
	c.JSON(status, envelope{Success: true, Data: data})
}

func fail(c *gin.Context, status int, code, message string) {
	c.JSON(status, envelope{Success: false, Error: &apiError{Code: code, Message: message}})
}
