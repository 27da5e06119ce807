package handler

import "github.com/labstack/echo/v4"

// Envelope is the JSON body of every API response.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func respond(c echo.Context, code int, message string, data any) error {
	return c.JSON(code, Envelope{Success: true, Message: message, Data: data})
}

// Fail renders an error envelope. The API error handler is its only caller
// outside this package.
func Fail(c echo.Context, code int, message, detail string) error {
	return c.JSON(code, Envelope{Success: false, Message: message, Error: detail})
}
