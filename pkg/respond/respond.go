// Package respond implements the JSON envelope used by every API endpoint.
// All responses carry the shape {success, message, data} so that clients can
// branch on a single boolean regardless of HTTP status.
package respond

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Envelope is the wire format for every API response.
type Envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// OK writes a 200 response with the given payload.
func OK(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, Envelope{Success: true, Data: data})
}

// OKMessage writes a 200 response with a payload and a human-readable message.
func OKMessage(c echo.Context, message string, data interface{}) error {
	return c.JSON(http.StatusOK, Envelope{Success: true, Message: message, Data: data})
}

// Created writes a 201 response with the given payload.
func Created(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusCreated, Envelope{Success: true, Data: data})
}

// NoContent writes a 200 response with no payload. The envelope is kept so
// clients never have to special-case an empty body.
func NoContent(c echo.Context, message string) error {
	return c.JSON(http.StatusOK, Envelope{Success: true, Message: message})
}

// Error writes a failure envelope with the given status code.
func Error(c echo.Context, status int, message string) error {
	return c.JSON(status, Envelope{Success: false, Message: message})
}

// BadRequest writes a 400 failure envelope.
func BadRequest(c echo.Context, message string) error {
	return Error(c, http.StatusBadRequest, message)
}

// NotFound writes a 404 failure envelope.
func NotFound(c echo.Context, message string) error {
	return Error(c, http.StatusNotFound, message)
}

// Conflict writes a 409 failure envelope. Used for business-rule rejections
// such as out-of-stock or over-stock cart mutations.
func Conflict(c echo.Context, message string) error {
	return Error(c, http.StatusConflict, message)
}
