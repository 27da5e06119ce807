package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type rootResponse struct {
	Success   bool              `json:"success"`
	Message   string            `json:"message"`
	Endpoints map[string]string `json:"endpoints"`
}

// Root describes the API.
//
// @Summary      API description
// @Tags         meta
// @Produce      json
// @Success      200  {object}  rootResponse
// @Router       / [get]
func Root(c echo.Context) error {
	return c.JSON(http.StatusOK, rootResponse{
		Success: true,
		Message: "Backend Internship API is running!",
		Endpoints: map[string]string{
			"register":    "POST /api/register",
			"adminLogin":  "POST /api/admin/login",
			"getAllUsers": "GET /api/users (requires admin token)",
			"getUserById": "GET /api/users/:id (requires admin token)",
		},
	})
}
