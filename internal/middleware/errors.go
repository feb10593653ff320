package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// problem mirrors handler.ProblemDetails so middleware rejections look
// the same as handler errors
type problem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

const (
	errorTypeUnauthorized = "https://fortuna.app/errors/unauthorized"
	errorTypeRateLimit    = "https://fortuna.app/errors/rate-limit"
)

func writeProblem(c echo.Context, status int, typ, title, detail string) error {
	return c.JSON(status, problem{
		Type:     typ,
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// unauthorizedError tells the dashboard to send the user back to login
func unauthorizedError(c echo.Context, detail string) error {
	return writeProblem(c, http.StatusUnauthorized, errorTypeUnauthorized, "Unauthorized", detail)
}

func tooManyRequestsError(c echo.Context, detail string) error {
	return writeProblem(c, http.StatusTooManyRequests, errorTypeRateLimit, "Rate Limit Exceeded", detail)
}
