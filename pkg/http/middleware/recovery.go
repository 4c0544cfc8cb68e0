package middleware

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	applogger "StockPilot/pkg/logger"
)

// Recover turns handler panics into 500 responses and logs them with
// the route and request id.
func Recover(l *applogger.Logger) echo.MiddlewareFunc {
	return echomw.RecoverWithConfig(echomw.RecoverConfig{
		StackSize: 8 << 10,
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			if l != nil {
				l.Error("http handler panic",
					applogger.String("route", c.Path()),
					applogger.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
					applogger.Error(err),
					applogger.String("stack", string(stack)),
				)
			}
			return err
		},
	})
}
