package http

import "github.com/labstack/echo/v4"

// Handler registers its routes on the server's Echo instance. The server
// accepts any number of handlers so REST and websocket endpoints can live in
// separate packages.
type Handler interface {
	RegisterRoutes(e *echo.Echo)
}
