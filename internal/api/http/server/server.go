package server

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/st-angelo/webarena-auth/internal/model"
)

var _ model.Server = (*HTTPServer)(nil)

// HTTPServer serves the public API.
type HTTPServer struct {
	app  *fiber.App
	addr string
}

func NewHTTPServer(app *fiber.App, addr string) *HTTPServer {
	return &HTTPServer{
		app:  app,
		addr: addr,
	}
}

// Start serves on the configured address using the provided security layer.
func (s *HTTPServer) Start(securityLayer model.SecurityLayer) error {
	listener, err := securityLayer.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	return s.app.Listener(listener)
}

// Stop waits for in-flight requests until ctx ends.
func (s *HTTPServer) Stop(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *HTTPServer) Address() string {
	return s.addr
}
