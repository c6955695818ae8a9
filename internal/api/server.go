package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/websocket/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/jgermanis/task-chat-server/internal/config"
	"github.com/jgermanis/task-chat-server/internal/registry"
	"github.com/jgermanis/task-chat-server/internal/ws"
)

type Server struct {
	names *registry.Registry
	hub   *ws.Hub
	log   *zap.SugaredLogger
}

type loginRequest struct {
	User string `json:"user"`
}

// New wires the HTTP surface: name registration, the websocket upgrade,
// health and (optionally) metrics.
func New(cfg *config.Config, names *registry.Registry, hub *ws.Hub, wsh *ws.Handler, log *zap.SugaredLogger) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use(fiberlogger.New())

	s := &Server{names: names, hub: hub, log: log}

	app.Post("/login", s.login)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "sessions": hub.Count()})
	})

	app.Get("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(wsh.Serve()))

	if cfg.PrometheusEnabled {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	}

	return app
}

// login reserves a display name ahead of the websocket attach. The echo on
// success and the 400/409 split mirror what connecting clients expect.
func (s *Server) login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("Bad request")
	}

	switch err := s.names.Register(req.User); {
	case errors.Is(err, registry.ErrEmptyName):
		return c.Status(fiber.StatusBadRequest).SendString("Bad request")
	case errors.Is(err, registry.ErrNameTaken):
		return c.Status(fiber.StatusConflict).SendString("User with such name already exists")
	case err != nil:
		s.log.Errorw("register failed", "user", req.User, "err", err)
		return c.Status(fiber.StatusInternalServerError).SendString("internal error")
	}

	s.log.Infow("name registered", "user", req.User)
	return c.JSON(fiber.Map{"user": req.User})
}
