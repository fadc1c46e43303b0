package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/chatstream/pkg/chat"
	"github.com/papercomputeco/chatstream/pkg/storage"
)

// ErrorResponse is the JSON body of every error answer.
type ErrorResponse struct {
	Error string `json:"error"`
}

// handlePing is a health check.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleListModels returns the model catalog.
func (s *Server) handleListModels(c *fiber.Ctx) error {
	models := s.models
	if models == nil {
		models = []chat.Model{}
	}
	return c.JSON(models)
}

// handleListSessions returns stored session headers.
func (s *Server) handleListSessions(c *fiber.Ctx) error {
	sessions, err := s.storer.ListSessions(c.UserContext())
	if err != nil {
		s.logger.Error("failed to list sessions", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to list sessions"})
	}
	if sessions == nil {
		sessions = []*chat.Session{}
	}
	return c.JSON(sessions)
}

// handleGetSession returns one session with its messages.
func (s *Server) handleGetSession(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "id parameter required"})
	}

	session, err := s.storer.GetSession(c.UserContext(), id)
	if errors.As(err, &storage.NotFoundError{}) {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "session not found"})
	}
	if err != nil {
		s.logger.Error("failed to get session", "id", id, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to get session"})
	}

	return c.JSON(session)
}
