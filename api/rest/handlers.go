package rest

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// ErrorResponse is the body returned for failed requests.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// HealthResponse is the body returned by the health check.
type HealthResponse struct {
	Status string    `json:"status"`
	Time   time.Time `json:"time"`
}

// StatusResponse describes the current run.
type StatusResponse struct {
	State      string    `json:"state"`
	Progress   int       `json:"progress"`
	AsyncTasks int       `json:"async_tasks"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
}

// ProgressResponse carries just the progress percentage.
type ProgressResponse struct {
	Progress int `json:"progress"`
}

// AbortRequest is the body accepted by the abort endpoint.
type AbortRequest struct {
	Reason string `json:"reason"`
}

// AbortResponse acknowledges an abort request.
type AbortResponse struct {
	Aborted bool   `json:"aborted"`
	Reason  string `json:"reason"`
}

// healthCheck handles GET /health.
func (s *Server) healthCheck(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status: "ok",
		Time:   time.Now(),
	})
}

// getStatus handles GET /status.
func (s *Server) getStatus(c *fiber.Ctx) error {
	start, end := s.engine.Window()
	return c.JSON(StatusResponse{
		State:      s.engine.State(),
		Progress:   s.engine.Progress(),
		AsyncTasks: s.engine.AsyncCount(),
		StartTime:  start,
		EndTime:    end,
	})
}

// getProgress handles GET /progress.
func (s *Server) getProgress(c *fiber.Ctx) error {
	return c.JSON(ProgressResponse{
		Progress: s.engine.Progress(),
	})
}

// abortRun handles POST /abort.
func (s *Server) abortRun(c *fiber.Ctx) error {
	var req AbortRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
				Error:   "bad_request",
				Message: "invalid request body",
			})
		}
	}
	if req.Reason == "" {
		req.Reason = "abort requested via API"
	}

	s.engine.Abort(req.Reason)
	return c.JSON(AbortResponse{
		Aborted: true,
		Reason:  req.Reason,
	})
}
