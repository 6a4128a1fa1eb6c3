// Package server serves the board REST API over a domain.BoardAPI.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/runoshun/board/internal/domain"
)

// maxBodySize bounds request bodies.
const maxBodySize = 1 << 20

// Server is the HTTP front of a board store.
type Server struct {
	echo   *echo.Echo
	api    domain.BoardAPI
	logger *slog.Logger
}

// New creates a Server exposing api under /api.
func New(api domain.BoardAPI, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = sonicSerializer{}

	s := &Server{echo: e, api: api, logger: logger}

	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{"method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency}
			if v.Error != nil {
				s.logger.Warn("request failed", append(attrs, "err", v.Error)...)
				return nil
			}
			s.logger.Debug("request", attrs...)
			return nil
		},
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))

	s.register()
	return s
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Run serves on addr until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("board server listening", "addr", addr)
		errCh <- s.echo.Start(addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return s.echo.Shutdown(shutdownCtx)
	}
}

func (s *Server) register() {
	s.echo.GET("/healthz", s.healthz)

	g := s.echo.Group("/api")
	g.GET("/board", s.getBoard)
	g.GET("/columns", s.listColumns)
	g.POST("/columns", s.createColumn)
	g.PUT("/columns/reorder", s.reorderColumns)
	g.PUT("/columns/:id", s.renameColumn)
	g.DELETE("/columns/:id", s.deleteColumn)
	g.POST("/tasks", s.createTask)
	g.PUT("/tasks/move", s.moveTask)
	g.PUT("/tasks/reorder", s.reorderTasks)
	g.PUT("/tasks/:id", s.updateTask)
	g.DELETE("/tasks/:id", s.deleteTask)
}

func (s *Server) healthz(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

func (s *Server) getBoard(c echo.Context) error {
	board, err := s.api.FetchBoard(c.Request().Context())
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, board)
}

func (s *Server) listColumns(c echo.Context) error {
	cols, err := s.api.ListColumns(c.Request().Context())
	if err != nil {
		return s.fail(c, err)
	}
	if cols == nil {
		cols = []domain.Column{}
	}
	return c.JSON(http.StatusOK, cols)
}

func (s *Server) createColumn(c echo.Context) error {
	var req domain.CreateColumnRequest
	if err := decode(c, &req); err != nil {
		return s.fail(c, err)
	}
	col, err := s.api.CreateColumn(c.Request().Context(), req.ID, req.Title)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusCreated, col)
}

func (s *Server) renameColumn(c echo.Context) error {
	var req domain.RenameColumnRequest
	if err := decode(c, &req); err != nil {
		return s.fail(c, err)
	}
	col, err := s.api.RenameColumn(c.Request().Context(), c.Param("id"), req.Title)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, col)
}

func (s *Server) reorderColumns(c echo.Context) error {
	var req domain.ReorderColumnsRequest
	if err := decode(c, &req); err != nil {
		return s.fail(c, err)
	}
	if err := s.api.ReorderColumns(c.Request().Context(), req.Columns); err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, domain.SuccessResponse{Success: true})
}

func (s *Server) deleteColumn(c echo.Context) error {
	if err := s.api.DeleteColumn(c.Request().Context(), c.Param("id")); err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, domain.SuccessResponse{Success: true})
}

func (s *Server) createTask(c echo.Context) error {
	var req domain.CreateTaskRequest
	if err := decode(c, &req); err != nil {
		return s.fail(c, err)
	}
	task, err := s.api.CreateTask(c.Request().Context(), req)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusCreated, task)
}

func (s *Server) updateTask(c echo.Context) error {
	var req domain.UpdateTaskRequest
	if err := decode(c, &req); err != nil {
		return s.fail(c, err)
	}
	task, err := s.api.UpdateTask(c.Request().Context(), c.Param("id"), req.Title, req.Description)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, task)
}

func (s *Server) moveTask(c echo.Context) error {
	var req domain.MoveTaskRequest
	if err := decode(c, &req); err != nil {
		return s.fail(c, err)
	}
	if err := s.api.MoveTask(c.Request().Context(), req.TaskID, req.NewColumnID); err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, domain.SuccessResponse{Success: true})
}

func (s *Server) reorderTasks(c echo.Context) error {
	var req domain.ReorderTasksRequest
	if err := decode(c, &req); err != nil {
		return s.fail(c, err)
	}
	if err := s.api.ReorderTasks(c.Request().Context(), req.Tasks); err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, domain.SuccessResponse{Success: true})
}

func (s *Server) deleteTask(c echo.Context) error {
	if err := s.api.DeleteTask(c.Request().Context(), c.Param("id")); err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, domain.SuccessResponse{Success: true})
}

// fail writes err as an ErrorResponse with a status derived from its class.
func (s *Server) fail(c echo.Context, err error) error {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("board api failed", "path", c.Path(), "err", err)
	}
	return c.JSON(status, domain.ErrorResponse{Error: err.Error(), Code: domain.ErrorCode(err)})
}

func statusOf(err error) int {
	switch {
	case domain.IsNotFound(err):
		return http.StatusNotFound
	case domain.IsValidation(err), errors.Is(err, errInvalidBody):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotInitialized):
		return http.StatusConflict
	case domain.IsTransport(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

var errInvalidBody = errors.New("invalid body")

func decode(c echo.Context, out any) error {
	dec := sonic.ConfigStd.NewDecoder(io.LimitReader(c.Request().Body, maxBodySize))
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("%w: %v", errInvalidBody, err)
	}
	return nil
}
