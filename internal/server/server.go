// Package server exposes format checking, record layout and file
// expansion over HTTP for editor integrations.
package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"

	"vprintf/internal/config"
	"vprintf/internal/expand"
	"vprintf/internal/layout"
	"vprintf/internal/version"
)

// HeaderRequestID carries the request id on every response.
const HeaderRequestID = "X-Request-ID"

// maxBodyBytes caps request bodies; /v1/expand carries whole Go files.
const maxBodyBytes = 4 << 20

type Server struct {
	cfg config.Config
	exp *expand.Expander
}

func New(cfg config.Config) (*Server, error) {
	exp, err := expand.New(cfg, expand.Options{})
	if err != nil {
		return nil, err
	}
	return &Server{cfg: cfg, exp: exp}, nil
}

// Register mounts the API routes on e.
func (s *Server) Register(e *echo.Echo) {
	e.GET("/healthz", s.handleHealth)
	e.POST("/v1/check", s.handleCheck)
	e.POST("/v1/layout", s.handleLayout)
	e.POST("/v1/expand", s.handleExpand)
}

// NewEcho returns an Echo instance with recovery, request ids and the API
// routes installed.
func (s *Server) NewEcho() *echo.Echo {
	e := echo.New()
	e.Use(middleware.Recover())
	e.Use(RequestID)
	s.Register(e)
	return e
}

// RequestID keeps a well-formed incoming X-Request-ID and mints one
// otherwise.
func RequestID(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c *echo.Context) error {
		id := c.Request().Header.Get(HeaderRequestID)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Response().Header().Set(HeaderRequestID, id)
		return next(c)
	}
}

type errorBody struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

func writeError(c *echo.Context, status int, errType, msg string) error {
	return c.JSON(status, map[string]any{
		"error": errorBody{Message: msg, Type: errType},
	})
}

func writeBadRequest(c *echo.Context, msg string) error {
	return writeError(c, http.StatusBadRequest, "invalid_request_error", msg)
}

func decodeJSON[T any](r io.Reader) (T, error) {
	var out T
	dec := json.NewDecoder(io.LimitReader(r, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&out); err != nil {
		if errors.Is(err, io.EOF) {
			return out, errors.New("empty request body")
		}
		return out, err
	}
	return out, nil
}

func (s *Server) handleHealth(c *echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"version": version.Version,
		"target":  s.cfg.Target.Name,
	})
}

func (s *Server) engineFor(name string) (*layout.Engine, error) {
	if name == "" {
		name = s.cfg.Target.Name
	}
	target, err := layout.TargetByName(name)
	if err != nil {
		return nil, err
	}
	return layout.New(target)
}
