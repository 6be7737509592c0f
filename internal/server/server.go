// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package server exposes the paired remotes over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/Thermoquad/rtsctl/internal/control"
	"github.com/Thermoquad/rtsctl/internal/observability"
	"github.com/Thermoquad/rtsctl/internal/store"
	"github.com/Thermoquad/rtsctl/pkg/rts"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	ctrl    *control.Controller
	router  *gin.Engine
	logger  zerolog.Logger
	started time.Time
}

type remoteView struct {
	Name        string `json:"name"`
	Address     string `json:"address"`
	RollingCode uint16 `json:"rolling_code"`
	Position    int    `json:"position"`
}

type commandRequest struct {
	Command     string `json:"command"`
	Repetitions int    `json:"repetitions"`
}

type moveRequest struct {
	Position *int `json:"position"`
}

type commandResponse struct {
	Remote      string `json:"remote"`
	Command     string `json:"command,omitempty"`
	Repetitions int    `json:"repetitions"`
	Frames      int    `json:"frames"`
	RollingCode uint16 `json:"rolling_code"`
	Sent        bool   `json:"sent"`
	Error       string `json:"error,omitempty"`
}

type moveResponse struct {
	commandResponse
	From  int  `json:"from"`
	To    int  `json:"to"`
	Moved bool `json:"moved"`
}

// New builds the router
func New(ctrl *control.Controller, logger zerolog.Logger) *Server {
	observability.RegisterMetrics()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.HTTPObserver(logger))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	s := &Server{
		ctrl:    ctrl,
		router:  r,
		logger:  logger,
		started: time.Now(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) registerRoutes() {
	s.router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(s.started).String(),
			"remotes": len(s.ctrl.Remotes()),
		})
	})

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := s.router.Group("/api")
	api.GET("/remotes", s.listRemotes)
	api.GET("/remotes/:name", s.getRemote)
	api.POST("/remotes/:name/commands", s.sendCommand)
	api.POST("/remotes/:name/move", s.move)
}

func (s *Server) listRemotes(c *gin.Context) {
	remotes := s.ctrl.Remotes()
	out := make([]remoteView, 0, len(remotes))
	for _, r := range remotes {
		out = append(out, newRemoteView(r))
	}
	c.JSON(http.StatusOK, gin.H{"remotes": out})
}

func (s *Server) getRemote(c *gin.Context) {
	status, err := s.ctrl.Remote(c.Param("name"))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, newRemoteView(status))
}

func (s *Server) sendCommand(c *gin.Context) {
	name := c.Param("name")

	var req commandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, commandResponse{Remote: name, Error: "invalid request body: " + err.Error()})
		return
	}

	cmd, err := rts.ParseCommand(req.Command)
	if err != nil {
		c.JSON(http.StatusBadRequest, commandResponse{Remote: name, Command: req.Command, Error: err.Error()})
		return
	}

	res, err := s.ctrl.Send(c.Request.Context(), name, cmd, req.Repetitions)
	resp := newCommandResponse(res)
	if err != nil {
		resp.Error = err.Error()
		c.JSON(statusFor(err), resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) move(c *gin.Context) {
	name := c.Param("name")

	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Position == nil {
		msg := "position is required"
		if err != nil {
			msg = "invalid request body: " + err.Error()
		}
		c.JSON(http.StatusBadRequest, gin.H{"remote": name, "error": msg, "sent": false})
		return
	}

	res, err := s.ctrl.Move(c.Request.Context(), name, *req.Position)
	resp := moveResponse{
		commandResponse: newCommandResponse(res.Result),
		From:            res.From,
		To:              res.To,
		Moved:           res.Moved,
	}
	resp.Remote = name
	if err != nil {
		resp.Error = err.Error()
		c.JSON(statusFor(err), resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func newRemoteView(r control.RemoteStatus) remoteView {
	return remoteView{
		Name:        r.Name,
		Address:     r.Address.String(),
		RollingCode: r.RollingCode,
		Position:    r.Position,
	}
}

func newCommandResponse(res control.Result) commandResponse {
	resp := commandResponse{
		Remote:      res.Remote,
		Repetitions: res.Repetitions,
		Frames:      res.Frames,
		RollingCode: res.RollingCode,
		Sent:        res.Sent,
	}
	if res.Command.Valid() {
		resp.Command = res.Command.String()
	}
	return resp
}

// statusFor maps a send error to an HTTP status. A StorageError means the
// command did reach the blind; an UnconfirmedError means it may have.
func statusFor(err error) int {
	var (
		storageErr  *rts.StorageError
		txErr       *rts.TransmitError
		unconfirmed *rts.UnconfirmedError
		buildErr    *rts.BuildError
		unknownCmd  *rts.UnknownCommandError
	)
	switch {
	case errors.As(err, &storageErr):
		return http.StatusInternalServerError
	case errors.As(err, &unconfirmed):
		return http.StatusGatewayTimeout
	case errors.As(err, &txErr):
		return http.StatusBadGateway
	case errors.Is(err, store.ErrRemoteNotFound):
		return http.StatusNotFound
	case errors.As(err, &buildErr),
		errors.As(err, &unknownCmd),
		errors.Is(err, control.ErrTooManyRepetitions),
		errors.Is(err, control.ErrInvalidPosition):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("http_listen")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Info().Msg("http_shutdown")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
