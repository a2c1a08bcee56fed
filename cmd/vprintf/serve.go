package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/spf13/cobra"

	"vprintf/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve format checking and expansion over HTTP",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("addr", "127.0.0.1:8787", "listen address")
	serveCmd.Flags().Duration("read-timeout", 30*time.Second, "read header timeout")
}

func runServe(cmd *cobra.Command, _ []string) error {
	addr, err := cmd.Flags().GetString("addr")
	if err != nil {
		return fmt.Errorf("failed to get addr flag: %w", err)
	}
	readTimeout, err := cmd.Flags().GetDuration("read-timeout")
	if err != nil {
		return fmt.Errorf("failed to get read-timeout flag: %w", err)
	}
	cleanup, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	srv, err := server.New(cfg)
	if err != nil {
		return err
	}

	e := echo.New()
	e.Use(middleware.RequestLogger())
	e.Use(middleware.Recover())
	e.Use(server.RequestID)
	srv.Register(e)

	if !quiet(cmd) {
		fmt.Fprintf(cmd.ErrOrStderr(), "vprintf %s listening on %s (target %s)\n", versionString(), addr, cfg.Target.Name)
	}
	sc := echo.StartConfig{
		Address: addr,
		BeforeServeFunc: func(s *http.Server) error {
			s.ReadHeaderTimeout = readTimeout
			return nil
		},
	}
	return sc.Start(cmd.Context(), e)
}
