package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/castlemate/chess-server/pkg/server"
)

// serve starts the framed-TCP listener and the HTTP server (websocket
// endpoint plus healthcheck) and handles graceful shutdown.
func (app *application) serve() error {
	tcpListener, err := net.Listen("tcp", app.Config.TCPAddr)
	if err != nil {
		return err
	}

	app.Server = &http.Server{
		Addr:        app.Config.HTTPAddr,
		Handler:     app.routes(),
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	shutdownError := make(chan error)

	go func() {
		// Set up signal handling for graceful shutdown
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		s := <-quit
		app.Logger.Info("shutting down server", zap.String("signal", s.String()))

		tcpListener.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()

		shutdownError <- app.Server.Shutdown(ctx)
	}()

	app.Logger.Info("starting server",
		zap.String("tcp_addr", app.Config.TCPAddr),
		zap.String("http_addr", app.Config.HTTPAddr))

	go app.acceptLoop(tcpListener)

	if err := app.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	if err := <-shutdownError; err != nil {
		return err
	}

	app.Logger.Info("server stopped gracefully")
	return nil
}

// acceptLoop accepts raw TCP connections and hands each one its own
// read goroutine.
func (app *application) acceptLoop(listener net.Listener) {
	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			app.Logger.Error("accept error", zap.Error(err))
			continue
		}

		c := server.NewConnection(server.NewTCPTransport(conn), app.Hub, app.Logger)
		app.Hub.Register(c)

		app.Logger.Info("tcp connection established",
			zap.String("remote_addr", conn.RemoteAddr().String()))

		go c.ReadPump()
	}
}
