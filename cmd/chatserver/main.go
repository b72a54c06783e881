// File: cmd/chatserver/main.go
// Package main
// Broadcast chat relay: every byte received from one client is written to
// all other connected clients. Raw TCP, no framing.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/momentics/hioload-chat/control"
	"github.com/momentics/hioload-chat/internal/transport"
	"github.com/momentics/hioload-chat/reactor"
	"github.com/momentics/hioload-chat/server"
)

const usage = "Usage: server <port>"

func main() {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)
	os.Exit(run(os.Args[1:], os.Stderr, sigs))
}

// run starts the relay on the port given in args and serves until stop
// delivers a signal. It returns the process exit status.
func run(args []string, stderr io.Writer, stop <-chan os.Signal) int {
	if len(args) != 1 {
		fmt.Fprintln(stderr, usage)
		return 1
	}
	port, err := control.ParsePort(args[0])
	if err != nil {
		fmt.Fprintln(stderr, usage)
		return 1
	}

	cfg, err := control.FromEnv()
	if err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return 1
	}
	cfg.Port = port

	logger, err := control.NewLogger(stderr, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(stderr, "logger: %v\n", err)
		return 1
	}

	mux, err := reactor.New(cfg.MaxEvents)
	if err != nil {
		logger.Err().Err(err).Log("create multiplexer")
		return 1
	}
	tr := transport.New(
		transport.WithBacklog(cfg.Backlog),
		transport.WithReuseAddr(cfg.ReuseAddress()),
	)
	srv, err := server.New(cfg, tr, mux, server.WithLogger(logger))
	if err != nil {
		_ = mux.Close()
		logger.Err().Err(err).Int("port", port).Log("start server")
		return 1
	}

	go func() {
		if sig, ok := <-stop; ok {
			logger.Info().Str("signal", sig.String()).Log("shutdown requested")
			if err := srv.Shutdown(); err != nil {
				logger.Warning().Err(err).Log("wake loop")
			}
		}
	}()

	if err := srv.Run(); err != nil {
		return 1
	}
	return 0
}
