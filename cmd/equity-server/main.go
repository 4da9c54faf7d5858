package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"

	"github.com/lox/holdem-equity/internal/equityserver"
)

type CLI struct {
	Config  string `short:"c" help:"Path to HCL config file" default:"equity-server.hcl"`
	Listen  string `short:"l" help:"Override the configured listen address"`
	Verbose bool   `short:"v" help:"Verbose logging"`
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli)

	cfg, err := equityserver.LoadConfig(cli.Config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		kctx.Exit(1)
	}

	level := log.InfoLevel
	if cli.Verbose || cfg.Server.LogLevel == "debug" {
		level = log.DebugLevel
	}
	logger := log.NewWithOptions(os.Stderr, log.Options{
		Level:           level,
		ReportTimestamp: true,
	})

	if cli.Listen != "" {
		host, port, err := splitListen(cli.Listen)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			kctx.Exit(1)
		}
		cfg.Server.Address = host
		cfg.Server.Port = port
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := equityserver.New(cfg, logger)
	if err := srv.ListenAndServe(ctx); err != nil {
		logger.Error("server failed", "error", err)
		kctx.Exit(1)
	}
	logger.Info("shut down")
}

func splitListen(addr string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid listen address %q: %w", addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid port in %q: %w", addr, err)
	}
	return host, port, nil
}
