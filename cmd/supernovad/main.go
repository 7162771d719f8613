// Command supernovad runs a Supernova full node: the proof-of-work chain
// (C1-C9), its Lightning-style payment-channel layer (C10-C12), and the
// phased shutdown coordinator (C13) that tears both down cleanly.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/supernova-labs/supernova/shutdown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "supernovad:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := parseConfig(os.Args[1:])
	if err != nil {
		return err
	}
	if err := initLogging(cfg.LogLevel); err != nil {
		return err
	}

	n, err := newNode(cfg)
	if err != nil {
		return fmt.Errorf("initializing node: %w", err)
	}
	log.Infof("supernovad starting: network=%s datadir=%s", cfg.Network, cfg.DataDir)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	sig := <-sigCh
	log.Infof("received signal %s, beginning graceful shutdown", sig)

	shutdownSignal := shutdown.SignalUser
	if sig == syscall.SIGTERM {
		shutdownSignal = shutdown.SignalSystem
	}
	return n.shutdownCoord.Shutdown(shutdownSignal)
}
