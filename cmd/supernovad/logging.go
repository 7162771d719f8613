package main

import (
	"os"

	"github.com/decred/slog"

	"github.com/supernova-labs/supernova/blockchain"
	"github.com/supernova-labs/supernova/checkpoint"
	"github.com/supernova-labs/supernova/lightning/channel"
	"github.com/supernova-labs/supernova/lightning/router"
	"github.com/supernova-labs/supernova/lightning/watchtower"
	"github.com/supernova-labs/supernova/mempool"
	"github.com/supernova-labs/supernova/shutdown"
	"github.com/supernova-labs/supernova/txindex"
	"github.com/supernova-labs/supernova/utxo"
)

var log slog.Logger = slog.Disabled

// initLogging builds a single stdout-backed slog.Backend and hands every
// package its own named subsystem logger at levelName, matching the
// decred/slog per-subsystem convention already used throughout this
// module (every package here already has a UseLogger hook).
func initLogging(levelName string) error {
	level, ok := slog.LevelFromString(levelName)
	if !ok {
		return errUnrecognizedLogLevel(levelName)
	}

	backend := slog.NewBackend(os.Stdout)
	subsystem := func(tag string) slog.Logger {
		l := backend.Logger(tag)
		l.SetLevel(level)
		return l
	}

	log = subsystem("SNVD")
	blockchain.UseLogger(subsystem("CHST"))
	checkpoint.UseLogger(subsystem("CKPT"))
	mempool.UseLogger(subsystem("MMPL"))
	txindex.UseLogger(subsystem("TXIX"))
	utxo.UseLogger(subsystem("UTXO"))
	shutdown.UseLogger(subsystem("SDWN"))
	channel.UseLogger(subsystem("LNCH"))
	router.UseLogger(subsystem("LNRT"))
	watchtower.UseLogger(subsystem("LNWT"))
	return nil
}
