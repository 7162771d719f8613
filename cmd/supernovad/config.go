package main

import (
	"flag"
	"fmt"
)

// config holds the node's startup parameters. Supernova has no
// third-party config-file format anywhere in its dependency closure, so
// config is sourced from command-line flags alone, matching the only
// configuration surface the pack actually demonstrates.
type config struct {
	DataDir            string
	Network            string
	LogLevel           string
	QuantumMode        string
	MempoolMaxSize     int
	MinFeeRate         uint64
	CoinbaseMaturity   uint64
	MaxForkLength      uint64
	ShutdownTimeout    int
	SigCacheMaxEntries uint64
}

func defaultConfig() *config {
	return &config{
		DataDir:            "supernova-data",
		Network:            "mainnet",
		LogLevel:           "info",
		QuantumMode:        "migration",
		MempoolMaxSize:     5000,
		MinFeeRate:         1,
		CoinbaseMaturity:   100,
		MaxForkLength:      144,
		ShutdownTimeout:    30,
		SigCacheMaxEntries: 100000,
	}
}

// parseConfig parses args (normally os.Args[1:]) into a config,
// overriding the defaults one flag at a time.
func parseConfig(args []string) (*config, error) {
	cfg := defaultConfig()

	fs := flag.NewFlagSet("supernovad", flag.ContinueOnError)
	fs.StringVar(&cfg.DataDir, "datadir", cfg.DataDir, "directory for UTXO set, WAL, and shutdown status file")
	fs.StringVar(&cfg.Network, "network", cfg.Network, "network to run: mainnet or regtest")
	fs.StringVar(&cfg.LogLevel, "loglevel", cfg.LogLevel, "log level: trace, debug, info, warn, error, critical")
	fs.StringVar(&cfg.QuantumMode, "quantummode", cfg.QuantumMode, "signature algorithm binding mode: strict or migration")
	fs.IntVar(&cfg.MempoolMaxSize, "mempoolmaxsize", cfg.MempoolMaxSize, "maximum number of transactions held in the mempool")
	fs.Uint64Var(&cfg.MinFeeRate, "minfeerate", cfg.MinFeeRate, "minimum fee rate (per byte) accepted into the mempool")
	fs.Uint64Var(&cfg.CoinbaseMaturity, "coinbasematurity", cfg.CoinbaseMaturity, "confirmations required before a coinbase output is spendable")
	fs.Uint64Var(&cfg.MaxForkLength, "maxforklength", cfg.MaxForkLength, "maximum reorg depth accepted by chain state")
	fs.IntVar(&cfg.ShutdownTimeout, "shutdowntimeout", cfg.ShutdownTimeout, "seconds allotted to the full graceful shutdown sequence")
	fs.Uint64Var(&cfg.SigCacheMaxEntries, "sigcachemaxentries", cfg.SigCacheMaxEntries, "maximum verified signatures held in the script signature cache")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if cfg.Network != "mainnet" && cfg.Network != "regtest" {
		return nil, fmt.Errorf("unrecognized network %q: must be mainnet or regtest", cfg.Network)
	}
	if cfg.QuantumMode != "strict" && cfg.QuantumMode != "migration" {
		return nil, fmt.Errorf("unrecognized quantum mode %q: must be strict or migration", cfg.QuantumMode)
	}
	return cfg, nil
}
