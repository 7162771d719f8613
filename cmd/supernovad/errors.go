package main

import (
	"fmt"

	"github.com/supernova-labs/supernova/chainhash"
)

func errUnrecognizedLogLevel(level string) error {
	return fmt.Errorf("unrecognized log level %q", level)
}

func errUnknownParent(hash chainhash.Hash) error {
	return fmt.Errorf("block references unknown parent %s", hash)
}
