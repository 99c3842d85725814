package main

import (
	"os"
	"syscall"
)

// waitForShutdown blocks until an interrupt or SIGTERM arrives. SIGHUP runs
// reload and keeps waiting.
func waitForShutdown(sigs <-chan os.Signal, reload func()) os.Signal {
	for sig := range sigs {
		if sig == syscall.SIGHUP {
			reload()
			continue
		}
		return sig
	}
	return nil
}
