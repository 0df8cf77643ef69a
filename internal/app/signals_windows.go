//go:build windows

package app

import "os"

// shutdownSignals are the OS signals that cancel a running command.
var shutdownSignals = []os.Signal{os.Interrupt}
