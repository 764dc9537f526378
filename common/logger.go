package common

import (
	"github.com/ipfs/go-log"
)

// Logger is the shared logger for all packages in this module. Verbosity is
// adjusted with `log.SetLogLevel("tss", ...)`.
var Logger = log.Logger("tss")
