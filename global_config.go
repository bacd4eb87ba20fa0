package scaler

import (
	"log"
	"os"
	"time"
)

// Portnumbers structs can contain all TCP port numbers used by scalerd.
type Portnumbers struct {
	RPC      int
	Readings int
}

// Ports globally holds all TCP port numbers used by scalerd.
var Ports Portnumbers

func setPortnumbers(base int) {
	Ports.RPC = base
	Ports.Readings = base + 1
}

// BuildInfo can contain compile-time information about the build
type BuildInfo struct {
	Version string
	Githash string
	Date    string
}

// Build is a global holding compile-time information about the build
var Build = BuildInfo{
	Version: "0.1.0",
	Githash: "no git hash computed",
	Date:    "no build date computed",
}

// StartTime is a global holding the time init() was run
var StartTime time.Time

// ProblemLogger logs warning messages; devices constructed with a nil
// logger fall back to it.
var ProblemLogger *log.Logger

func init() {
	setPortnumbers(4500)
	StartTime = time.Now()

	// The scalerd main program will override this, but at least initialize
	// with a sensible value
	ProblemLogger = log.New(os.Stderr, "", log.LstdFlags)
}
