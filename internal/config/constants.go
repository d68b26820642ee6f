package config

import "time"

// app constants
const (
	AppName = "loglens"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "console"

	Version = "0.4.0"
)

// discovery constants
const (
	// MaxLogFilesPerService caps how many files are read per service,
	// newest first by the timestamp embedded in the filename.
	MaxLogFilesPerService = 2

	// MaxDiscoveredFiles caps the total number of files collected from
	// the workspace in a single discovery pass.
	MaxDiscoveredFiles = 100
)

// filter constants
const (
	// SessionWindow is the span of the time window derived from the
	// first occurrence of a session id.
	SessionWindow = time.Hour
)

// regeneration constants
const (
	RegenDebounce = 300 * time.Millisecond

	MaxWorkers = 3
)

// protocol constants
const (
	ProtocolBufferSize     = 64
	DefaultResponseTimeout = 5 * time.Second

	SocketPrefix = "loglens-"
	SocketSuffix = ".sock"

	SocketDialTimeout = 500 * time.Millisecond
)

// output constants
const (
	DocumentFileName   = "loglens.document.log"
	HighlightsFileName = "loglens.highlights.yaml"
	SummaryFileName    = "summary.txt"
	ConfigFileName     = "loglens.yaml"
)
