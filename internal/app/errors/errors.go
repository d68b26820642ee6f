package errors

import (
	"errors"
)

var (
	ErrFailedToReadConfig  = errors.New("failed to read config file")
	ErrFailedToParseConfig = errors.New("failed to parse config file")
	ErrInvalidConfig       = errors.New("invalid configuration")

	ErrInvalidTimeBound      = errors.New("invalid time bound")
	ErrInvalidKeywordPattern = errors.New("invalid keyword pattern")
	ErrUnknownFilterEvent    = errors.New("unknown filter event")

	ErrWorkspaceNotFound = errors.New("workspace root does not exist")
	ErrInvalidGlob       = errors.New("invalid glob pattern")

	ErrMalformedEnvelope = errors.New("malformed message envelope")
	ErrUnknownCommand    = errors.New("unknown command")
	ErrSchemaMismatch    = errors.New("payload does not match command schema")
	ErrResponseTimeout   = errors.New("timed out waiting for response")
	ErrChannelClosed     = errors.New("channel closed")

	ErrFailedToListenSocket   = errors.New("failed to listen on socket")
	ErrFailedToConnectSocket  = errors.New("failed to connect to socket")
	ErrFailedToCleanupSocket  = errors.New("failed to clean up stale socket")
	ErrSocketAlreadyInUse     = errors.New("socket already in use")
	ErrFailedToMarshalMessage = errors.New("failed to marshal message")
	ErrFailedToWriteSocket    = errors.New("failed to write to socket")
	ErrFailedToReadSocket     = errors.New("failed to read from socket")

	ErrFailedToReadSummary = errors.New("failed to read summary file")

	ErrHighlightNotFound        = errors.New("highlight definition not found")
	ErrFailedToPersistHighlight = errors.New("failed to persist highlight definitions")

	ErrGenerationSuperseded = errors.New("generation superseded by newer trigger")
)

var (
	As  = errors.As
	Is  = errors.Is
	New = errors.New
)
