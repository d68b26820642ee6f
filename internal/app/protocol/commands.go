package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"

	"loglens/internal/app/errors"
)

// Command is one tag of the closed command set
type Command string

// Panel → host commands
const (
	CommandFilterLogLevel    Command = "filterLogLevel"
	CommandFilterTime        Command = "filterTime"
	CommandFilterSessionID   Command = "filterSessionId"
	CommandFilterNoEventTime Command = "filterNoEventTime"
	CommandKeywordCheckbox   Command = "filterCheckboxStateChange"
	CommandFileCheckbox      Command = "updateFileFilterCheckboxState"
	CommandDisplaySettings   Command = "displaySettingsChanged"
	CommandGetSummary        Command = "getSummary"
	CommandKeywordHighlight  Command = "keywordHighlightStateChange"
	CommandOpenFile          Command = "openFile"
	CommandJumpToRow         Command = "jumpToRow"
	CommandOpenSearchWindows Command = "openSearchWindows"
	CommandWebviewReady      Command = "webviewReady"
	CommandLogMessage        Command = "logMessage"
	CommandLogErrorMessage   Command = "logErrorMessage"
)

// Host → panel commands
const (
	CommandGetSummaryResponse   Command = "getSummaryResponse"
	CommandMessageAck           Command = "messageAck"
	CommandActiveFiltersChanged Command = "activeFiltersChanged"
	CommandFileStatsChanged     Command = "fileStatsChanged"
)

// Envelope is the wire shape of every message
type Envelope struct {
	ID      string          `json:"id"`
	Command Command         `json:"command"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// FilterLogLevelPayload toggles one log level checkbox
type FilterLogLevelPayload struct {
	Level   string `json:"logLevel"`
	Checked bool   `json:"isChecked"`
}

// FilterTimePayload sets or clears the manual time bounds
type FilterTimePayload struct {
	From string `json:"fromDate"`
	Till string `json:"tillDate"`
}

// FilterSessionIDPayload sets or removes the session id filter
type FilterSessionIDPayload struct {
	SessionID string `json:"sessionId"`
	Remove    bool   `json:"remove"`
}

// FilterNoEventTimePayload toggles hiding of entries without a timestamp
type FilterNoEventTimePayload struct {
	Checked bool `json:"isChecked"`
}

// KeywordCheckboxPayload adds, toggles or removes a keyword filter
type KeywordCheckboxPayload struct {
	Keyword string `json:"keyword"`
	Checked bool   `json:"isChecked"`
	Remove  bool   `json:"remove"`
}

// FileCheckboxPayload toggles one source file's inclusion
type FileCheckboxPayload struct {
	File    string `json:"fileName"`
	Checked bool   `json:"isChecked"`
}

// DisplaySettingsPayload carries the cosmetic rendering switches
type DisplaySettingsPayload struct {
	Emoji             bool `json:"substituteEmojis"`
	RedactIdentifiers bool `json:"redactIdentifiers"`
}

// SummaryUser is one signed-in account scraped from the metadata file
type SummaryUser struct {
	UPN      string `json:"upn"`
	Name     string `json:"name"`
	TenantID string `json:"tenantId"`
	OID      string `json:"oid"`
	UserID   string `json:"userId"`
}

// SummaryPayload answers getSummary
type SummaryPayload struct {
	SessionID   string        `json:"sessionId"`
	DeviceID    string        `json:"deviceId"`
	HostVersion string        `json:"hostVersion"`
	WebVersion  string        `json:"webVersion"`
	Language    string        `json:"language"`
	Ring        string        `json:"ring"`
	Users       []SummaryUser `json:"users"`
}

// KeywordHighlightPayload creates, toggles or removes a highlight
type KeywordHighlightPayload struct {
	ID      string `json:"id"`
	Keyword string `json:"keyword"`
	Color   string `json:"color"`
	Checked bool   `json:"isChecked"`
	Remove  bool   `json:"remove"`
}

// OpenFilePayload asks the host editor to open a path
type OpenFilePayload struct {
	Path string `json:"path"`
}

// JumpToRowPayload moves the editor cursor in the synthesized document
type JumpToRowPayload struct {
	Row int `json:"row"`
}

// LogMessagePayload forwards a panel-side log line to the host logger
type LogMessagePayload struct {
	Message string `json:"message"`
}

// ActiveFiltersPayload notifies the panel of the active filter count
type ActiveFiltersPayload struct {
	Count int `json:"numberOfActiveFilters"`
}

// FileStat is one file's contribution in a fileStatsChanged notification
type FileStat struct {
	Name    string `json:"fileName"`
	Service string `json:"serviceName"`
	Entries int    `json:"numberOfEntries"`
	Checked bool   `json:"isChecked"`
}

// FileStatsPayload notifies the panel of per-file entry counts
type FileStatsPayload struct {
	Files []FileStat `json:"files"`
}

// EmptyPayload is the schema of zero-payload commands
type EmptyPayload struct{}

// schemas maps every command tag to its single decode function. A tag
// missing here is not part of the protocol.
var schemas = map[Command]func(json.RawMessage) (interface{}, error){
	CommandFilterLogLevel: func(data json.RawMessage) (interface{}, error) {
		var p FilterLogLevelPayload
		return p, decodeStrict(CommandFilterLogLevel, data, &p)
	},
	CommandFilterTime: func(data json.RawMessage) (interface{}, error) {
		var p FilterTimePayload
		return p, decodeStrict(CommandFilterTime, data, &p)
	},
	CommandFilterSessionID: func(data json.RawMessage) (interface{}, error) {
		var p FilterSessionIDPayload
		return p, decodeStrict(CommandFilterSessionID, data, &p)
	},
	CommandFilterNoEventTime: func(data json.RawMessage) (interface{}, error) {
		var p FilterNoEventTimePayload
		return p, decodeStrict(CommandFilterNoEventTime, data, &p)
	},
	CommandKeywordCheckbox: func(data json.RawMessage) (interface{}, error) {
		var p KeywordCheckboxPayload
		return p, decodeStrict(CommandKeywordCheckbox, data, &p)
	},
	CommandFileCheckbox: func(data json.RawMessage) (interface{}, error) {
		var p FileCheckboxPayload
		return p, decodeStrict(CommandFileCheckbox, data, &p)
	},
	CommandDisplaySettings: func(data json.RawMessage) (interface{}, error) {
		var p DisplaySettingsPayload
		return p, decodeStrict(CommandDisplaySettings, data, &p)
	},
	CommandGetSummary: func(data json.RawMessage) (interface{}, error) {
		var p EmptyPayload
		return p, decodeStrict(CommandGetSummary, data, &p)
	},
	CommandGetSummaryResponse: func(data json.RawMessage) (interface{}, error) {
		var p SummaryPayload
		return p, decodeStrict(CommandGetSummaryResponse, data, &p)
	},
	CommandKeywordHighlight: func(data json.RawMessage) (interface{}, error) {
		var p KeywordHighlightPayload
		return p, decodeStrict(CommandKeywordHighlight, data, &p)
	},
	CommandOpenFile: func(data json.RawMessage) (interface{}, error) {
		var p OpenFilePayload
		return p, decodeStrict(CommandOpenFile, data, &p)
	},
	CommandJumpToRow: func(data json.RawMessage) (interface{}, error) {
		var p JumpToRowPayload
		return p, decodeStrict(CommandJumpToRow, data, &p)
	},
	CommandOpenSearchWindows: func(data json.RawMessage) (interface{}, error) {
		var p EmptyPayload
		return p, decodeStrict(CommandOpenSearchWindows, data, &p)
	},
	CommandWebviewReady: func(data json.RawMessage) (interface{}, error) {
		var p EmptyPayload
		return p, decodeStrict(CommandWebviewReady, data, &p)
	},
	CommandMessageAck: func(data json.RawMessage) (interface{}, error) {
		var p EmptyPayload
		return p, decodeStrict(CommandMessageAck, data, &p)
	},
	CommandLogMessage: func(data json.RawMessage) (interface{}, error) {
		var p LogMessagePayload
		return p, decodeStrict(CommandLogMessage, data, &p)
	},
	CommandLogErrorMessage: func(data json.RawMessage) (interface{}, error) {
		var p LogMessagePayload
		return p, decodeStrict(CommandLogErrorMessage, data, &p)
	},
	CommandActiveFiltersChanged: func(data json.RawMessage) (interface{}, error) {
		var p ActiveFiltersPayload
		return p, decodeStrict(CommandActiveFiltersChanged, data, &p)
	},
	CommandFileStatsChanged: func(data json.RawMessage) (interface{}, error) {
		var p FileStatsPayload
		return p, decodeStrict(CommandFileStatsChanged, data, &p)
	},
}

// Known reports whether a tag belongs to the protocol
func Known(cmd Command) bool {
	_, exists := schemas[cmd]

	return exists
}

// DecodePayload validates data against the command's schema and returns
// the typed payload value.
func DecodePayload(cmd Command, data json.RawMessage) (interface{}, error) {
	decode, known := schemas[cmd]
	if !known {
		return nil, fmt.Errorf("%w: %q", errors.ErrUnknownCommand, cmd)
	}

	return decode(data)
}

// ParseEnvelope validates the outer message shape only
func ParseEnvelope(line []byte) (Envelope, error) {
	var env Envelope

	if err := json.Unmarshal(line, &env); err != nil {
		return env, fmt.Errorf("%w: %v", errors.ErrMalformedEnvelope, err)
	}

	if env.Command == "" {
		return env, fmt.Errorf("%w: missing command field", errors.ErrMalformedEnvelope)
	}

	return env, nil
}

// decodeStrict decodes data into out rejecting unknown fields. Absent
// data is accepted and leaves out at its zero value.
func decodeStrict(cmd Command, data json.RawMessage, out interface{}) error {
	if len(data) == 0 {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("%w: %s: %v", errors.ErrSchemaMismatch, cmd, err)
	}

	return nil
}
