package entry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func Test_Classify(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		expected Level
	}{
		{name: "Short error marker", line: "ts Err connection dropped", expected: LevelError},
		{name: "Short warning marker", line: "ts War token near expiry", expected: LevelWarning},
		{name: "Short debug marker", line: "ts Deb state dump", expected: LevelDebug},
		{name: "Short info marker", line: "ts Inf session started", expected: LevelInfo},
		{name: "Marker beats loose word", line: "ts Inf error count is 0", expected: LevelInfo},
		{name: "Loose error word", line: "something error happened", expected: LevelError},
		{name: "Loose warning word", line: "WARNING: disk almost full", expected: LevelWarning},
		{name: "No marker", line: "plain text line", expected: LevelUnknown},
		{name: "Empty line", line: "", expected: LevelUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Classify(tt.line))
		})
	}
}

func Test_ParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
		ok       bool
	}{
		{input: "info", expected: LevelInfo, ok: true},
		{input: "Warning", expected: LevelWarning, ok: true},
		{input: "warn", expected: LevelWarning, ok: true},
		{input: " error ", expected: LevelError, ok: true},
		{input: "debug", expected: LevelDebug, ok: true},
		{input: "verbose", expected: LevelUnknown, ok: false},
		{input: "", expected: LevelUnknown, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			level, ok := ParseLevel(tt.input)

			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, level)
		})
	}
}

func Test_HasTime(t *testing.T) {
	assert.False(t, Entry{Time: UnknownTime}.HasTime())
	assert.False(t, Entry{}.HasTime())
	assert.True(t, Entry{Time: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}.HasTime())
}

func Test_ServiceHash(t *testing.T) {
	assert.Equal(t, ServiceHash("Auth"), ServiceHash("Auth"))
	assert.NotEqual(t, ServiceHash("Auth"), ServiceHash("Sync"))

	for _, service := range []string{"", "Auth", "Sync", "ReallyLongServiceNameThatOverflows"} {
		assert.GreaterOrEqual(t, ServiceHash(service), 0)
	}
}
