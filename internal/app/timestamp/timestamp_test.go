package timestamp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"loglens/internal/app/entry"
)

func Test_Extract(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		expected string
		found    bool
	}{
		{
			name:     "ISO with microseconds and offset",
			line:     "2024-01-02T10:11:12.123456+01:00 Inf starting session",
			expected: "2024-01-02T10:11:12.123456+01:00",
			found:    true,
		},
		{
			name:     "ISO with milliseconds and Z",
			line:     "prefix 2024-01-02T10:11:12.123Z suffix",
			expected: "2024-01-02T10:11:12.123Z",
			found:    true,
		},
		{
			name:     "ISO without fraction",
			line:     "2024-01-02T10:11:12Z plain",
			expected: "2024-01-02T10:11:12Z",
			found:    true,
		},
		{
			name:     "Web style timestamp",
			line:     "Tue Jan 02 2024 10:11:12 GMT+0000 renderer ready",
			expected: "2024-01-02T10:11:12Z",
			found:    true,
		},
		{
			name:  "No timestamp",
			line:  "just a log line without any time",
			found: false,
		},
		{
			name:  "Almost a timestamp",
			line:  "2024-01-02 10:11:12 space separated is not recognized",
			found: false,
		},
		{
			name:  "Empty line",
			line:  "",
			found: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := Extract(tt.line)

			assert.Equal(t, tt.found, found)

			if tt.found {
				want, err := time.Parse(time.RFC3339Nano, tt.expected)
				assert.NoError(t, err)
				assert.True(t, got.Equal(want), "got %v, want %v", got, want)
			} else {
				assert.True(t, got.Equal(entry.UnknownTime))
			}
		})
	}
}

func Test_Extract_Deterministic(t *testing.T) {
	line := "2024-01-02T10:11:12.123Z Err something failed"

	first, ok1 := Extract(line)
	second, ok2 := Extract(line)

	assert.True(t, ok1)
	assert.True(t, ok2)
	assert.True(t, first.Equal(second))
}

func Test_Strip(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		expected string
	}{
		{
			name:     "Removes ISO timestamp",
			line:     "2024-01-02T10:11:12.123Z Inf ready",
			expected: " Inf ready",
		},
		{
			name:     "Removes multiple timestamps",
			line:     "2024-01-02T10:11:12Z until 2024-01-02T10:11:13Z",
			expected: " until ",
		},
		{
			name:     "Leaves plain text alone",
			line:     "no timestamps here",
			expected: "no timestamps here",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Strip(tt.line))
		})
	}
}

func Test_FromFilename(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		expected string
		found    bool
	}{
		{
			name:     "Timestamped log file",
			path:     "logs/Auth_2024-01-01_10-00-00.log",
			expected: "2024-01-01T10:00:00Z",
			found:    true,
		},
		{
			name:     "Nested path",
			path:     "/ws/app/Calling_2023-12-31_23-59-59.txt",
			expected: "2023-12-31T23:59:59Z",
			found:    true,
		},
		{
			name:  "No timestamp in name",
			path:  "logs/Auth.log",
			found: false,
		},
		{
			name:  "Malformed timestamp",
			path:  "logs/Auth_2024-13-99_10-00-00.log",
			found: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := FromFilename(tt.path)

			assert.Equal(t, tt.found, found)

			if tt.found {
				want, err := time.Parse(time.RFC3339, tt.expected)
				assert.NoError(t, err)
				assert.True(t, got.Equal(want))
			}
		})
	}
}
