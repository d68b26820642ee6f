package summary

import (
	"io"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loglens/internal/config"
	"loglens/internal/config/logger"
)

func testLogger() logger.Logger {
	cfg := config.DefaultConfig()
	cfg.Logging.Format = logger.JSONFormat

	return logger.NewLoggerWithOutput(cfg, io.Discard)
}

func Test_Scrape_FullMetadata(t *testing.T) {
	fs := afero.NewMemMapFs()

	content := `Some preamble line
Session Id: 11111111-2222-3333-4444-555555555555
Device Id: device-42
Host Version: 1.6.00.123
Web Version: 49/24010100500
Language: en-us
Ring: ring3
Account: upn=alice@example.com name=Alice Liddell tenantId=t-1 oid=o-1 userId=u-1
Account: upn=bob@example.com name=Bob tenantId=t-2 oid=o-2 userId=u-2
`
	require.NoError(t, afero.WriteFile(fs, "ws/metadata.txt", []byte(content), 0644))

	cfg := config.DefaultConfig()
	cfg.Summary = "ws/metadata.txt"

	s := NewScraperWithFs(fs, cfg, testLogger())

	result, err := s.Scrape()
	require.NoError(t, err)

	assert.Equal(t, "11111111-2222-3333-4444-555555555555", result.SessionID)
	assert.Equal(t, "device-42", result.DeviceID)
	assert.Equal(t, "1.6.00.123", result.HostVersion)
	assert.Equal(t, "49/24010100500", result.WebVersion)
	assert.Equal(t, "en-us", result.Language)
	assert.Equal(t, "ring3", result.Ring)

	require.Len(t, result.Users, 2)
	assert.Equal(t, "alice@example.com", result.Users[0].UPN)
	assert.Equal(t, "Alice Liddell", result.Users[0].Name)
	assert.Equal(t, "t-1", result.Users[0].TenantID)
	assert.Equal(t, "u-2", result.Users[1].UserID)
}

func Test_Scrape_FirstMatchWins(t *testing.T) {
	fs := afero.NewMemMapFs()

	content := "Session Id: first\nSession Id: second\n"
	require.NoError(t, afero.WriteFile(fs, "ws/metadata.txt", []byte(content), 0644))

	cfg := config.DefaultConfig()
	cfg.Summary = "ws/metadata.txt"

	s := NewScraperWithFs(fs, cfg, testLogger())

	result, err := s.Scrape()
	require.NoError(t, err)
	assert.Equal(t, "first", result.SessionID)
}

func Test_Scrape_MissingFile(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Summary = "ws/does-not-exist.txt"

	s := NewScraperWithFs(afero.NewMemMapFs(), cfg, testLogger())

	result, err := s.Scrape()
	require.NoError(t, err)
	assert.Equal(t, Summary{}, result)
}

func Test_Scrape_UnconfiguredPath(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Summary = ""

	s := NewScraperWithFs(afero.NewMemMapFs(), cfg, testLogger())

	result, err := s.Scrape()
	require.NoError(t, err)
	assert.Equal(t, Summary{}, result)
}
