package summary

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/spf13/afero"

	"loglens/internal/app/errors"
	"loglens/internal/config"
	"loglens/internal/config/logger"
)

// User is one signed-in account found in the metadata file
type User struct {
	UPN      string
	Name     string
	TenantID string
	OID      string
	UserID   string
}

// Summary holds the environment facts scraped from the workspace
// metadata file. An absent file yields the zero value.
type Summary struct {
	SessionID   string
	DeviceID    string
	HostVersion string
	WebVersion  string
	Language    string
	Ring        string
	Users       []User
}

// Scraper extracts the summary from the configured metadata file
type Scraper interface {
	Scrape() (Summary, error)
}

// scraper implements the Scraper interface
type scraper struct {
	fs  afero.Fs
	cfg *config.Config
	log logger.Logger
}

// NewScraper creates a scraper reading from the OS filesystem
func NewScraper(cfg *config.Config, log logger.Logger) Scraper {
	return NewScraperWithFs(afero.NewOsFs(), cfg, log)
}

// NewScraperWithFs creates a scraper over an explicit filesystem
func NewScraperWithFs(fs afero.Fs, cfg *config.Config, log logger.Logger) Scraper {
	return &scraper{
		fs:  fs,
		cfg: cfg,
		log: log.WithComponent("SUMMARY"),
	}
}

// scalar metadata lines, matched case-insensitively; first match wins
var scalarPatterns = map[string]*regexp.Regexp{
	"session": regexp.MustCompile(`(?i)Session Id\s*:\s*(\S+)`),
	"device":  regexp.MustCompile(`(?i)Device Id\s*:\s*(\S+)`),
	"host":    regexp.MustCompile(`(?i)Host Version\s*:\s*(\S+)`),
	"web":     regexp.MustCompile(`(?i)Web Version\s*:\s*(\S+)`),
	"lang":    regexp.MustCompile(`(?i)Language\s*:\s*(\S+)`),
	"ring":    regexp.MustCompile(`(?i)Ring\s*:\s*(\S+)`),
}

var userPattern = regexp.MustCompile(`upn=(\S*) name=(.*?) tenantId=(\S*) oid=(\S*) userId=(\S*)`)

// Scrape reads the metadata file and extracts every known record. A
// missing file is not an error; it simply yields an empty summary.
func (s *scraper) Scrape() (Summary, error) {
	var result Summary

	path := s.cfg.Summary
	if path == "" {
		return result, nil
	}

	exists, err := afero.Exists(s.fs, path)
	if err != nil || !exists {
		return result, nil
	}

	content, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return result, fmt.Errorf("%w: %v", errors.ErrFailedToReadSummary, err)
	}

	seen := make(map[string]bool, len(scalarPatterns))

	for _, line := range strings.Split(string(content), "\n") {
		for key, re := range scalarPatterns {
			if seen[key] {
				continue
			}

			if m := re.FindStringSubmatch(line); m != nil {
				seen[key] = true
				result.setScalar(key, m[1])
			}
		}

		if m := userPattern.FindStringSubmatch(line); m != nil {
			result.Users = append(result.Users, User{
				UPN:      m[1],
				Name:     m[2],
				TenantID: m[3],
				OID:      m[4],
				UserID:   m[5],
			})
		}
	}

	s.log.Debug().Msgf("Scraped summary from %s (%d users)", path, len(result.Users))

	return result, nil
}

func (s *Summary) setScalar(key, value string) {
	switch key {
	case "session":
		s.SessionID = value
	case "device":
		s.DeviceID = value
	case "host":
		s.HostVersion = value
	case "web":
		s.WebVersion = value
	case "lang":
		s.Language = value
	case "ring":
		s.Ring = value
	}
}
