package host

import (
	"sync"

	"github.com/spf13/afero"

	"loglens/internal/app/aggregator"
	"loglens/internal/app/discovery"
	"loglens/internal/app/entry"
	"loglens/internal/app/filter"
	"loglens/internal/app/highlight"
	"loglens/internal/app/protocol"
	"loglens/internal/app/regen"
	"loglens/internal/app/summary"
	"loglens/internal/config"
	"loglens/internal/config/logger"
)

// Service owns the filter state and drives document regeneration. It is
// the only component that mutates the state; every mutation arrives as
// a protocol command from an attached panel channel.
type Service interface {
	Attach(ch protocol.Channel) func()
	Schedule(reason string)
	Document() *aggregator.Document
	ActiveFilters() int
	Close()
}

// service implements the Service interface
type service struct {
	cfg        *config.Config
	log        logger.Logger
	fs         afero.Fs
	disc       discovery.Discovery
	scraper    summary.Scraper
	highlights highlight.Store
	manager    regen.Manager

	mu       sync.Mutex
	state    *filter.State
	settings aggregator.DisplaySettings
	doc      *aggregator.Document
	channels map[int]protocol.Channel
	nextCh   int
}

// New creates the host service writing the document to the OS filesystem
func New(cfg *config.Config, log logger.Logger, disc discovery.Discovery, gen aggregator.Generator, scraper summary.Scraper, highlights highlight.Store) Service {
	return NewWithFs(afero.NewOsFs(), cfg, log, disc, gen, scraper, highlights)
}

// NewWithFs creates the host service over an explicit filesystem
func NewWithFs(fs afero.Fs, cfg *config.Config, log logger.Logger, disc discovery.Discovery, gen aggregator.Generator, scraper summary.Scraper, highlights highlight.Store) Service {
	s := &service{
		cfg:        cfg,
		log:        log.WithComponent("HOST"),
		fs:         fs,
		disc:       disc,
		scraper:    scraper,
		highlights: highlights,
		state:      filter.NewState(cfg.Session.Window),
		settings: aggregator.DisplaySettings{
			Emoji:             cfg.Display.Emoji,
			RedactIdentifiers: cfg.Display.RedactIdentifiers,
		},
		channels: make(map[int]protocol.Channel),
	}

	s.manager = regen.NewManager(gen, cfg, log, s.snapshot, s.commit)

	return s
}

// Schedule requests a regeneration
func (s *service) Schedule(reason string) {
	s.manager.Schedule(reason)
}

// Document returns the most recently committed document
func (s *service) Document() *aggregator.Document {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.doc
}

// ActiveFilters returns the current active filter count
func (s *service) ActiveFilters() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state.ActiveCount()
}

// Close drains the regeneration manager
func (s *service) Close() {
	s.manager.Close()
}

// Attach registers one handler per command of the closed set on the
// given channel and returns a detach function.
func (s *service) Attach(ch protocol.Channel) func() {
	s.mu.Lock()
	s.nextCh++
	chID := s.nextCh
	s.channels[chID] = ch
	s.mu.Unlock()

	handlers := map[protocol.Command]protocol.Handler{
		protocol.CommandFilterLogLevel:    s.onFilterLogLevel,
		protocol.CommandFilterTime:        s.onFilterTime,
		protocol.CommandFilterSessionID:   s.onFilterSessionID,
		protocol.CommandFilterNoEventTime: s.onFilterNoEventTime,
		protocol.CommandKeywordCheckbox:   s.onKeywordCheckbox,
		protocol.CommandFileCheckbox:      s.onFileCheckbox,
		protocol.CommandDisplaySettings:   s.onDisplaySettings,
		protocol.CommandGetSummary:        s.onGetSummary,
		protocol.CommandKeywordHighlight:  s.onKeywordHighlight,
		protocol.CommandOpenFile:          s.onOpenFile,
		protocol.CommandJumpToRow:         s.onJumpToRow,
		protocol.CommandOpenSearchWindows: s.onOpenSearchWindows,
		protocol.CommandWebviewReady:      s.onWebviewReady,
		protocol.CommandLogMessage:        s.onLogMessage,
		protocol.CommandLogErrorMessage:   s.onLogErrorMessage,
	}

	unsubscribes := make([]func(), 0, len(handlers))
	for cmd, h := range handlers {
		unsubscribes = append(unsubscribes, ch.RegisterMessageHandler(cmd, h))
	}

	return func() {
		for _, unsubscribe := range unsubscribes {
			unsubscribe()
		}

		s.mu.Lock()
		delete(s.channels, chID)
		s.mu.Unlock()
	}
}

// snapshot rebuilds the file groups and captures the current filter
// state for one generation pass.
func (s *service) snapshot() regen.Snapshot {
	groups, err := s.disc.Discover()
	if err != nil {
		s.log.Error().Err(err).Msg("File discovery failed")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return regen.Snapshot{
		Groups:   groups,
		State:    s.state,
		Settings: s.settings,
	}
}

// commit publishes a freshly generated document
func (s *service) commit(doc *aggregator.Document, version uint64) {
	s.mu.Lock()
	s.doc = doc
	s.mu.Unlock()

	if s.cfg.Output != "" {
		if err := afero.WriteFile(s.fs, s.cfg.Output, []byte(doc.Text), 0644); err != nil {
			s.log.Warn().Err(err).Msgf("Failed to write document: %s", s.cfg.Output)
		}
	}

	s.log.Info().Uint64("version", version).Int("entries", len(doc.Entries)).Msg("Document committed")

	s.broadcast(protocol.CommandFileStatsChanged, fileStatsPayload(doc))
}

// applyEvents runs filter mutations in order. A failing mutation leaves
// its dimension unchanged and is logged; later mutations still run.
func (s *service) applyEvents(events ...filter.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, ev := range events {
		next, err := filter.Apply(s.state, ev)
		if err != nil {
			s.log.Error().Err(err).Msgf("Rejected filter mutation: %s", ev.Type)
			continue
		}

		s.state = next
	}
}

// afterFilterChange acknowledges the command, pushes the new active
// filter count and schedules a regeneration.
func (s *service) afterFilterChange(msg protocol.Inbound) {
	if err := msg.Respond(protocol.CommandMessageAck, nil); err != nil {
		s.log.Debug().Err(err).Msg("Failed to acknowledge command")
	}

	s.broadcast(protocol.CommandActiveFiltersChanged, protocol.ActiveFiltersPayload{Count: s.ActiveFilters()})
	s.manager.Schedule(string(msg.Command))
}

func (s *service) onFilterLogLevel(msg protocol.Inbound) {
	p := msg.Payload.(protocol.FilterLogLevelPayload)

	level, ok := entry.ParseLevel(p.Level)
	if !ok {
		s.log.Error().Msgf("Rejected unknown log level: %q", p.Level)
		return
	}

	s.applyEvents(filter.Event{Type: filter.EventSetLevel, Level: level, Enabled: p.Checked})
	s.afterFilterChange(msg)
}

func (s *service) onFilterTime(msg protocol.Inbound) {
	p := msg.Payload.(protocol.FilterTimePayload)

	s.applyEvents(
		filter.Event{Type: filter.EventSetFrom, Value: p.From},
		filter.Event{Type: filter.EventSetTill, Value: p.Till},
	)
	s.afterFilterChange(msg)
}

func (s *service) onFilterSessionID(msg protocol.Inbound) {
	p := msg.Payload.(protocol.FilterSessionIDPayload)

	if p.Remove {
		s.applyEvents(filter.Event{Type: filter.EventClearSession})
	} else {
		s.applyEvents(filter.Event{Type: filter.EventSetSession, Value: p.SessionID})
	}

	s.afterFilterChange(msg)
}

func (s *service) onFilterNoEventTime(msg protocol.Inbound) {
	p := msg.Payload.(protocol.FilterNoEventTimePayload)

	s.applyEvents(filter.Event{Type: filter.EventSetDropNoTime, Enabled: p.Checked})
	s.afterFilterChange(msg)
}

func (s *service) onKeywordCheckbox(msg protocol.Inbound) {
	p := msg.Payload.(protocol.KeywordCheckboxPayload)

	if p.Remove {
		s.applyEvents(filter.Event{Type: filter.EventRemoveKeyword, Keyword: p.Keyword})
	} else {
		s.applyEvents(filter.Event{Type: filter.EventToggleKeyword, Keyword: p.Keyword, Enabled: p.Checked})
	}

	s.afterFilterChange(msg)
}

func (s *service) onFileCheckbox(msg protocol.Inbound) {
	p := msg.Payload.(protocol.FileCheckboxPayload)

	s.applyEvents(filter.Event{Type: filter.EventSetFileEnabled, File: p.File, Enabled: p.Checked})
	s.afterFilterChange(msg)
}

func (s *service) onDisplaySettings(msg protocol.Inbound) {
	p := msg.Payload.(protocol.DisplaySettingsPayload)

	s.mu.Lock()
	s.settings = aggregator.DisplaySettings{
		Emoji:             p.Emoji,
		RedactIdentifiers: p.RedactIdentifiers,
	}
	s.mu.Unlock()

	if err := msg.Respond(protocol.CommandMessageAck, nil); err != nil {
		s.log.Debug().Err(err).Msg("Failed to acknowledge command")
	}

	s.manager.Schedule(string(msg.Command))
}

func (s *service) onGetSummary(msg protocol.Inbound) {
	result, err := s.scraper.Scrape()
	if err != nil {
		s.log.Error().Err(err).Msg("Summary scrape failed")
	}

	if err := msg.Respond(protocol.CommandGetSummaryResponse, summaryPayload(result)); err != nil {
		s.log.Debug().Err(err).Msg("Failed to send summary response")
	}
}

func (s *service) onKeywordHighlight(msg protocol.Inbound) {
	p := msg.Payload.(protocol.KeywordHighlightPayload)

	var err error

	switch {
	case p.Remove && p.ID != "":
		err = s.highlights.Remove(p.ID)
	case p.ID != "":
		err = s.highlights.Toggle(p.ID, p.Checked)
	default:
		_, err = s.highlights.Upsert(p.Keyword, p.Color, p.Checked)
	}

	if err != nil {
		s.log.Error().Err(err).Msg("Highlight mutation failed")
	}

	if err := msg.Respond(protocol.CommandMessageAck, nil); err != nil {
		s.log.Debug().Err(err).Msg("Failed to acknowledge command")
	}
}

// openFile and jumpToRow act on the editor, which is an external
// collaborator; the host records and acknowledges them.
func (s *service) onOpenFile(msg protocol.Inbound) {
	p := msg.Payload.(protocol.OpenFilePayload)

	s.log.Info().Msgf("Open file requested: %s", p.Path)
	s.ack(msg)
}

func (s *service) onJumpToRow(msg protocol.Inbound) {
	p := msg.Payload.(protocol.JumpToRowPayload)

	s.log.Info().Msgf("Jump to row requested: %d", p.Row)
	s.ack(msg)
}

func (s *service) onOpenSearchWindows(msg protocol.Inbound) {
	s.log.Info().Msg("Search window requested")
	s.ack(msg)
}

// onWebviewReady replays the current state to a freshly loaded panel
func (s *service) onWebviewReady(msg protocol.Inbound) {
	s.ack(msg)

	s.broadcast(protocol.CommandActiveFiltersChanged, protocol.ActiveFiltersPayload{Count: s.ActiveFilters()})

	if doc := s.Document(); doc != nil {
		s.broadcast(protocol.CommandFileStatsChanged, fileStatsPayload(doc))
	}

	s.manager.Schedule(string(msg.Command))
}

func (s *service) onLogMessage(msg protocol.Inbound) {
	p := msg.Payload.(protocol.LogMessagePayload)
	s.log.Info().Msgf("panel: %s", p.Message)
}

func (s *service) onLogErrorMessage(msg protocol.Inbound) {
	p := msg.Payload.(protocol.LogMessagePayload)
	s.log.Error().Msgf("panel: %s", p.Message)
}

func (s *service) ack(msg protocol.Inbound) {
	if err := msg.Respond(protocol.CommandMessageAck, nil); err != nil {
		s.log.Debug().Err(err).Msg("Failed to acknowledge command")
	}
}

// broadcast sends a notification to every attached channel
func (s *service) broadcast(cmd protocol.Command, payload interface{}) {
	s.mu.Lock()
	targets := make([]protocol.Channel, 0, len(s.channels))

	for _, ch := range s.channels {
		targets = append(targets, ch)
	}
	s.mu.Unlock()

	for _, ch := range targets {
		if _, err := ch.SendAndForget(cmd, payload); err != nil {
			s.log.Debug().Err(err).Msgf("Failed to broadcast %s", cmd)
		}
	}
}

// summaryPayload converts a scraped summary to its wire shape
func summaryPayload(result summary.Summary) protocol.SummaryPayload {
	users := make([]protocol.SummaryUser, 0, len(result.Users))
	for _, u := range result.Users {
		users = append(users, protocol.SummaryUser{
			UPN:      u.UPN,
			Name:     u.Name,
			TenantID: u.TenantID,
			OID:      u.OID,
			UserID:   u.UserID,
		})
	}

	return protocol.SummaryPayload{
		SessionID:   result.SessionID,
		DeviceID:    result.DeviceID,
		HostVersion: result.HostVersion,
		WebVersion:  result.WebVersion,
		Language:    result.Language,
		Ring:        result.Ring,
		Users:       users,
	}
}

// fileStatsPayload converts document stats to their wire shape
func fileStatsPayload(doc *aggregator.Document) protocol.FileStatsPayload {
	files := make([]protocol.FileStat, 0, len(doc.Stats))
	for _, stat := range doc.Stats {
		files = append(files, protocol.FileStat{
			Name:    stat.Name,
			Service: stat.Service,
			Entries: stat.Entries,
			Checked: stat.Enabled,
		})
	}

	return protocol.FileStatsPayload{Files: files}
}
