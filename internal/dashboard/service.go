package dashboard

import (
	"errors"
	"strings"
	"sync"

	"CryptoDash/internal/collector"
	"CryptoDash/internal/model"
	"CryptoDash/internal/notifier"
	"CryptoDash/internal/recorder"

	"go.uber.org/zap"
)

// Service runs user-triggered refreshes and caches the latest snapshot for
// display. Refreshes never overlap.
type Service struct {
	Collector *collector.Collector
	History   recorder.Recorder
	Depth     int

	logger    *zap.Logger
	refreshMu sync.Mutex

	mu      sync.RWMutex
	latest  *model.Snapshot
	lastErr error
}

// NewService creates a Service. depth is the number of prior quotes per
// symbol handed to the analyzer.
func NewService(col *collector.Collector, history recorder.Recorder, depth int, logger *zap.Logger) *Service {
	if history == nil {
		history = recorder.NewNoopRecorder()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{Collector: col, History: history, Depth: depth, logger: logger}
}

// Refresh runs one fetch -> analyze cycle against the recorded history and
// records the outcome.
func (s *Service) Refresh() (*model.Snapshot, error) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	prior, err := s.History.PriorQuotes(s.Depth)
	if err != nil {
		s.logger.Warn("load prior quotes failed, analyzing without history", zap.Error(err))
		prior = nil
	}

	snap, err := s.Collector.Refresh(prior)
	if err != nil {
		s.mu.Lock()
		s.lastErr = err
		s.mu.Unlock()
		return nil, err
	}

	if err := s.History.RecordSnapshot(snap); err != nil {
		s.logger.Error("record snapshot", zap.Error(err))
	}
	if err := s.History.RecordInsight(snap.CreatedAt, snap.Insight.Narrative); err != nil {
		s.logger.Error("record insight", zap.Error(err))
	}

	s.mu.Lock()
	s.latest = snap
	s.lastErr = nil
	s.mu.Unlock()
	return snap, nil
}

// Latest returns the last successful snapshot and the error of the most
// recent refresh, if it failed.
func (s *Service) Latest() (*model.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest, s.lastErr
}

// HandleCommand processes a chat command and returns a reply.
func (s *Service) HandleCommand(command string) string {
	var name string
	if fields := strings.Fields(command); len(fields) > 0 {
		name = strings.ToLower(fields[0])
	}
	switch name {
	case "/refresh", "/start":
		snap, err := s.Refresh()
		if err != nil {
			return notifier.FormatError(errors.New(UserMessage(err)))
		}
		return notifier.FormatReport(snap)
	case "/insight":
		snap, _ := s.Latest()
		if snap == nil {
			return "No refresh yet. Send /refresh first."
		}
		return snap.Insight.Narrative
	default:
		return "Commands:\n• /refresh - fetch and analyze the market now\n• /insight - repeat the latest insight"
	}
}

// UserMessage renders an error as a human-readable message.
func UserMessage(err error) string {
	var cfgErr *model.ConfigurationError
	var fetchErr *model.FetchError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &cfgErr):
		return "Configuration problem: " + cfgErr.Field + " " + cfgErr.Reason + "."
	case errors.As(err, &fetchErr) && fetchErr.Symbol == "":
		return "Could not fetch market data for any asset. Please try again later. (" + flatten(fetchErr.Err) + ")"
	default:
		return err.Error()
	}
}

func flatten(err error) string {
	if err == nil {
		return "unknown error"
	}
	return strings.ReplaceAll(err.Error(), "\n", "; ")
}
