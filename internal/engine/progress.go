package engine

import (
	"log/slog"

	"github.com/myrjola/gumshoe/internal/casefile"
	"github.com/myrjola/gumshoe/internal/errors"
)

// ErrProgressMismatch is returned when saved progress does not belong to the bundle it is restored with.
var ErrProgressMismatch = errors.NewSentinel("progress does not fit case")

// Progress is the serialisable part of a [Session]. It is gob encoded into the web session store.
type Progress struct {
	CaseID   string
	State    State
	Evidence map[string]string
	Events   []string
	Dialogue Dialogue
}

// Progress captures the session so that it can be restored with [Restore].
func (s *Session) Progress() Progress {
	return Progress{
		CaseID:   s.bundle.ID(),
		State:    s.State(),
		Evidence: s.Evidence(),
		Events:   append([]string(nil), s.events...),
		Dialogue: s.dialogue,
	}
}

// Restore rebuilds a session of bundle from progress saved earlier.
func Restore(bundle *casefile.Bundle, progress Progress) (*Session, error) {
	if progress.CaseID != bundle.ID() {
		return nil, errors.Wrap(ErrProgressMismatch, "case id differs",
			slog.String("progress_case_id", progress.CaseID), slog.String("case_id", bundle.ID()))
	}
	state := progress.State
	route := bundle.Case.Route
	if state.RouteIndex < 0 || state.RouteIndex >= len(route) || route[state.RouteIndex] != state.CurrentLocationID {
		return nil, errors.Wrap(ErrProgressMismatch, "location is not on the route",
			slog.Int("route_index", state.RouteIndex), slog.String("location_id", state.CurrentLocationID))
	}
	switch state.Status {
	case StatusPlaying, StatusWon, StatusLost, StatusTimeout:
	default:
		return nil, errors.Wrap(ErrProgressMismatch, "unknown status", slog.String("status", string(state.Status)))
	}
	if state.UsedActions == nil {
		state.UsedActions = make(map[string]map[string]bool)
	}

	s := &Session{
		bundle:   bundle,
		state:    state,
		evidence: make(map[string]string, len(progress.Evidence)),
		events:   progress.Events,
		dialogue: progress.Dialogue,
	}
	for fieldID, value := range progress.Evidence {
		if _, ok := bundle.Field(fieldID); ok && value != "" {
			s.evidence[fieldID] = value
		}
	}
	if len(s.events) > maxEvents {
		s.events = s.events[:maxEvents]
	}
	return s, nil
}
