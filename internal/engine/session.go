// Package engine is the case state machine. A [Session] owns the [State] of one active case and applies player
// commands to it one at a time. Every command returns a [Result] describing what happened instead of failing:
// rule violations are [Rejection] values and terminal outcomes are statuses, never errors.
//
// A Session is not safe for concurrent use. Drivers serialize the commands of one player.
package engine

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/myrjola/gumshoe/internal/casefile"
)

type Status string

const (
	StatusPlaying Status = "playing"
	StatusWon     Status = "won"
	StatusLost    Status = "lost"
	StatusTimeout Status = "timeout"
)

// Rejection explains why a command was not applied. Rejected commands never mutate state or spend time.
type Rejection string

const (
	RejectionNone            Rejection = ""
	RejectionNotPlaying      Rejection = "not playing"
	RejectionNoSuchAction    Rejection = "no such action"
	RejectionAlreadyUsed     Rejection = "already used"
	RejectionNoFlights       Rejection = "no flights"
	RejectionNoSuchFlight    Rejection = "no such flight"
	RejectionNotAtFinalStop  Rejection = "not yet at final destination"
	RejectionInvalidEvidence Rejection = "invalid evidence"
)

// WarrantOutcome is the verdict of a warrant check.
type WarrantOutcome string

const (
	WarrantNotChecked   WarrantOutcome = ""
	WarrantInsufficient WarrantOutcome = "insufficient data"
	WarrantIssued       WarrantOutcome = "issued"
	WarrantAmbiguous    WarrantOutcome = "ambiguous"
	WarrantNoMatch      WarrantOutcome = "no compatible suspect"
)

const (
	defaultActionHours  = 2
	defaultTravelHours  = 5
	defaultWarrantHours = 2
	defaultCaptureHours = 1

	// maxEvents is how many event log lines a session retains.
	maxEvents = 60

	warrantCostKey = "warrant"
	captureCostKey = "capture"
)

// Warrant is recomputed wholesale on every warrant check.
type Warrant struct {
	Issued      bool   `json:"issued"`
	SuspectID   string `json:"suspectId"`
	SuspectName string `json:"suspectName"`
}

// State is the mutable game state of one case.
type State struct {
	Status         Status
	HoursRemaining int
	// RouteIndex is the position in the route and never decreases.
	RouteIndex        int
	CurrentLocationID string
	// UsedActions maps location IDs to the action IDs already performed there.
	UsedActions map[string]map[string]bool
	// IdentityFindings is append-only, oldest first.
	IdentityFindings    []string
	LastDestinationHint string
	Warrant             Warrant
}

// Dialogue is a line shown in the dialogue panel and optionally spoken.
type Dialogue struct {
	ID      string `json:"id"`
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
	Image   string `json:"image"`
}

// Result describes the effect of one command.
type Result struct {
	// Accepted is false when the command was rejected without touching the state.
	Accepted  bool
	Rejection Rejection
	// Dialogues are the dialogues emitted by the command in order.
	Dialogues []Dialogue
	// Events are the event log lines appended by the command, oldest first.
	Events []string
	Status Status
	// Warrant is set by warrant checks that got past the time deduction.
	Warrant WarrantOutcome
}

// Session is the context of one active case: the loaded bundle, its state, the evidence selection, the event log
// and the dialogue panel.
type Session struct {
	bundle   *casefile.Bundle
	state    State
	evidence map[string]string
	// events is newest first.
	events   []string
	dialogue Dialogue
}

// Start begins the case of bundle with fresh state. Nothing carries over from an earlier session.
func Start(bundle *casefile.Bundle) (*Session, Result) {
	caseDef := bundle.Case
	s := &Session{
		bundle: bundle,
		state: State{
			Status:              StatusPlaying,
			HoursRemaining:      caseDef.Settings.DeadlineHours,
			RouteIndex:          0,
			CurrentLocationID:   caseDef.Route[0],
			UsedActions:         make(map[string]map[string]bool, len(caseDef.Locations)),
			IdentityFindings:    nil,
			LastDestinationHint: "",
			Warrant:             Warrant{Issued: false, SuspectID: "", SuspectName: ""},
		},
		evidence: make(map[string]string),
		events:   nil,
		dialogue: Dialogue{ID: "", Speaker: "", Text: "", Image: ""},
	}
	for _, location := range caseDef.Locations {
		s.state.UsedActions[location.ID] = make(map[string]bool, len(location.Actions))
	}

	r := s.begin()
	s.say(r, caseDef.Briefing.Speaker, caseDef.Briefing.Text, caseDef.Briefing.Image)
	s.log(r, fmt.Sprintf("Case started: %s", caseDef.Title))
	return s, s.end(r)
}

// Bundle is the case being played.
func (s *Session) Bundle() *casefile.Bundle {
	return s.bundle
}

// State returns a copy of the game state.
func (s *Session) State() State {
	state := s.state
	state.UsedActions = make(map[string]map[string]bool, len(s.state.UsedActions))
	for locationID, used := range s.state.UsedActions {
		usedCopy := make(map[string]bool, len(used))
		for actionID, ok := range used {
			usedCopy[actionID] = ok
		}
		state.UsedActions[locationID] = usedCopy
	}
	state.IdentityFindings = append([]string(nil), s.state.IdentityFindings...)
	return state
}

// Evidence returns a copy of the current evidence selection keyed by field ID.
func (s *Session) Evidence() map[string]string {
	evidence := make(map[string]string, len(s.evidence))
	for fieldID, value := range s.evidence {
		evidence[fieldID] = value
	}
	return evidence
}

// Dialogue is the dialogue currently on display.
func (s *Session) Dialogue() Dialogue {
	return s.dialogue
}

func (s *Session) playing() bool {
	return s.state.Status == StatusPlaying
}

func (s *Session) atFinalStop() bool {
	return s.state.RouteIndex == s.bundle.FinalStop()
}

// begin starts collecting the effects of a command.
func (s *Session) begin() *Result {
	return &Result{
		Accepted:  true,
		Rejection: RejectionNone,
		Dialogues: nil,
		Events:    nil,
		Status:    s.state.Status,
		Warrant:   WarrantNotChecked,
	}
}

func (s *Session) end(r *Result) Result {
	r.Status = s.state.Status
	return *r
}

// reject ends a command without touching the state. The explanation, if any, goes to the event log.
func (s *Session) reject(r *Result, rejection Rejection, explanation string) Result {
	r.Accepted = false
	r.Rejection = rejection
	if explanation != "" {
		s.log(r, explanation)
	}
	return s.end(r)
}

func (s *Session) log(r *Result, text string) {
	r.Events = append(r.Events, text)
	s.events = append([]string{text}, s.events...)
	if len(s.events) > maxEvents {
		s.events = s.events[:maxEvents]
	}
}

func (s *Session) say(r *Result, speaker, text, image string) {
	d := Dialogue{
		ID:      uuid.NewString(),
		Speaker: speaker,
		Text:    text,
		Image:   image,
	}
	if d.Image == "" {
		d.Image = s.dialogue.Image
	}
	s.dialogue = d
	r.Dialogues = append(r.Dialogues, d)
}

// cost returns the configured hour cost of key. A configured zero is a valid cost.
func (s *Session) cost(key string, fallback int) int {
	if hours, ok := s.bundle.Case.Settings.ActionCosts[key]; ok {
		return hours
	}
	return fallback
}

// spendHours deducts hours and times the case out once the deadline is reached.
func (s *Session) spendHours(r *Result, hours int, reason string) {
	s.state.HoursRemaining -= hours
	s.log(r, fmt.Sprintf("%s: -%dh.", reason, hours))

	if s.state.HoursRemaining <= 0 && s.playing() {
		s.state.HoursRemaining = 0
		s.finish(r, StatusTimeout, s.bundle.Case.Ending.TimeoutText)
	}
}

// finish moves the case into a terminal status. Nothing leaves a terminal status.
func (s *Session) finish(r *Result, status Status, text string) {
	s.state.Status = status
	s.say(r, "System", text, s.bundle.Case.UI.CaptureImage)
	s.log(r, text)
}
