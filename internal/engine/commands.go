package engine

import (
	"fmt"
	"strings"

	"github.com/myrjola/gumshoe/internal/models"
)

// TravelChoice is a flight offered at the current location.
type TravelChoice struct {
	To    string
	Label string
	Hours int
}

// PerformAction runs the action actionID of the current location.
func (s *Session) PerformAction(actionID string) Result {
	r := s.begin()
	if !s.playing() {
		return s.reject(r, RejectionNotPlaying, "")
	}

	location := s.currentLocation()
	action, ok := location.Actions[actionID]
	if !ok {
		return s.reject(r, RejectionNoSuchAction, "Action not available at this location.")
	}
	if s.state.UsedActions[location.ID][actionID] {
		return s.reject(r, RejectionAlreadyUsed, "That action has already been used at this location.")
	}

	s.spendHours(r, s.cost(actionID, defaultActionHours), fmt.Sprintf("Action %s", actionID))
	if !s.playing() {
		return s.end(r)
	}

	s.markUsed(location.ID, actionID)
	speaker := action.Speaker
	if speaker == "" {
		speaker = "Contact"
	}
	s.say(r, speaker, action.Text, s.locationImage(location))
	s.log(r, fmt.Sprintf("[%s] %s: %s", location.Name, speaker, action.Text))

	for _, reveal := range action.Reveals {
		s.applyReveal(r, reveal)
	}
	return s.end(r)
}

func (s *Session) markUsed(locationID, actionID string) {
	used, ok := s.state.UsedActions[locationID]
	if !ok {
		used = make(map[string]bool)
		s.state.UsedActions[locationID] = used
	}
	used[actionID] = true
}

func (s *Session) applyReveal(r *Result, reveal models.Reveal) {
	switch reveal.Type {
	case models.RevealTypeDestination:
		hint := reveal.Value
		if location, ok := s.bundle.Location(reveal.Value); ok {
			hint = location.Label()
		}
		s.state.LastDestinationHint = hint
		s.log(r, fmt.Sprintf("Route clue (%s): %s", reveal.ClueType, hint))
	case models.RevealTypeIdentity:
		field, ok := s.bundle.Field(reveal.Field)
		if !ok {
			return
		}
		finding := fmt.Sprintf("%s: %s", field.Label, reveal.Value)
		s.state.IdentityFindings = append(s.state.IdentityFindings, finding)
		// The first reveal fills an empty selector. Later ones never overwrite it.
		if s.evidence[field.ID] == "" {
			s.evidence[field.ID] = reveal.Value
		}
		s.log(r, fmt.Sprintf("Identity clue: %s", finding))
	}
}

// TravelOptions lists the flights from the current location with a hint pointing at the latest route clue.
func (s *Session) TravelOptions() ([]TravelChoice, string, Result) {
	r := s.begin()
	if !s.playing() {
		return nil, "", s.reject(r, RejectionNotPlaying, "")
	}
	location := s.currentLocation()
	if len(location.TravelOptions) == 0 {
		return nil, "", s.reject(r, RejectionNoFlights, "No flights from this location.")
	}

	choices := make([]TravelChoice, 0, len(location.TravelOptions))
	for _, option := range location.TravelOptions {
		choices = append(choices, TravelChoice{
			To:    option.To,
			Label: option.Label,
			Hours: travelHours(option),
		})
	}
	hint := "No direct clue. Review your notes before flying."
	if s.state.LastDestinationHint != "" {
		hint = "Latest clue suggests: " + s.state.LastDestinationHint
	}
	return choices, hint, s.end(r)
}

func travelHours(option models.TravelOption) int {
	if option.Hours == 0 {
		return defaultTravelHours
	}
	return option.Hours
}

// Travel flies to destinationID, which must be one of the flights offered at the current location. Only the next
// stop of the route advances the case. Time spent on a wrong flight is lost.
func (s *Session) Travel(destinationID string) Result {
	r := s.begin()
	if !s.playing() {
		return s.reject(r, RejectionNotPlaying, "")
	}
	current := s.currentLocation()
	var (
		option models.TravelOption
		found  bool
	)
	for _, candidate := range current.TravelOptions {
		if candidate.To == destinationID {
			option, found = candidate, true
			break
		}
	}
	if !found {
		return s.reject(r, RejectionNoSuchFlight, "")
	}

	s.spendHours(r, travelHours(option), fmt.Sprintf("Flight to %s", option.Label))
	if !s.playing() {
		return s.end(r)
	}

	route := s.bundle.Case.Route
	if s.state.RouteIndex+1 < len(route) && option.To == route[s.state.RouteIndex+1] {
		s.state.RouteIndex++
		s.state.CurrentLocationID = option.To
		s.state.LastDestinationHint = ""

		destination := s.currentLocation()
		s.say(r, "Flight Control",
			fmt.Sprintf("Landing confirmed in %s. Continue the investigation.", destination.Name),
			s.bundle.Case.UI.TravelImage)
		s.log(r, fmt.Sprintf("Correct travel to %s.", destination.Name))
		if s.atFinalStop() {
			s.log(r, "You have reached the last stop on the route. Issue the warrant and attempt the capture.")
		}
		return s.end(r)
	}

	text := current.WrongTravelText
	if text == "" {
		text = "Trail lost. Wrong destination."
	}
	s.say(r, "Flight Control", text, s.bundle.Case.UI.TravelImage)
	s.log(r, fmt.Sprintf("Wrong destination: %s. Time lost.", option.Label))
	return s.end(r)
}

// IssueWarrant replaces the evidence selection with selected and checks it against the suspect database.
// A warrant needs at least two filled fields and exactly one matching suspect.
func (s *Session) IssueWarrant(selected map[string]string) Result {
	r := s.begin()
	if !s.playing() {
		return s.reject(r, RejectionNotPlaying, "")
	}
	s.evidence = s.filterEvidence(selected)

	s.spendHours(r, s.cost(warrantCostKey, defaultWarrantHours), "Warrant request")
	if !s.playing() {
		return s.end(r)
	}

	robotImage := s.bundle.Case.UI.WarrantImage
	s.state.Warrant = Warrant{Issued: false, SuspectID: "", SuspectName: ""}

	if len(s.evidence) < 2 { //nolint:mnd // a warrant needs two clues.
		r.Warrant = WarrantInsufficient
		s.say(r, "Warrant Robot", "Insufficient data. Collect more clues before issuing the warrant.", robotImage)
		s.log(r, "Warrant failed: fewer than 2 clues filled in.")
		return s.end(r)
	}

	matches := s.matchingSuspects()
	switch len(matches) {
	case 0:
		r.Warrant = WarrantNoMatch
		s.say(r, "Warrant Robot", "No compatible suspect found for this evidence.", robotImage)
		s.log(r, "Warrant without match.")
	case 1:
		r.Warrant = WarrantIssued
		s.state.Warrant = Warrant{Issued: true, SuspectID: matches[0].ID, SuspectName: matches[0].Name}
		s.say(r, "Warrant Robot", fmt.Sprintf("Warrant issued for %s.", matches[0].Name), robotImage)
		s.log(r, fmt.Sprintf("Warrant issued for %s.", matches[0].Name))
	default:
		r.Warrant = WarrantAmbiguous
		names := make([]string, 0, len(matches))
		for _, suspect := range matches {
			names = append(names, suspect.Name)
		}
		joined := strings.Join(names, ", ")
		s.say(r, "Warrant Robot", fmt.Sprintf("Ambiguous filter. Possible suspects: %s.", joined), robotImage)
		s.log(r, fmt.Sprintf("Ambiguous warrant: %s.", joined))
	}
	return s.end(r)
}

// matchingSuspects returns the suspects whose attributes equal every selected value. Unset fields do not
// constrain the match.
func (s *Session) matchingSuspects() []models.Suspect {
	var matches []models.Suspect
	for _, suspect := range s.bundle.Suspects.Suspects {
		match := true
		for fieldID, value := range s.evidence {
			if suspect.Attributes[fieldID] != value {
				match = false
				break
			}
		}
		if match {
			matches = append(matches, suspect)
		}
	}
	return matches
}

// filterEvidence keeps the values of known fields that the field allows.
func (s *Session) filterEvidence(selected map[string]string) map[string]string {
	evidence := make(map[string]string, len(selected))
	for fieldID, value := range selected {
		if value == "" {
			continue
		}
		field, ok := s.bundle.Field(fieldID)
		if !ok || !field.Allows(value) {
			continue
		}
		evidence[fieldID] = value
	}
	return evidence
}

// SetEvidence records a player edit of one evidence selector. An empty value clears it. Values outside the
// field's options are ignored. Editing evidence is not a timed command.
func (s *Session) SetEvidence(fieldID, value string) Result {
	r := s.begin()
	if !s.playing() {
		return s.reject(r, RejectionNotPlaying, "")
	}
	field, ok := s.bundle.Field(fieldID)
	if !ok {
		return s.reject(r, RejectionInvalidEvidence, "")
	}
	switch {
	case value == "":
		delete(s.evidence, fieldID)
	case field.Allows(value):
		s.evidence[fieldID] = value
	default:
		return s.reject(r, RejectionInvalidEvidence, "")
	}
	return s.end(r)
}

// AttemptCapture confronts the suspect at the final stop of the route. Only a warrant for the culprit wins.
func (s *Session) AttemptCapture() Result {
	r := s.begin()
	if !s.playing() {
		return s.reject(r, RejectionNotPlaying, "")
	}
	if !s.atFinalStop() {
		return s.reject(r, RejectionNotAtFinalStop, "You have not reached the last stop of the route yet.")
	}

	s.spendHours(r, s.cost(captureCostKey, defaultCaptureHours), "Capture attempt")
	if !s.playing() {
		return s.end(r)
	}

	ending := s.bundle.Case.Ending
	switch {
	case !s.state.Warrant.Issued:
		s.finish(r, StatusLost, ending.FailNoWarrantText)
	case s.state.Warrant.SuspectID != s.bundle.Case.SuspectID:
		s.finish(r, StatusLost, ending.FailWrongWarrantText)
	default:
		s.finish(r, StatusWon, ending.SuccessText)
	}
	return s.end(r)
}

func (s *Session) currentLocation() models.Location {
	location, _ := s.bundle.Location(s.state.CurrentLocationID)
	return location
}

func (s *Session) locationImage(location models.Location) string {
	if location.Image == "" {
		return s.bundle.Case.UI.FallbackLocationImage
	}
	return location.Image
}
