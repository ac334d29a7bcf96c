package engine

import (
	"fmt"
	"sort"
)

// standardActions are offered at every location, in this order, before any location specific actions.
var standardActions = []struct {
	id    string
	label string
}{
	{id: "witness", label: "Question witness"},
	{id: "search", label: "Search the area"},
	{id: "crimenet", label: "Consult CrimeNet"},
}

// Snapshot is everything a driver needs to render the case.
type Snapshot struct {
	CaseID          string `json:"caseId"`
	CaseTitle       string `json:"caseTitle"`
	BackgroundImage string `json:"backgroundImage"`

	Status         Status `json:"status"`
	StatusText     string `json:"statusText"`
	HoursRemaining int    `json:"hoursRemaining"`
	TimeLeft       string `json:"timeLeft"`

	LocationID          string `json:"locationId"`
	LocationLabel       string `json:"locationLabel"`
	LocationDescription string `json:"locationDescription"`
	LocationImage       string `json:"locationImage"`
	RouteIndex          int    `json:"routeIndex"`
	RouteStop           int    `json:"routeStop"`
	RouteLength         int    `json:"routeLength"`
	AtFinalStop         bool   `json:"atFinalStop"`

	WarrantLabel string  `json:"warrantLabel"`
	Warrant      Warrant `json:"warrant"`

	Actions        []ActionControl `json:"actions"`
	TravelEnabled  bool            `json:"travelEnabled"`
	WarrantEnabled bool            `json:"warrantEnabled"`
	CaptureEnabled bool            `json:"captureEnabled"`

	// Events is newest first.
	Events []string `json:"events"`
	// Findings is newest first.
	Findings []string      `json:"findings"`
	Dialogue Dialogue      `json:"dialogue"`
	Evidence []EvidenceRow `json:"evidence"`
}

type ActionControl struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	Enabled bool   `json:"enabled"`
	Used    bool   `json:"used"`
}

// EvidenceRow is one selector of the evidence form.
type EvidenceRow struct {
	FieldID  string   `json:"fieldId"`
	Label    string   `json:"label"`
	Options  []string `json:"options"`
	Selected string   `json:"selected"`
}

// Snapshot captures the current session for rendering.
func (s *Session) Snapshot() Snapshot {
	location := s.currentLocation()
	playing := s.playing()
	caseDef := s.bundle.Case

	snapshot := Snapshot{
		CaseID:              s.bundle.ID(),
		CaseTitle:           caseDef.Title,
		BackgroundImage:     caseDef.UI.BackgroundImage,
		Status:              s.state.Status,
		StatusText:          StatusText(s.state.Status),
		HoursRemaining:      s.state.HoursRemaining,
		TimeLeft:            FormatHours(s.state.HoursRemaining),
		LocationID:          location.ID,
		LocationLabel:       location.Label(),
		LocationDescription: location.Description,
		LocationImage:       s.locationImage(location),
		RouteIndex:          s.state.RouteIndex,
		RouteStop:           s.state.RouteIndex + 1,
		RouteLength:         len(caseDef.Route),
		AtFinalStop:         s.atFinalStop(),
		WarrantLabel:        "Not issued",
		Warrant:             s.state.Warrant,
		Actions:             nil,
		TravelEnabled:       playing && len(location.TravelOptions) > 0,
		WarrantEnabled:      playing,
		CaptureEnabled:      playing && s.atFinalStop(),
		Events:              append([]string(nil), s.events...),
		Findings:            make([]string, 0, len(s.state.IdentityFindings)),
		Dialogue:            s.dialogue,
		Evidence:            make([]EvidenceRow, 0, len(s.bundle.Suspects.Fields)),
	}
	if s.state.Warrant.Issued {
		snapshot.WarrantLabel = "Issued for " + s.state.Warrant.SuspectName
	}

	used := s.state.UsedActions[location.ID]
	for _, standard := range standardActions {
		snapshot.Actions = append(snapshot.Actions, ActionControl{
			ID:      standard.id,
			Label:   standard.label,
			Enabled: playing && !used[standard.id],
			Used:    used[standard.id],
		})
	}
	var extra []string
	for actionID := range location.Actions {
		if !isStandardAction(actionID) {
			extra = append(extra, actionID)
		}
	}
	sort.Strings(extra)
	for _, actionID := range extra {
		snapshot.Actions = append(snapshot.Actions, ActionControl{
			ID:      actionID,
			Label:   actionID,
			Enabled: playing && !used[actionID],
			Used:    used[actionID],
		})
	}

	for i := len(s.state.IdentityFindings) - 1; i >= 0; i-- {
		snapshot.Findings = append(snapshot.Findings, s.state.IdentityFindings[i])
	}

	for _, field := range s.bundle.Suspects.Fields {
		snapshot.Evidence = append(snapshot.Evidence, EvidenceRow{
			FieldID:  field.ID,
			Label:    field.Label,
			Options:  field.Options,
			Selected: s.evidence[field.ID],
		})
	}

	return snapshot
}

func isStandardAction(actionID string) bool {
	for _, standard := range standardActions {
		if standard.id == actionID {
			return true
		}
	}
	return false
}

// StatusText is the player facing name of status.
func StatusText(status Status) string {
	switch status {
	case StatusPlaying:
		return "Investigating"
	case StatusWon:
		return "Case solved"
	case StatusTimeout:
		return "Deadline expired"
	case StatusLost:
		return "Case failed"
	default:
		return "Case failed"
	}
}

// FormatHours renders hours as days and hours, e.g. 46 becomes "1d 22h".
func FormatHours(hours int) string {
	return fmt.Sprintf("%dd %dh", hours/24, hours%24) //nolint:mnd // hours per day.
}
