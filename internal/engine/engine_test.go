package engine_test

import (
	"bytes"
	"encoding/gob"
	"testing"

	"github.com/myrjola/gumshoe/internal/casefile"
	"github.com/myrjola/gumshoe/internal/engine"
	"github.com/myrjola/gumshoe/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCase() models.Case {
	return models.Case{
		Title:        "Test Case",
		SuspectsData: "suspects.json",
		SuspectID:    "ann",
		Briefing:     models.Briefing{Speaker: "Chief", Text: "Find the thief.", Image: "chief.png"},
		Route:        []string{"a", "b", "c"},
		Locations: []models.Location{
			{
				ID:          "a",
				Name:        "Alpha",
				Country:     "Aland",
				Description: "Start.",
				Image:       "",
				Actions: map[string]models.Action{
					"witness": {
						Speaker: "Guard",
						Text:    "Saw red hair.",
						Reveals: []models.Reveal{
							{Type: models.RevealTypeIdentity, Field: "hair", Value: "Red", ClueType: ""},
							{Type: models.RevealTypeDestination, Value: "b", ClueType: "currency", Field: ""},
						},
					},
					"search": {
						Speaker: "",
						Text:    "Tracks of a van.",
						Reveals: []models.Reveal{
							{Type: models.RevealTypeIdentity, Field: "car", Value: "Van", ClueType: ""},
							{Type: "rumour", Value: "ignored", Field: "", ClueType: ""},
							{Type: models.RevealTypeIdentity, Field: "shoe", Value: "42", ClueType: ""},
						},
					},
					"crimenet": {
						Speaker: "CrimeNet",
						Text:    "Dark hair reported.",
						Reveals: []models.Reveal{
							{Type: models.RevealTypeIdentity, Field: "hair", Value: "Black", ClueType: ""},
							{Type: models.RevealTypeDestination, Value: "atlantis", ClueType: "rumour", Field: ""},
						},
					},
					"dig": {Speaker: "Digger", Text: "Nothing here.", Reveals: nil},
				},
				TravelOptions: []models.TravelOption{
					{To: "b", Label: "Beta", Hours: 0},
					{To: "x", Label: "Xland", Hours: 5},
				},
				WrongTravelText: "",
			},
			{
				ID:      "b",
				Name:    "Beta",
				Country: "Bland",
				Image:   "beta.png",
				Actions: map[string]models.Action{
					"witness": {Speaker: "Pilot", Text: "Headed to Gamma.", Reveals: []models.Reveal{
						{Type: models.RevealTypeDestination, Value: "c", ClueType: "language", Field: ""},
					}},
				},
				TravelOptions: []models.TravelOption{
					{To: "c", Label: "Gamma", Hours: 4},
					{To: "a", Label: "Alpha", Hours: 3},
				},
				WrongTravelText: "Nobody here.",
			},
			{ID: "c", Name: "Gamma", Country: "Gland"},
		},
		Settings: models.CaseSettings{
			DeadlineHours: 48,
			ActionCosts:   map[string]int{"search": 3, "capture": 1, "dig": 0},
		},
		Ending: models.Ending{
			SuccessText:          "Caught!",
			FailNoWarrantText:    "No warrant.",
			FailWrongWarrantText: "Wrong person.",
			TimeoutText:          "Too late.",
		},
		UI: models.CaseUI{
			BackgroundImage:       "bg.png",
			FallbackLocationImage: "fallback.png",
			TravelImage:           "plane.png",
			CaptureImage:          "capture.png",
			WarrantImage:          "robot.png",
		},
	}
}

func testSuspects() models.SuspectDatabase {
	return models.SuspectDatabase{
		Fields: []models.EvidenceField{
			{ID: "hair", Label: "Hair", Options: []string{"Red", "Black"}},
			{ID: "car", Label: "Car", Options: []string{"Van", "Coupe"}},
			{ID: "hobby", Label: "Hobby", Options: []string{"Chess", "Golf"}},
		},
		Suspects: []models.Suspect{
			{ID: "ann", Name: "Ann", Attributes: map[string]string{"hair": "Red", "car": "Van", "hobby": "Chess"}},
			{ID: "bob", Name: "Bob", Attributes: map[string]string{"hair": "Red", "car": "Van", "hobby": "Golf"}},
			{ID: "cid", Name: "Cid", Attributes: map[string]string{"hair": "Black", "car": "Coupe", "hobby": "Chess"}},
		},
	}
}

func newBundle(t *testing.T, mutate func(c *models.Case)) *casefile.Bundle {
	t.Helper()
	caseDef := testCase()
	if mutate != nil {
		mutate(&caseDef)
	}
	bundle, err := casefile.NewBundle(models.ManifestEntry{ID: "test", Label: "Test", Language: "en", Path: "case.json"},
		caseDef, testSuspects())
	require.NoError(t, err)
	return bundle
}

func start(t *testing.T) *engine.Session {
	t.Helper()
	s, _ := engine.Start(newBundle(t, nil))
	return s
}

// travelToFinalStop flies a -> b -> c spending 9h.
func travelToFinalStop(t *testing.T, s *engine.Session) {
	t.Helper()
	require.True(t, s.Travel("b").Accepted)
	require.True(t, s.Travel("c").Accepted)
	require.Equal(t, 2, s.State().RouteIndex)
}

func TestStart(t *testing.T) {
	s, result := engine.Start(newBundle(t, nil))

	state := s.State()
	assert.Equal(t, engine.StatusPlaying, state.Status)
	assert.Equal(t, 48, state.HoursRemaining)
	assert.Equal(t, 0, state.RouteIndex)
	assert.Equal(t, "a", state.CurrentLocationID)
	assert.Empty(t, state.IdentityFindings)
	assert.False(t, state.Warrant.Issued)
	assert.Empty(t, state.LastDestinationHint)

	assert.True(t, result.Accepted)
	require.Len(t, result.Dialogues, 1)
	assert.Equal(t, "Chief", result.Dialogues[0].Speaker)
	assert.Equal(t, "Find the thief.", result.Dialogues[0].Text)
	assert.NotEmpty(t, result.Dialogues[0].ID)
	assert.Equal(t, []string{"Case started: Test Case"}, result.Events)

	snapshot := s.Snapshot()
	assert.Equal(t, "Investigating", snapshot.StatusText)
	assert.Equal(t, "2d 0h", snapshot.TimeLeft)
	assert.Equal(t, "Alpha, Aland", snapshot.LocationLabel)
	assert.Equal(t, "fallback.png", snapshot.LocationImage)
	assert.Equal(t, "Not issued", snapshot.WarrantLabel)
	assert.Equal(t, s.Dialogue(), snapshot.Dialogue)
}

func TestStart_discardsPriorSession(t *testing.T) {
	bundle := newBundle(t, nil)
	first, _ := engine.Start(bundle)
	first.PerformAction("witness")

	second, _ := engine.Start(bundle)
	assert.Equal(t, 48, second.State().HoursRemaining)
	assert.Empty(t, second.Evidence())
	assert.Equal(t, []string{"Case started: Test Case"}, second.Snapshot().Events)
	assert.Equal(t, 46, first.State().HoursRemaining, "sessions must not share state")
}

func TestPerformAction_onlyFirstSucceeds(t *testing.T) {
	s := start(t)

	result := s.PerformAction("witness")
	require.True(t, result.Accepted)
	assert.Equal(t, 46, s.State().HoursRemaining)
	assert.Equal(t, "1d 22h", s.Snapshot().TimeLeft)
	assert.Equal(t, []string{
		"Action witness: -2h.",
		"[Alpha] Guard: Saw red hair.",
		"Identity clue: Hair: Red",
		"Route clue (currency): Beta, Bland",
	}, result.Events)
	require.Len(t, result.Dialogues, 1)
	assert.Equal(t, "fallback.png", result.Dialogues[0].Image)

	before := s.State()
	for range 3 {
		again := s.PerformAction("witness")
		assert.False(t, again.Accepted)
		assert.Equal(t, engine.RejectionAlreadyUsed, again.Rejection)
		assert.Equal(t, []string{"That action has already been used at this location."}, again.Events)
		assert.Empty(t, again.Dialogues)
	}
	assert.Equal(t, before, s.State(), "rejected actions must not change state")
}

func TestPerformAction_unknownAction(t *testing.T) {
	s := start(t)

	result := s.PerformAction("dance")
	assert.False(t, result.Accepted)
	assert.Equal(t, engine.RejectionNoSuchAction, result.Rejection)
	assert.Equal(t, []string{"Action not available at this location."}, result.Events)
	assert.Equal(t, 48, s.State().HoursRemaining)
}

func TestPerformAction_defaultsAndPermissiveReveals(t *testing.T) {
	s := start(t)

	result := s.PerformAction("search")
	require.True(t, result.Accepted)
	assert.Equal(t, 45, s.State().HoursRemaining, "configured cost")
	assert.Equal(t, "Contact", result.Dialogues[0].Speaker)
	assert.Equal(t, []string{
		"Action search: -3h.",
		"[Alpha] Contact: Tracks of a van.",
		"Identity clue: Car: Van",
	}, result.Events, "unknown reveal kinds and fields are ignored")
	assert.Equal(t, []string{"Car: Van"}, s.State().IdentityFindings)

	zero := s.PerformAction("dig")
	require.True(t, zero.Accepted)
	assert.Equal(t, 45, s.State().HoursRemaining, "a configured zero cost is free")
	assert.Contains(t, zero.Events, "Action dig: -0h.")

	s2 := start(t)
	s2.PerformAction("crimenet")
	assert.Equal(t, "atlantis", s2.State().LastDestinationHint, "unresolved hint falls back to the raw id")
	assert.Equal(t, 46, s2.State().HoursRemaining, "default action cost")
}

func TestApplyReveal_firstRevealWinsUnlessPlayerEdits(t *testing.T) {
	s := start(t)
	s.PerformAction("witness")
	s.PerformAction("crimenet")

	assert.Equal(t, "Red", s.Evidence()["hair"], "later reveals do not overwrite the selector")
	assert.Equal(t, []string{"Hair: Red", "Hair: Black"}, s.State().IdentityFindings)
	assert.Equal(t, []string{"Hair: Black", "Hair: Red"}, s.Snapshot().Findings, "findings are newest first")

	edited := start(t)
	require.True(t, edited.SetEvidence("hair", "Black").Accepted)
	edited.PerformAction("witness")
	assert.Equal(t, "Black", edited.Evidence()["hair"], "reveals never overwrite a player choice")

	assert.Equal(t, engine.RejectionInvalidEvidence, edited.SetEvidence("hair", "Green").Rejection)
	assert.Equal(t, engine.RejectionInvalidEvidence, edited.SetEvidence("shoe", "42").Rejection)
	require.True(t, edited.SetEvidence("hair", "").Accepted)
	_, ok := edited.Evidence()["hair"]
	assert.False(t, ok, "empty value clears the selector")
	assert.Equal(t, 46, edited.State().HoursRemaining, "editing evidence is free")
}

func TestTravelOptions(t *testing.T) {
	s := start(t)

	choices, hint, result := s.TravelOptions()
	require.True(t, result.Accepted)
	assert.Equal(t, []engine.TravelChoice{
		{To: "b", Label: "Beta", Hours: 5},
		{To: "x", Label: "Xland", Hours: 5},
	}, choices)
	assert.Equal(t, "No direct clue. Review your notes before flying.", hint)

	s.PerformAction("witness")
	_, hint, _ = s.TravelOptions()
	assert.Equal(t, "Latest clue suggests: Beta, Bland", hint)

	travelToFinalStop(t, s)
	choices, _, result = s.TravelOptions()
	assert.False(t, result.Accepted)
	assert.Equal(t, engine.RejectionNoFlights, result.Rejection)
	assert.Equal(t, []string{"No flights from this location."}, result.Events)
	assert.Nil(t, choices)
	assert.False(t, s.Snapshot().TravelEnabled)
}

func TestTravel(t *testing.T) {
	t.Run("wrong destination keeps the route and loses time", func(t *testing.T) {
		s := start(t)
		s.PerformAction("witness")
		require.Equal(t, 46, s.State().HoursRemaining)

		result := s.Travel("x")
		require.True(t, result.Accepted)
		state := s.State()
		assert.Equal(t, 41, state.HoursRemaining)
		assert.Equal(t, 0, state.RouteIndex)
		assert.Equal(t, "a", state.CurrentLocationID)
		assert.Equal(t, "Beta, Bland", state.LastDestinationHint, "hint survives a wrong flight")
		require.Len(t, result.Dialogues, 1)
		assert.Equal(t, "Flight Control", result.Dialogues[0].Speaker)
		assert.Equal(t, "Trail lost. Wrong destination.", result.Dialogues[0].Text)
		assert.Equal(t, "plane.png", result.Dialogues[0].Image)
		assert.Equal(t, []string{"Flight to Xland: -5h.", "Wrong destination: Xland. Time lost."}, result.Events)
	})

	t.Run("next route stop advances", func(t *testing.T) {
		s := start(t)
		s.PerformAction("witness")

		result := s.Travel("b")
		require.True(t, result.Accepted)
		state := s.State()
		assert.Equal(t, 41, state.HoursRemaining, "default flight duration")
		assert.Equal(t, 1, state.RouteIndex)
		assert.Equal(t, "b", state.CurrentLocationID)
		assert.Empty(t, state.LastDestinationHint)
		assert.Equal(t, "Landing confirmed in Beta. Continue the investigation.", result.Dialogues[0].Text)
		assert.Equal(t, []string{"Flight to Beta: -5h.", "Correct travel to Beta."}, result.Events)
		assert.True(t, s.Snapshot().Actions[0].Enabled, "actions are tracked per location")
	})

	t.Run("going back never decreases the route index", func(t *testing.T) {
		s := start(t)
		s.Travel("b")
		result := s.Travel("a")
		require.True(t, result.Accepted)
		assert.Equal(t, 1, s.State().RouteIndex)
		assert.Equal(t, "b", s.State().CurrentLocationID)
		assert.Equal(t, "Nobody here.", result.Dialogues[0].Text)
	})

	t.Run("final stop", func(t *testing.T) {
		s := start(t)
		s.Travel("b")
		result := s.Travel("c")
		assert.Equal(t, []string{
			"Flight to Gamma: -4h.",
			"Correct travel to Gamma.",
			"You have reached the last stop on the route. Issue the warrant and attempt the capture.",
		}, result.Events)
		assert.True(t, s.Snapshot().CaptureEnabled)
	})

	t.Run("flight not offered here", func(t *testing.T) {
		s := start(t)
		result := s.Travel("c")
		assert.False(t, result.Accepted)
		assert.Equal(t, engine.RejectionNoSuchFlight, result.Rejection)
		assert.Equal(t, 48, s.State().HoursRemaining)
		assert.Equal(t, 0, s.State().RouteIndex)
	})
}

func TestIssueWarrant(t *testing.T) {
	tests := []struct {
		name        string
		selected    map[string]string
		wantOutcome engine.WarrantOutcome
		wantIssued  bool
		wantSuspect string
		wantText    string
		wantEvent   string
	}{
		{
			name:        "single field is insufficient even with matches",
			selected:    map[string]string{"hair": "Black"},
			wantOutcome: engine.WarrantInsufficient,
			wantText:    "Insufficient data. Collect more clues before issuing the warrant.",
			wantEvent:   "Warrant failed: fewer than 2 clues filled in.",
		},
		{
			name:        "empty values do not count",
			selected:    map[string]string{"hair": "Black", "car": ""},
			wantOutcome: engine.WarrantInsufficient,
			wantText:    "Insufficient data. Collect more clues before issuing the warrant.",
			wantEvent:   "Warrant failed: fewer than 2 clues filled in.",
		},
		{
			name:        "unique match",
			selected:    map[string]string{"hair": "Red", "hobby": "Chess"},
			wantOutcome: engine.WarrantIssued,
			wantIssued:  true,
			wantSuspect: "ann",
			wantText:    "Warrant issued for Ann.",
			wantEvent:   "Warrant issued for Ann.",
		},
		{
			name:        "ambiguous",
			selected:    map[string]string{"hair": "Red", "car": "Van"},
			wantOutcome: engine.WarrantAmbiguous,
			wantText:    "Ambiguous filter. Possible suspects: Ann, Bob.",
			wantEvent:   "Ambiguous warrant: Ann, Bob.",
		},
		{
			name:        "no match",
			selected:    map[string]string{"hair": "Black", "car": "Van"},
			wantOutcome: engine.WarrantNoMatch,
			wantText:    "No compatible suspect found for this evidence.",
			wantEvent:   "Warrant without match.",
		},
		{
			name:        "values outside the field options are ignored",
			selected:    map[string]string{"hair": "Red", "car": "Spaceship"},
			wantOutcome: engine.WarrantInsufficient,
			wantText:    "Insufficient data. Collect more clues before issuing the warrant.",
			wantEvent:   "Warrant failed: fewer than 2 clues filled in.",
		},
		{
			name:        "unknown fields are ignored",
			selected:    map[string]string{"hair": "Red", "shoe": "42"},
			wantOutcome: engine.WarrantInsufficient,
			wantText:    "Insufficient data. Collect more clues before issuing the warrant.",
			wantEvent:   "Warrant failed: fewer than 2 clues filled in.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := start(t)
			// A prior warrant is always replaced by the new verdict.
			require.Equal(t, engine.WarrantIssued,
				s.IssueWarrant(map[string]string{"hair": "Black", "car": "Coupe"}).Warrant)
			require.Equal(t, "cid", s.State().Warrant.SuspectID)

			result := s.IssueWarrant(tt.selected)
			require.True(t, result.Accepted)
			assert.Equal(t, tt.wantOutcome, result.Warrant)
			assert.Equal(t, 44, s.State().HoursRemaining, "each check costs the default 2h")

			warrant := s.State().Warrant
			assert.Equal(t, tt.wantIssued, warrant.Issued)
			assert.Equal(t, tt.wantSuspect, warrant.SuspectID)
			require.Len(t, result.Dialogues, 1)
			assert.Equal(t, "Warrant Robot", result.Dialogues[0].Speaker)
			assert.Equal(t, tt.wantText, result.Dialogues[0].Text)
			assert.Equal(t, "robot.png", result.Dialogues[0].Image)
			assert.Equal(t, []string{"Warrant request: -2h.", tt.wantEvent}, result.Events)
		})
	}
}

func TestIssueWarrant_replacesEvidenceSelection(t *testing.T) {
	s := start(t)
	s.PerformAction("witness")
	require.Equal(t, "Red", s.Evidence()["hair"])

	s.IssueWarrant(map[string]string{"car": "Van", "hobby": "Golf"})
	assert.Equal(t, map[string]string{"car": "Van", "hobby": "Golf"}, s.Evidence())
	assert.Equal(t, "Issued for Bob", s.Snapshot().WarrantLabel)

	s.IssueWarrant(map[string]string{"car": "Spaceship", "hobby": "Golf", "hair": "Red"})
	assert.Equal(t, map[string]string{"hobby": "Golf", "hair": "Red"}, s.Evidence())
}

func TestAttemptCapture(t *testing.T) {
	tests := []struct {
		name       string
		evidence   map[string]string
		wantStatus engine.Status
		wantText   string
		wantLabel  string
	}{
		{
			name:       "warrant for the culprit",
			evidence:   map[string]string{"hair": "Red", "hobby": "Chess"},
			wantStatus: engine.StatusWon,
			wantText:   "Caught!",
			wantLabel:  "Case solved",
		},
		{
			name:       "warrant for someone else",
			evidence:   map[string]string{"car": "Van", "hobby": "Golf"},
			wantStatus: engine.StatusLost,
			wantText:   "Wrong person.",
			wantLabel:  "Case failed",
		},
		{
			name:       "no warrant",
			evidence:   nil,
			wantStatus: engine.StatusLost,
			wantText:   "No warrant.",
			wantLabel:  "Case failed",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := start(t)
			travelToFinalStop(t, s)
			require.Equal(t, 39, s.State().HoursRemaining)
			if tt.evidence != nil {
				s.IssueWarrant(tt.evidence)
			}
			hoursBefore := s.State().HoursRemaining

			result := s.AttemptCapture()
			require.True(t, result.Accepted)
			assert.Equal(t, tt.wantStatus, result.Status)
			assert.Equal(t, tt.wantStatus, s.State().Status)
			assert.Equal(t, hoursBefore-1, s.State().HoursRemaining)
			require.Len(t, result.Dialogues, 1)
			assert.Equal(t, "System", result.Dialogues[0].Speaker)
			assert.Equal(t, tt.wantText, result.Dialogues[0].Text)
			assert.Equal(t, "capture.png", result.Dialogues[0].Image)
			assert.Equal(t, []string{"Capture attempt: -1h.", tt.wantText}, result.Events)
			assert.Equal(t, tt.wantLabel, s.Snapshot().StatusText)
		})
	}
}

func TestAttemptCapture_beforeFinalStop(t *testing.T) {
	s := start(t)
	s.IssueWarrant(map[string]string{"hair": "Red", "hobby": "Chess"})
	s.Travel("b")
	before := s.State()

	result := s.AttemptCapture()
	assert.False(t, result.Accepted)
	assert.Equal(t, engine.RejectionNotAtFinalStop, result.Rejection)
	assert.Equal(t, []string{"You have not reached the last stop of the route yet."}, result.Events)
	assert.Equal(t, before, s.State())
	assert.False(t, s.Snapshot().CaptureEnabled)
}

func TestSpendHours_timeout(t *testing.T) {
	s, _ := engine.Start(newBundle(t, func(c *models.Case) { c.Settings.DeadlineHours = 4 }))

	require.True(t, s.PerformAction("witness").Accepted)
	require.Equal(t, 2, s.State().HoursRemaining)

	result := s.PerformAction("search")
	assert.True(t, result.Accepted)
	assert.Equal(t, engine.StatusTimeout, result.Status)
	state := s.State()
	assert.Equal(t, 0, state.HoursRemaining, "clamped to zero")
	assert.Equal(t, engine.StatusTimeout, state.Status)
	assert.False(t, state.UsedActions["a"]["search"], "an action that timed out does not fire")
	assert.Equal(t, []string{"Action search: -3h.", "Too late."}, result.Events)
	require.Len(t, result.Dialogues, 1)
	assert.Equal(t, "System", result.Dialogues[0].Speaker)
	assert.Equal(t, "Too late.", result.Dialogues[0].Text)
	assert.Equal(t, "Deadline expired", s.Snapshot().StatusText)
}

func TestSpendHours_timeoutDuringTravelDoesNotMove(t *testing.T) {
	s, _ := engine.Start(newBundle(t, func(c *models.Case) { c.Settings.DeadlineHours = 5 }))

	result := s.Travel("b")
	assert.Equal(t, engine.StatusTimeout, result.Status)
	assert.Equal(t, 0, s.State().RouteIndex)
	assert.Equal(t, []string{"Flight to Beta: -5h.", "Too late."}, result.Events)
}

func TestSpendHours_timeoutDuringWarrantAndCapture(t *testing.T) {
	s, _ := engine.Start(newBundle(t, func(c *models.Case) { c.Settings.DeadlineHours = 11 }))
	travelToFinalStop(t, s)
	require.Equal(t, 2, s.State().HoursRemaining)

	result := s.IssueWarrant(map[string]string{"hair": "Red", "hobby": "Chess"})
	assert.Equal(t, engine.StatusTimeout, result.Status)
	assert.Equal(t, engine.WarrantNotChecked, result.Warrant)
	assert.False(t, s.State().Warrant.Issued)

	s2, _ := engine.Start(newBundle(t, func(c *models.Case) { c.Settings.DeadlineHours = 12 }))
	travelToFinalStop(t, s2)
	s2.IssueWarrant(map[string]string{"hair": "Red", "hobby": "Chess"})
	require.Equal(t, 1, s2.State().HoursRemaining)
	assert.Equal(t, engine.StatusTimeout, s2.AttemptCapture().Status, "timeout wins over the capture")
}

func TestTerminalStatusIsFinal(t *testing.T) {
	s, _ := engine.Start(newBundle(t, func(c *models.Case) { c.Settings.DeadlineHours = 2 }))
	s.PerformAction("witness")
	require.Equal(t, engine.StatusTimeout, s.State().Status)
	before := s.State()
	eventsBefore := s.Snapshot().Events

	commands := map[string]func() engine.Result{
		"action":   func() engine.Result { return s.PerformAction("search") },
		"travel":   func() engine.Result { return s.Travel("b") },
		"options": func() engine.Result {
			_, _, r := s.TravelOptions()
			return r
		},
		"warrant":  func() engine.Result { return s.IssueWarrant(map[string]string{"hair": "Red", "car": "Van"}) },
		"capture":  func() engine.Result { return s.AttemptCapture() },
		"evidence": func() engine.Result { return s.SetEvidence("hair", "Black") },
	}
	for name, command := range commands {
		result := command()
		assert.False(t, result.Accepted, name)
		assert.Equal(t, engine.RejectionNotPlaying, result.Rejection, name)
		assert.Equal(t, engine.StatusTimeout, result.Status, name)
		assert.Empty(t, result.Events, name)
	}
	assert.Equal(t, before, s.State())
	assert.Equal(t, eventsBefore, s.Snapshot().Events)

	snapshot := s.Snapshot()
	assert.False(t, snapshot.TravelEnabled)
	assert.False(t, snapshot.WarrantEnabled)
	assert.False(t, snapshot.CaptureEnabled)
	for _, control := range snapshot.Actions {
		assert.False(t, control.Enabled, control.ID)
	}
}

func TestHoursNeverIncrease(t *testing.T) {
	s := start(t)
	commands := []func() engine.Result{
		func() engine.Result { return s.PerformAction("witness") },
		func() engine.Result { return s.PerformAction("witness") },
		func() engine.Result { return s.Travel("x") },
		func() engine.Result { return s.IssueWarrant(map[string]string{"hair": "Red"}) },
		func() engine.Result { return s.AttemptCapture() },
		func() engine.Result { return s.Travel("b") },
		func() engine.Result { return s.Travel("a") },
		func() engine.Result { return s.Travel("a") },
		func() engine.Result { return s.Travel("a") },
		func() engine.Result { return s.Travel("a") },
		func() engine.Result { return s.Travel("a") },
		func() engine.Result { return s.Travel("a") },
		func() engine.Result { return s.Travel("a") },
		func() engine.Result { return s.Travel("a") },
		func() engine.Result { return s.Travel("a") },
		func() engine.Result { return s.Travel("a") },
		func() engine.Result { return s.Travel("a") },
		func() engine.Result { return s.Travel("a") },
		func() engine.Result { return s.PerformAction("witness") },
	}
	previous := s.State().HoursRemaining
	for i, command := range commands {
		command()
		hours := s.State().HoursRemaining
		assert.LessOrEqual(t, hours, previous, "command %d", i)
		assert.GreaterOrEqual(t, hours, 0, "command %d", i)
		previous = hours
	}
	assert.Equal(t, engine.StatusTimeout, s.State().Status)
}

func TestEventLogIsCapped(t *testing.T) {
	s := start(t)
	for range 70 {
		s.PerformAction("dance")
	}
	s.PerformAction("witness")

	events := s.Snapshot().Events
	require.Len(t, events, 60)
	assert.Equal(t, "Route clue (currency): Beta, Bland", events[0], "newest first")
	assert.Equal(t, "Action witness: -2h.", events[3])
}

func TestSnapshot_actionControls(t *testing.T) {
	s := start(t)
	s.PerformAction("search")

	actions := s.Snapshot().Actions
	ids := make([]string, 0, len(actions))
	for _, control := range actions {
		ids = append(ids, control.ID)
	}
	assert.Equal(t, []string{"witness", "search", "crimenet", "dig"}, ids)
	assert.True(t, actions[0].Enabled)
	assert.False(t, actions[1].Enabled)
	assert.True(t, actions[1].Used)

	rows := s.Snapshot().Evidence
	require.Len(t, rows, 3)
	assert.Equal(t, "car", rows[1].FieldID)
	assert.Equal(t, "Van", rows[1].Selected)
	assert.Empty(t, rows[0].Selected)
}

func TestSnapshot_routeStop(t *testing.T) {
	s := start(t)
	snapshot := s.Snapshot()
	assert.Equal(t, 0, snapshot.RouteIndex)
	assert.Equal(t, 1, snapshot.RouteStop)
	assert.Equal(t, 3, snapshot.RouteLength)

	s.Travel("b")
	assert.Equal(t, 2, s.Snapshot().RouteStop)
}

func TestFormatHours(t *testing.T) {
	tests := map[int]string{0: "0d 0h", 5: "0d 5h", 24: "1d 0h", 46: "1d 22h", 72: "3d 0h", 100: "4d 4h"}
	for hours, want := range tests {
		assert.Equal(t, want, engine.FormatHours(hours))
	}
}

func TestProgress_restore(t *testing.T) {
	bundle := newBundle(t, nil)
	s, _ := engine.Start(bundle)
	s.PerformAction("witness")
	s.Travel("b")
	s.IssueWarrant(map[string]string{"hair": "Red", "hobby": "Chess"})

	var buf bytes.Buffer
	require.NoError(t, gob.NewEncoder(&buf).Encode(s.Progress()))
	var decoded engine.Progress
	require.NoError(t, gob.NewDecoder(&buf).Decode(&decoded))

	restored, err := engine.Restore(bundle, decoded)
	require.NoError(t, err)
	want, got := s.State(), restored.State()
	assert.Equal(t, want.HoursRemaining, got.HoursRemaining)
	assert.Equal(t, want.RouteIndex, got.RouteIndex)
	assert.Equal(t, want.CurrentLocationID, got.CurrentLocationID)
	assert.Equal(t, want.IdentityFindings, got.IdentityFindings)
	assert.Equal(t, want.Warrant, got.Warrant)
	assert.Equal(t, want.UsedActions["a"], got.UsedActions["a"])
	assert.Equal(t, s.Evidence(), restored.Evidence())
	assert.Equal(t, s.Snapshot(), restored.Snapshot())

	require.True(t, restored.Travel("c").Accepted)
	assert.Equal(t, engine.StatusWon, restored.AttemptCapture().Status)
}

func TestRestore_rejectsForeignProgress(t *testing.T) {
	bundle := newBundle(t, nil)
	s, _ := engine.Start(bundle)

	progress := s.Progress()
	progress.CaseID = "other"
	_, err := engine.Restore(bundle, progress)
	require.ErrorIs(t, err, engine.ErrProgressMismatch)

	progress = s.Progress()
	progress.State.CurrentLocationID = "c"
	_, err = engine.Restore(bundle, progress)
	require.ErrorIs(t, err, engine.ErrProgressMismatch)

	progress = s.Progress()
	progress.State.Status = "paused"
	_, err = engine.Restore(bundle, progress)
	require.ErrorIs(t, err, engine.ErrProgressMismatch)
}
