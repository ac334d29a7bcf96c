package e2etest

import (
	"context"
	"log/slog"
	neturl "net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/myrjola/gumshoe/internal/errors"
)

// StartCase starts the case caseID. An empty caseID starts the default case.
func (c *Client) StartCase(ctx context.Context, caseID string) (*goquery.Document, error) {
	return c.SubmitForm(ctx, "/", "/cases/start", neturl.Values{"case_id": {caseID}})
}

// PerformAction performs the action actionID at the current location.
func (c *Client) PerformAction(ctx context.Context, actionID string) (*goquery.Document, error) {
	return c.SubmitForm(ctx, "/", "/actions/"+actionID, nil)
}

// Travel flies to destination. The flights are looked up first like a player would.
func (c *Client) Travel(ctx context.Context, destination string) (*goquery.Document, error) {
	return c.SubmitForm(ctx, "/travel", "/travel", neturl.Values{"destination": {destination}})
}

// IssueWarrant submits the evidence form for a warrant. evidence maps field IDs to the selected values.
func (c *Client) IssueWarrant(ctx context.Context, evidence map[string]string) (*goquery.Document, error) {
	return c.SubmitForm(ctx, "/", "/warrant", evidenceValues(evidence))
}

// SetEvidence saves the evidence form without issuing a warrant.
func (c *Client) SetEvidence(ctx context.Context, evidence map[string]string) (*goquery.Document, error) {
	return c.SubmitForm(ctx, "/", "/evidence", evidenceValues(evidence))
}

// AttemptCapture tries to arrest the suspect at the current location.
func (c *Client) AttemptCapture(ctx context.Context) (*goquery.Document, error) {
	return c.SubmitForm(ctx, "/", "/capture", nil)
}

func evidenceValues(evidence map[string]string) neturl.Values {
	values := neturl.Values{}
	for fieldID, value := range evidence {
		values.Set("evidence-"+fieldID, value)
	}
	return values
}

// Status is the case status shown on the game page.
func Status(doc *goquery.Document) string {
	return testID(doc, "status")
}

// TimeLeft is the remaining time shown on the game page.
func TimeLeft(doc *goquery.Document) string {
	return testID(doc, "time-left")
}

// Location is the label of the current location.
func Location(doc *goquery.Document) string {
	return testID(doc, "location")
}

// Events are the case log entries, newest first.
func Events(doc *goquery.Document) []string {
	var events []string
	doc.Find("[data-testid=events] li").Each(func(_ int, s *goquery.Selection) {
		events = append(events, strings.TrimSpace(s.Text()))
	})
	return events
}

// Destinations are the flight destinations offered on a page rendered after looking up flights.
func Destinations(doc *goquery.Document) []string {
	var destinations []string
	doc.Find("form[action='/travel'] input[name=destination]").Each(func(_ int, s *goquery.Selection) {
		if value, ok := s.Attr("value"); ok {
			destinations = append(destinations, value)
		}
	})
	return destinations
}

func testID(doc *goquery.Document, id string) string {
	return strings.TrimSpace(doc.Find("[data-testid=" + id + "]").First().Text())
}

// ErrUnexpectedStatus is returned by [Client.Play] when the case did not end as expected.
var ErrUnexpectedStatus = errors.NewSentinel("unexpected case status")

// Step is one move of a [Playbook]. Exactly one of the fields is set.
type Step struct {
	Action  string
	Travel  string
	Warrant map[string]string
	Capture bool
}

// Playbook plays a case from the start to its end.
type Playbook struct {
	CaseID string
	Steps  []Step
	// WantStatus is the status text expected after the last step.
	WantStatus string
}

// CrownJewelsSolution solves the default case with the hours to spare.
var CrownJewelsSolution = Playbook{ //nolint:gochecknoglobals // shared by the tests and the smoke test.
	CaseID: "crown-jewels",
	Steps: []Step{
		{Action: "witness"},
		{Action: "search"},
		{Travel: "cairo"},
		{Action: "witness"},
		{Travel: "tokyo"},
		{Travel: "rio"},
		{Warrant: map[string]string{"hair": "Red", "vehicle": "Convertible", "hobby": "Chess"}},
		{Capture: true},
	},
	WantStatus: "Case solved",
}

// Play starts the case of the playbook and plays its steps. It returns the final page.
func (c *Client) Play(ctx context.Context, playbook Playbook) (*goquery.Document, error) {
	doc, err := c.StartCase(ctx, playbook.CaseID)
	if err != nil {
		return nil, errors.Wrap(err, "start case", slog.String("case_id", playbook.CaseID))
	}
	for i, step := range playbook.Steps {
		switch {
		case step.Action != "":
			doc, err = c.PerformAction(ctx, step.Action)
		case step.Travel != "":
			doc, err = c.Travel(ctx, step.Travel)
		case step.Warrant != nil:
			doc, err = c.IssueWarrant(ctx, step.Warrant)
		case step.Capture:
			doc, err = c.AttemptCapture(ctx)
		default:
			err = errors.New("empty step")
		}
		if err != nil {
			return nil, errors.Wrap(err, "play step", slog.Int("step", i))
		}
	}
	if status := Status(doc); status != playbook.WantStatus {
		return doc, errors.Wrap(ErrUnexpectedStatus, "finish case", slog.String("status", status),
			slog.String("want", playbook.WantStatus))
	}
	return doc, nil
}
