package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	neturl "net/url"
	"strings"
	"testing"

	"github.com/myrjola/gumshoe/internal/e2etest"
	"github.com/myrjola/gumshoe/internal/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLookupEnv(overrides map[string]string) func(string) (string, bool) {
	env := map[string]string{
		"GUMSHOE_ADDR":           "localhost:0",
		"GUMSHOE_SQLITE_URL":     ":memory:",
		"GUMSHOE_SECURE_COOKIES": "false",
	}
	for key, value := range overrides {
		env[key] = value
	}
	return func(key string) (string, bool) {
		value, ok := env[key]
		return value, ok
	}
}

func startTestServer(t *testing.T, overrides map[string]string) *e2etest.Client {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	server, err := e2etest.StartServer(ctx, io.Discard, testLookupEnv(overrides), run)
	require.NoError(t, err)
	return server.Client()
}

func Test_application_firstVisitStartsDefaultCase(t *testing.T) {
	client := startTestServer(t, nil)
	ctx := context.Background()

	doc, err := client.GetDoc(ctx, "/")
	require.NoError(t, err)
	assert.Equal(t, "Investigating", e2etest.Status(doc))
	assert.Equal(t, "3d 0h", e2etest.TimeLeft(doc))
	assert.Contains(t, e2etest.Location(doc), "London")
	assert.Equal(t, "1 of 4", strings.TrimSpace(doc.Find("[data-testid=stop]").Text()))
	assert.Equal(t, "The Crown Jewels Affair (en)",
		strings.TrimSpace(doc.Find("select[name=case_id] option[selected]").Text()))
	assert.Equal(t, "Text mode active. Voice disabled.", strings.TrimSpace(doc.Find("[data-testid=voice-status]").Text()))
	assert.Equal(t, 1, doc.Find("[data-testid=dialogue]").Length(), "the briefing should be shown")

	doc, err = client.GetDoc(ctx, "/travel")
	require.NoError(t, err)
	assert.Equal(t, []string{"cairo", "paris", "oslo"}, e2etest.Destinations(doc))
	assert.Equal(t, "3d 0h", e2etest.TimeLeft(doc), "checking flights is free")
}

func Test_application_playthrough(t *testing.T) {
	client := startTestServer(t, nil)
	ctx := context.Background()

	doc, err := client.Play(ctx, e2etest.CrownJewelsSolution)
	require.NoError(t, err)
	assert.Equal(t, "1d 17h", e2etest.TimeLeft(doc))
	assert.Equal(t, "Issued for Vera Vantage", strings.TrimSpace(doc.Find("[data-testid=warrant]").Text()))
	assert.Contains(t, doc.Find("[data-testid=runs]").Text(), "crown-jewels: won with 41h left")
	assert.Equal(t, 1, doc.Find("form[action='/capture'] button[disabled]").Length(), "the case is over")

	var snapshot engine.Snapshot
	require.NoError(t, client.GetJSON(ctx, "/api/snapshot", &snapshot))
	assert.Equal(t, engine.StatusWon, snapshot.Status)
	assert.Equal(t, 41, snapshot.HoursRemaining)
	assert.Equal(t, "rio", snapshot.LocationID)
	assert.Equal(t, "vera-vantage", snapshot.Warrant.SuspectID)

	// A new case starts over while keeping the record of the solved one.
	doc, err = client.StartCase(ctx, "harbor-lens")
	require.NoError(t, err)
	assert.Equal(t, "Investigating", e2etest.Status(doc))
	assert.Contains(t, doc.Find("[data-testid=runs]").Text(), "crown-jewels: won")
}

func Test_application_actionsRunOnce(t *testing.T) {
	client := startTestServer(t, nil)
	ctx := context.Background()

	doc, err := client.PerformAction(ctx, "witness")
	require.NoError(t, err)
	assert.Equal(t, "2d 22h", e2etest.TimeLeft(doc))

	doc, err = client.PerformAction(ctx, "witness")
	require.NoError(t, err)
	assert.Equal(t, "2d 22h", e2etest.TimeLeft(doc), "a used action costs nothing")
	assert.Equal(t, 1, doc.Find("form[action='/actions/witness'] button[disabled]").Length())
}

func Test_application_badRequests(t *testing.T) {
	client := startTestServer(t, nil)
	ctx := context.Background()

	tests := []struct {
		name       string
		formPath   string
		actionPath string
		values     neturl.Values
		wantStatus int
	}{
		{
			name:       "unknown case",
			formPath:   "/",
			actionPath: "/cases/start",
			values:     neturl.Values{"case_id": {"no-such-case"}},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "missing destination",
			formPath:   "/travel",
			actionPath: "/travel",
			values:     neturl.Values{"destination": {""}},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown voice",
			formPath:   "/settings/voice",
			actionPath: "/settings/voice",
			values:     neturl.Values{"voice": {"gravel"}},
			wantStatus: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := client.PostForm(ctx, tt.formPath, tt.actionPath, tt.values)
			require.NoError(t, err)
			_ = resp.Body.Close()
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}

	resp, err := client.Get(ctx, "/no/such/page")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func Test_application_voice(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/audio/speech", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("mp3:" + body["voice"].(string)))
	})
	speechAPI := httptest.NewServer(mux)
	t.Cleanup(speechAPI.Close)
	client := startTestServer(t, map[string]string{"GUMSHOE_OPENAI_BASE_URL": speechAPI.URL + "/v1"})
	ctx := context.Background()

	// Start the case in text mode so that only the witness gets a voice.
	_, err := client.GetDoc(ctx, "/")
	require.NoError(t, err)

	doc, err := client.SubmitForm(ctx, "/settings/voice", "/settings/voice", neturl.Values{
		"enabled": {"on"},
		"voice":   {"nova"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Voice marked as enabled but no API key. Staying in text mode.",
		strings.TrimSpace(doc.Find(".flash").Text()))
	assert.Equal(t, "nova", doc.Find("select[name=voice] option[selected]").AttrOr("value", ""))

	doc, err = client.SubmitForm(ctx, "/settings/voice", "/settings/voice", neturl.Values{
		"enabled": {"on"},
		"api_key": {"sk-test"},
		"voice":   {"nova"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Settings saved. Voice ready for the next dialogues.", strings.TrimSpace(doc.Find(".flash").Text()))
	assert.Equal(t, "Voice enabled.", strings.TrimSpace(doc.Find("[data-testid=voice-status]").Text()))
	_, hasValue := doc.Find("input[name=api_key]").Attr("value")
	assert.False(t, hasValue, "the stored key is never sent back")

	// Saving without a key keeps the stored one.
	doc, err = client.SubmitForm(ctx, "/settings/voice", "/settings/voice", neturl.Values{
		"enabled": {"on"},
		"voice":   {"nova"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Voice enabled.", strings.TrimSpace(doc.Find("[data-testid=voice-status]").Text()))

	doc, err = client.PerformAction(ctx, "witness")
	require.NoError(t, err)
	src, ok := doc.Find("audio").Attr("src")
	require.True(t, ok, "the dialogue should be spoken")

	resp, err := client.Get(ctx, src)
	require.NoError(t, err)
	defer func() {
		_ = resp.Body.Close()
	}()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "audio/mpeg", resp.Header.Get("Content-Type"))
	audio, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "mp3:nova", string(audio))
}
