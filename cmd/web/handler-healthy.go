package main

import (
	"fmt"
	"net/http"
)

// healthy responds with a JSON object telling that the server is up and how many cases it serves.
func (app *application) healthy(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = fmt.Fprintf(w, `{"status":"ok","version":%q,"cases":%d}`, version, len(app.catalog.Entries()))
}
