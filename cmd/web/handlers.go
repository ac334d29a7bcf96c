package main

import (
	"bytes"
	"log/slog"
	"net/http"

	"github.com/myrjola/gumshoe/internal/errors"
)

// render executes the page layout, or only templateName of the page when the request comes from htmx and wants
// a fragment of the page. An empty templateName always renders the full page.
func (app *application) render(w http.ResponseWriter, r *http.Request, status int, page, templateName string, data any) {
	t, err := app.templates.lookup(r, page)
	if err != nil {
		app.serverError(w, r, errors.Wrap(err, "lookup template", slog.String("page", page)))
		return
	}

	name := "base"
	hx := app.htmx.NewHandler(w, r)
	if templateName != "" && hx.IsHxRequest() && !hx.IsHxBoosted() {
		name = templateName
	}

	buf := new(bytes.Buffer)
	if err = t.ExecuteTemplate(buf, name, data); err != nil {
		app.serverError(w, r, errors.Wrap(err, "execute template", slog.String("page", page),
			slog.String("template", name)))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)

	_, _ = buf.WriteTo(w)
}
