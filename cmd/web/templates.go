package main

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/myrjola/gumshoe/internal/contexthelpers"
	"github.com/myrjola/gumshoe/ui"
	"github.com/yuin/goldmark"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"
)

type BaseTemplateData struct {
	CurrentPath string
	Flash       string
}

func (app *application) newBaseTemplateData(r *http.Request) BaseTemplateData {
	return BaseTemplateData{
		CurrentPath: contexthelpers.CurrentPath(r.Context()),
		Flash:       app.sessionManager.PopString(r.Context(), string(flashSessionKey)),
	}
}

// templateCache holds one parsed template set per page. Each set contains the base layout, the partials and the
// templates of the page directory under ui/templates/pages. The sets are never executed directly but cloned per
// request so that the request specific functions can be bound.
type templateCache struct {
	pages map[string]*template.Template
}

var markdown = goldmark.New(goldmark.WithRendererOptions(goldmarkhtml.WithHardWraps()))

// renderMarkdown renders case text written in markdown. Raw HTML in the source is omitted.
func renderMarkdown(source string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	return template.HTML(buf.String()), nil //nolint:gosec // goldmark escapes the source.
}

// assetURL turns an image path of the data directory into its URL.
func assetURL(imagePath string) string {
	if imagePath == "" {
		return ""
	}
	return "/" + strings.TrimPrefix(path.Clean(imagePath), "/")
}

func newTemplateCache() (*templateCache, error) {
	pageDirs, err := fs.ReadDir(ui.Files, "templates/pages")
	if err != nil {
		return nil, fmt.Errorf("read page directories: %w", err)
	}
	cache := templateCache{pages: map[string]*template.Template{}}
	for _, dir := range pageDirs {
		if !dir.IsDir() {
			continue
		}
		pageName := dir.Name()
		// The request specific functions are bound in render.
		t, parseErr := template.New(pageName).Funcs(template.FuncMap{
			"nonce": func() template.HTMLAttr {
				panic("not implemented")
			},
			"csrf": func() template.HTML {
				panic("not implemented")
			},
			"markdown": renderMarkdown,
			"asset":    assetURL,
		}).ParseFS(ui.Files,
			"templates/base.gohtml",
			"templates/partials/*.gohtml",
			fmt.Sprintf("templates/pages/%s/*.gohtml", pageName),
		)
		if parseErr != nil {
			return nil, fmt.Errorf("parse page %s: %w", pageName, parseErr)
		}
		cache.pages[pageName] = t
	}
	return &cache, nil
}

// lookup returns a clone of the page template set with the request specific functions bound.
func (c *templateCache) lookup(r *http.Request, pageName string) (*template.Template, error) {
	t, ok := c.pages[pageName]
	if !ok {
		return nil, fmt.Errorf("no page named %s", pageName)
	}
	clone, err := t.Clone()
	if err != nil {
		return nil, fmt.Errorf("clone page %s: %w", pageName, err)
	}
	ctx := r.Context()
	nonce := fmt.Sprintf("nonce=\"%s\"", contexthelpers.CSPNonce(ctx))
	csrf := fmt.Sprintf("<input type=\"hidden\" name=\"csrf_token\" value=\"%s\"/>", contexthelpers.CSRFToken(ctx))
	clone.Funcs(template.FuncMap{
		"nonce": func() template.HTMLAttr {
			return template.HTMLAttr(nonce) //nolint:gosec // we trust the nonce since it's not provided by user.
		},
		"csrf": func() template.HTML {
			return template.HTML(csrf) //nolint:gosec // we trust the csrf since it's not provided by user.
		},
	})
	return clone, nil
}
