package e2etest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	neturl "net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/myrjola/gumshoe/internal/errors"
)

type Client struct {
	client *http.Client
	url    string
}

// NewClient creates an HTTP client with a cookie jar that keeps the session across requests. The jar ignores the
// Secure flag of the cookies so that the client also works against plain HTTP test servers.
func NewClient(url string) (*Client, error) {
	jar, err := newUnsafeCookieJar()
	if err != nil {
		return nil, errors.Wrap(err, "create unsafe cookie jar")
	}
	return &Client{
		client: &http.Client{Jar: jar}, //nolint:exhaustruct // defaults are fine.
		url:    url,
	}, nil
}

// WaitForReady calls the specified endpoint until it gets a HTTP 200 Success
// response or until the context is cancelled or the 1-second timeout is reached.
func (c *Client) WaitForReady(ctx context.Context, urlPath string) error {
	timeout := 1 * time.Second
	startTime := time.Now()
	var (
		err  error
		req  *http.Request
		resp *http.Response
	)
	for {
		if req, err = c.newRequestWithContext(ctx, http.MethodGet, urlPath, nil); err != nil {
			return errors.Wrap(err, "create request")
		}

		if resp, err = c.client.Do(req); err == nil {
			if err = resp.Body.Close(); err != nil {
				return errors.Wrap(err, "close response body")
			}
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), "context cancelled")
		default:
			if time.Since(startTime) >= timeout {
				return errors.New("timeout waiting for endpoint to be ready")
			}
			time.Sleep(100 * time.Millisecond) //nolint:mnd // 100ms
		}
	}
}

// Get fetches a URL and returns the response.
func (c *Client) Get(ctx context.Context, urlPath string) (*http.Response, error) {
	var (
		err  error
		req  *http.Request
		resp *http.Response
	)
	if req, err = c.newRequestWithContext(ctx, http.MethodGet, urlPath, nil); err != nil {
		return nil, errors.Wrap(err, "create request with context")
	}
	if resp, err = c.client.Do(req); err != nil {
		return nil, errors.Wrap(err, "do request")
	}
	return resp, nil
}

// GetDoc fetches a URL and returns a goquery document.
func (c *Client) GetDoc(ctx context.Context, urlPath string) (*goquery.Document, error) {
	resp, err := c.Get(ctx, urlPath)
	if err != nil {
		return nil, errors.Wrap(err, "client get")
	}
	return documentFromResponse(resp)
}

// GetJSON fetches a URL and decodes the JSON response into v.
func (c *Client) GetJSON(ctx context.Context, urlPath string, v any) error {
	resp, err := c.Get(ctx, urlPath)
	if err != nil {
		return errors.Wrap(err, "client get")
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if http.StatusOK != resp.StatusCode {
		return errors.New("unexpected status code", slog.Int("status", resp.StatusCode))
	}
	if err = json.NewDecoder(resp.Body).Decode(v); err != nil {
		return errors.Wrap(err, "decode json", slog.String("path", urlPath))
	}
	return nil
}

// newRequestWithContext creates a new HTTP request to the server that respects the given context.
func (c *Client) newRequestWithContext(
	ctx context.Context,
	method, urlPath string,
	body io.Reader,
) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.url+urlPath, body)
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	return req, nil
}

// extractCSRFToken finds the CSRF token of the form posting to formActionURLPath. Forms that post to the path
// through a submit button with formaction are found too.
func extractCSRFToken(doc *goquery.Document, formActionURLPath string) (string, error) {
	form := doc.Find(fmt.Sprintf("form[action='%s']", formActionURLPath))
	if form.Length() == 0 {
		form = doc.Find(fmt.Sprintf("button[formaction='%s']", formActionURLPath)).Closest("form")
	}
	csrfToken, ok := form.Find("input[name=csrf_token]").Attr("value")
	if !ok {
		return "", errors.New("csrf_token not found in form", slog.String("action", formActionURLPath))
	}
	return csrfToken, nil
}

// PostForm fetches the page at formURLPath, posts values with its CSRF token to formActionURLPath and returns the
// response after redirects. The caller closes the body.
func (c *Client) PostForm(
	ctx context.Context,
	formURLPath string,
	formActionURLPath string,
	values neturl.Values,
) (*http.Response, error) {
	var (
		doc *goquery.Document
		err error
	)
	if doc, err = c.GetDoc(ctx, formURLPath); err != nil {
		return nil, errors.Wrap(err, "get document")
	}

	var csrfToken string
	if csrfToken, err = extractCSRFToken(doc, formActionURLPath); err != nil {
		return nil, errors.Wrap(err, "extract CSRF token")
	}

	formData := neturl.Values{}
	for key, vs := range values {
		formData[key] = append([]string(nil), vs...)
	}
	formData.Set("csrf_token", csrfToken)

	var req *http.Request
	if req, err = c.newRequestWithContext(ctx, http.MethodPost, formActionURLPath,
		strings.NewReader(formData.Encode())); err != nil {
		return nil, errors.Wrap(err, "new request with context")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	var resp *http.Response
	if resp, err = c.client.Do(req); err != nil {
		return nil, errors.Wrap(err, "do request")
	}
	return resp, nil
}

// SubmitForm is [Client.PostForm] expecting a successful response document.
func (c *Client) SubmitForm(
	ctx context.Context,
	formURLPath string,
	formActionURLPath string,
	values neturl.Values,
) (*goquery.Document, error) {
	resp, err := c.PostForm(ctx, formURLPath, formActionURLPath, values)
	if err != nil {
		return nil, err
	}
	return documentFromResponse(resp)
}

func documentFromResponse(resp *http.Response) (*goquery.Document, error) {
	defer func() {
		_ = resp.Body.Close()
	}()
	if http.StatusOK != resp.StatusCode {
		return nil, errors.New("unexpected status code", slog.Int("status", resp.StatusCode),
			slog.String("url", resp.Request.URL.String()))
	}
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "create document from reader")
	}
	return doc, nil
}
