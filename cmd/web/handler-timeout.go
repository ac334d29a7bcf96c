package main

import (
	"net/http"
	"time"
)

// timeoutBody must work without scripts since the inline script policy requires a nonce.
const timeoutBody = `<!doctype html>
<html lang="en">
<head><title>Timeout</title></head>
<body>
<h1>The trail went cold</h1>
<p>The server took too long to answer. Your case is safe.</p>
<p><a href="/">Back to the case</a></p>
</body>
</html>
`

// timeout responds with 503 Service Unavailable when the handler does not finish in time.
func (app *application) timeout(next http.Handler) http.Handler {
	return timeoutHandler(next, defaultTimeout)
}

// timeoutHandler gives up a little before the server's write deadline so that the 503 still reaches the browser.
func timeoutHandler(h http.Handler, writeTimeout time.Duration) http.Handler {
	return http.TimeoutHandler(h, writeTimeout-500*time.Millisecond, timeoutBody) //nolint:mnd // 500ms
}
