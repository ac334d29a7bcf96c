package contexthelpers

import (
	"context"
)

// PlayerID returns the anonymous player ID of the browser session or an empty string outside a session.
func PlayerID(ctx context.Context) string {
	playerID, ok := ctx.Value(playerIDContextKey).(string)
	if !ok {
		return ""
	}

	return playerID
}

func CurrentPath(ctx context.Context) string {
	currentPath, ok := ctx.Value(currentPathContextKey).(string)
	if !ok {
		return ""
	}

	return currentPath
}

func CSRFToken(ctx context.Context) string {
	csrfToken, ok := ctx.Value(csrfTokenContextKey).(string)
	if !ok {
		return ""
	}

	return csrfToken
}

func CSPNonce(ctx context.Context) string {
	nonce, ok := ctx.Value(cspNonceContextKey).(string)
	if !ok {
		return ""
	}

	return nonce
}
