package websocket

import (
	"strings"

	"orbitrelay.dev/orbitlib/connection/transporter"
)

const (
	HttpsOnlyWebsocketScheme = "wss://"
	HttpWebsocketScheme      = "ws://"

	httpsScheme = "https://"
	httpScheme  = "http://"
)

// NormalizeUrl validates a relay endpoint and rewrites http(s) schemes to their
// websocket equivalents. Everything after the scheme is kept verbatim.
func NormalizeUrl(rawUrl string) (string, error) {
	relayUrl := strings.TrimSpace(rawUrl)
	if relayUrl == "" {
		return "", &transporter.ConfigError{Reason: "relay URL is required"}
	}

	if rest, ok := strings.CutPrefix(relayUrl, httpsScheme); ok {
		return HttpsOnlyWebsocketScheme + rest, nil
	} else if rest, ok := strings.CutPrefix(relayUrl, httpScheme); ok {
		return HttpWebsocketScheme + rest, nil
	} else if strings.HasPrefix(relayUrl, HttpsOnlyWebsocketScheme) || strings.HasPrefix(relayUrl, HttpWebsocketScheme) {
		return relayUrl, nil
	}

	return "", &transporter.ConfigError{Reason: "relay URL must start with https://, http://, wss://, or ws://"}
}
