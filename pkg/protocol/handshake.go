package protocol

import (
	"encoding/json"
	"fmt"
	"net/url"
)

// HandshakeError indicates a malformed initial client payload. Session
// creation aborts before any component is built.
type HandshakeError struct {
	Field  string
	Reason string
}

// Error returns the error message.
func (e *HandshakeError) Error() string {
	return fmt.Sprintf("protocol: handshake field %q: %s", e.Field, e.Reason)
}

// Handshake is the initial client message supplied when a session is
// created: the connect URL, stored user settings, and locale/window
// information the server needs before the first build.
type Handshake struct {
	// URL is the address the client used to connect. Proxies may make
	// this differ from what the HTTP layer sees.
	URL string `json:"url"`

	// UserSettings are the client-persisted settings.
	UserSettings map[string]any `json:"userSettings"`

	PrefersLightTheme bool `json:"prefersLightTheme"`

	// PreferredLanguages are RFC 5646 codes, most preferred first.
	// May be empty.
	PreferredLanguages []string `json:"preferredLanguages"`

	// Timezone is an IANA timezone name.
	Timezone string `json:"timezone"`

	DecimalSeparator   string `json:"decimalSeparator"`
	ThousandsSeparator string `json:"thousandsSeparator"`

	WindowWidth  float64 `json:"windowWidth"`
	WindowHeight float64 `json:"windowHeight"`
}

// Validate checks the payload for the fields session creation requires.
func (h *Handshake) Validate() error {
	if h.URL == "" {
		return &HandshakeError{Field: "url", Reason: "missing"}
	}
	u, err := url.Parse(h.URL)
	if err != nil || u.Scheme == "" {
		return &HandshakeError{Field: "url", Reason: "not an absolute URL"}
	}
	if h.WindowWidth < 0 || h.WindowHeight < 0 {
		return &HandshakeError{Field: "windowWidth", Reason: "negative window size"}
	}
	return nil
}

// ParseHandshake decodes and validates the initial client payload.
func ParseHandshake(data []byte) (*Handshake, error) {
	var h Handshake
	if err := json.Unmarshal(data, &h); err != nil {
		return nil, &HandshakeError{Field: "payload", Reason: err.Error()}
	}
	if err := h.Validate(); err != nil {
		return nil, err
	}
	return &h, nil
}

// DefaultHandshake returns a handshake with sensible defaults for unit
// tests, crawlers and programmatic drivers.
func DefaultHandshake(rawURL string) *Handshake {
	return &Handshake{
		URL:                rawURL,
		UserSettings:       map[string]any{},
		PrefersLightTheme:  true,
		PreferredLanguages: []string{"en-US"},
		Timezone:           "America/New_York",
		DecimalSeparator:   ".",
		ThousandsSeparator: ",",
		WindowWidth:        1920,
		WindowHeight:       1080,
	}
}
