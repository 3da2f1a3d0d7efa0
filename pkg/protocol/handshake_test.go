package protocol

import (
	"errors"
	"testing"
)

func TestParseHandshake(t *testing.T) {
	data := []byte(`{
		"url": "https://example.com/app",
		"userSettings": {"theme": "dark"},
		"prefersLightTheme": false,
		"preferredLanguages": ["de-DE", "en-US"],
		"timezone": "Europe/Berlin",
		"decimalSeparator": ",",
		"thousandsSeparator": ".",
		"windowWidth": 1280,
		"windowHeight": 720
	}`)

	h, err := ParseHandshake(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if h.URL != "https://example.com/app" {
		t.Fatalf("url = %q", h.URL)
	}
	if h.Timezone != "Europe/Berlin" {
		t.Fatalf("timezone = %q", h.Timezone)
	}
	if h.WindowWidth != 1280 || h.WindowHeight != 720 {
		t.Fatalf("window = %gx%g", h.WindowWidth, h.WindowHeight)
	}
}

func TestHandshakeValidation(t *testing.T) {
	cases := []struct {
		name  string
		h     Handshake
		field string
	}{
		{"missing url", Handshake{}, "url"},
		{"relative url", Handshake{URL: "/app"}, "url"},
		{"negative window", Handshake{URL: "https://x.test", WindowWidth: -1}, "windowWidth"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.h.Validate()
			var he *HandshakeError
			if !errors.As(err, &he) {
				t.Fatalf("err = %v, want HandshakeError", err)
			}
			if he.Field != tc.field {
				t.Fatalf("field = %q, want %q", he.Field, tc.field)
			}
		})
	}
}

func TestDefaultHandshakeIsValid(t *testing.T) {
	h := DefaultHandshake("http://localhost/")
	if err := h.Validate(); err != nil {
		t.Fatalf("default handshake invalid: %v", err)
	}
}
