// QRPulse - QR Code Scan Analytics and Rendering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/qrpulse

package qr

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tomtom215/qrpulse/internal/models"
)

var (
	ErrEmptyContent = errors.New("qr: empty content")
	ErrUnknownType  = errors.New("qr: unknown payload type")
)

// EncodePayload serialises the request content into the string stored in
// the symbol. Text-like types are used verbatim; email is not prefixed with
// mailto:. Structured types given as a pre-serialised string are also used
// verbatim.
func EncodePayload(req *models.QRRenderRequest) (string, error) {
	c := req.Content
	switch req.Type {
	case models.PayloadURL, models.PayloadText, models.PayloadEmail:
		return nonEmpty(c.Text)

	case models.PayloadWiFi:
		if c.WiFi == nil {
			return nonEmpty(c.Text)
		}
		return encodeWiFi(c.WiFi)

	case models.PayloadContact:
		if c.Contact == nil {
			return nonEmpty(c.Text)
		}
		return encodeVCard(c.Contact)

	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownType, req.Type)
	}
}

func nonEmpty(s string) (string, error) {
	if strings.TrimSpace(s) == "" {
		return "", ErrEmptyContent
	}
	return s, nil
}

var wifiEscaper = strings.NewReplacer(
	`\`, `\\`,
	`;`, `\;`,
	`,`, `\,`,
	`:`, `\:`,
	`"`, `\"`,
)

// encodeWiFi builds the de-facto WIFI: URI understood by phone cameras.
func encodeWiFi(w *models.WiFiContent) (string, error) {
	if strings.TrimSpace(w.SSID) == "" {
		return "", fmt.Errorf("%w: wifi ssid", ErrEmptyContent)
	}
	sec := w.Security
	if sec == "" {
		sec = models.SecurityWPA
	}

	var b strings.Builder
	b.WriteString("WIFI:T:")
	b.WriteString(sec)
	b.WriteString(";S:")
	b.WriteString(wifiEscaper.Replace(w.SSID))
	b.WriteString(";")
	if sec != models.SecurityNoPass {
		b.WriteString("P:")
		b.WriteString(wifiEscaper.Replace(w.Password))
		b.WriteString(";")
	}
	if w.Hidden {
		b.WriteString("H:true;")
	}
	b.WriteString(";")
	return b.String(), nil
}

var vcardEscaper = strings.NewReplacer(
	`\`, `\\`,
	`;`, `\;`,
	`,`, `\,`,
	"\r\n", `\n`,
	"\n", `\n`,
)

// encodeVCard builds a vCard 3.0. Only fields that are set produce lines.
func encodeVCard(c *models.ContactContent) (string, error) {
	if c.IsEmpty() {
		return "", fmt.Errorf("%w: contact", ErrEmptyContent)
	}

	lines := []string{"BEGIN:VCARD", "VERSION:3.0"}
	if name := strings.TrimSpace(c.Name); name != "" {
		given, family := splitName(name)
		lines = append(lines,
			"N:"+vcardEscaper.Replace(family)+";"+vcardEscaper.Replace(given)+";;;",
			"FN:"+vcardEscaper.Replace(name),
		)
	}
	add := func(prop, v string) {
		if v = strings.TrimSpace(v); v != "" {
			lines = append(lines, prop+":"+vcardEscaper.Replace(v))
		}
	}
	add("ORG", c.Organization)
	add("TEL", c.Phone)
	add("EMAIL", c.Email)
	add("URL", c.URL)
	if addr := strings.TrimSpace(c.Address); addr != "" {
		// street component of ADR
		lines = append(lines, "ADR:;;"+vcardEscaper.Replace(addr)+";;;;")
	}
	lines = append(lines, "END:VCARD")
	return strings.Join(lines, "\r\n"), nil
}

// splitName treats the last word as the family name.
func splitName(name string) (given, family string) {
	i := strings.LastIndexByte(name, ' ')
	if i < 0 {
		return name, ""
	}
	return strings.TrimSpace(name[:i]), name[i+1:]
}
