// QRPulse - QR Code Scan Analytics and Rendering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/qrpulse

package models

import (
	"bytes"
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

// PayloadType selects how QR content is serialised.
type PayloadType string

const (
	PayloadURL     PayloadType = "url"
	PayloadText    PayloadType = "text"
	PayloadWiFi    PayloadType = "wifi"
	PayloadContact PayloadType = "contact"
	PayloadEmail   PayloadType = "email"
)

// WiFi security modes.
const (
	SecurityWPA    = "WPA"
	SecurityWEP    = "WEP"
	SecurityNoPass = "nopass"
)

type WiFiContent struct {
	SSID     string `json:"ssid" validate:"required,max=32"`
	Password string `json:"password,omitempty" validate:"max=63"`
	Security string `json:"security,omitempty" validate:"omitempty,oneof=WPA WEP nopass"`
	Hidden   bool   `json:"hidden,omitempty"`
}

type ContactContent struct {
	Name         string `json:"name,omitempty"`
	Organization string `json:"organization,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Email        string `json:"email,omitempty" validate:"omitempty,email"`
	URL          string `json:"url,omitempty"`
	Address      string `json:"address,omitempty"`
}

// IsEmpty reports whether no contact field is set.
func (c *ContactContent) IsEmpty() bool {
	return *c == ContactContent{}
}

// QRContent is the type-specific payload. Exactly one member is meaningful,
// chosen by the owning request's PayloadType.
type QRContent struct {
	Text    string
	WiFi    *WiFiContent
	Contact *ContactContent
}

// MarshalJSON writes the active member: a string for text-like types, an
// object otherwise.
func (c QRContent) MarshalJSON() ([]byte, error) {
	switch {
	case c.WiFi != nil:
		return json.Marshal(c.WiFi)
	case c.Contact != nil:
		return json.Marshal(c.Contact)
	default:
		return json.Marshal(c.Text)
	}
}

// DecodeContent interprets raw JSON content for the given payload type.
// A bare string is accepted for every type so that platform records storing
// a pre-serialised payload still decode; structured types then carry it in
// Text.
func DecodeContent(t PayloadType, raw json.RawMessage) (QRContent, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return QRContent{}, nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return QRContent{}, fmt.Errorf("content: %w", err)
		}
		return QRContent{Text: s}, nil
	}

	switch t {
	case PayloadWiFi:
		var w WiFiContent
		if err := json.Unmarshal(raw, &w); err != nil {
			return QRContent{}, fmt.Errorf("wifi content: %w", err)
		}
		return QRContent{WiFi: &w}, nil
	case PayloadContact:
		var c ContactContent
		if err := json.Unmarshal(raw, &c); err != nil {
			return QRContent{}, fmt.Errorf("contact content: %w", err)
		}
		return QRContent{Contact: &c}, nil
	default:
		return QRContent{}, fmt.Errorf("content for type %q must be a string", t)
	}
}

type QRColor struct {
	Dark  string `json:"dark" validate:"omitempty,hexcolor"`
	Light string `json:"light" validate:"omitempty,hexcolor"`
}

// Frame styles.
const (
	FrameSquare  = "square"
	FrameCircle  = "circle"
	FrameRounded = "rounded"
	FrameDashed  = "dashed"
)

type QRFrame struct {
	Style string `json:"style" validate:"required,oneof=square circle rounded dashed"`
	Color string `json:"color,omitempty" validate:"omitempty,hexcolor"`
	Size  int    `json:"size,omitempty" validate:"gte=0,lte=256"`
}

type QRLogo struct {
	DataURL string `json:"dataUrl" validate:"required,startswith=data:"`
	Size    int    `json:"size,omitempty" validate:"gte=0"`
}

// QRRenderRequest is the input to the rendering pipeline.
type QRRenderRequest struct {
	Type    PayloadType `json:"type" validate:"required,oneof=url text wifi contact email"`
	Content QRContent   `json:"content"`
	Size    int         `json:"size,omitempty" validate:"gte=0"`
	Color   QRColor     `json:"color"`
	Frame   *QRFrame    `json:"frame,omitempty"`
	Logo    *QRLogo     `json:"logo,omitempty"`
}

// UnmarshalJSON decodes content according to the request type.
func (r *QRRenderRequest) UnmarshalJSON(data []byte) error {
	type alias QRRenderRequest
	aux := struct {
		*alias
		Content json.RawMessage `json:"content"`
	}{alias: (*alias)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	content, err := DecodeContent(r.Type, aux.Content)
	if err != nil {
		return err
	}
	r.Content = content
	return nil
}

// QRSettings is the styling block of a stored QR entity.
type QRSettings struct {
	Size  int      `json:"size"`
	Color QRColor  `json:"color"`
	Frame *QRFrame `json:"frame,omitempty"`
	Logo  *QRLogo  `json:"logo,omitempty"`
}

// QRCode is a QR entity as returned by the platform persistence API.
type QRCode struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Type      PayloadType `json:"type"`
	Content   QRContent   `json:"content"`
	Settings  QRSettings  `json:"settings"`
	IsDynamic bool        `json:"isDynamic"`
	ShortURL  string      `json:"shortUrl,omitempty"`
	CreatedAt time.Time   `json:"createdAt"`
}

func (q *QRCode) UnmarshalJSON(data []byte) error {
	type alias QRCode
	aux := struct {
		*alias
		Content json.RawMessage `json:"content"`
	}{alias: (*alias)(q)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	content, err := DecodeContent(q.Type, aux.Content)
	if err != nil {
		return err
	}
	q.Content = content
	return nil
}

// QRCodeSummary is a row of the user's QR code list.
type QRCodeSummary struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Type       PayloadType `json:"type"`
	TotalScans int64       `json:"totalScans"`
}
