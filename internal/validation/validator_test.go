// QRPulse - QR Code Scan Analytics and Rendering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/qrpulse

package validation

import (
	"strings"
	"testing"

	"github.com/tomtom215/qrpulse/internal/models"
)

func TestGetValidatorSingleton(t *testing.T) {
	t.Parallel()

	if GetValidator() != GetValidator() || GetValidator() == nil {
		t.Error("GetValidator() must return one shared instance")
	}
}

func wifi(ssid string) models.QRContent {
	return models.QRContent{WiFi: &models.WiFiContent{SSID: ssid, Password: "pw", Security: "WPA"}}
}

func TestValidateRenderRequest(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		req    models.QRRenderRequest
		fields []string
	}{
		{
			name: "valid url",
			req:  models.QRRenderRequest{Type: models.PayloadURL, Content: models.QRContent{Text: "https://x.test"}},
		},
		{
			name: "valid wifi with frame",
			req: models.QRRenderRequest{
				Type: models.PayloadWiFi, Content: wifi("Net"), Size: 300,
				Color: models.QRColor{Dark: "#000", Light: "#ffffff"},
				Frame: &models.QRFrame{Style: "rounded", Color: "#123abc"},
			},
		},
		{
			name:   "missing type",
			req:    models.QRRenderRequest{Content: models.QRContent{Text: "x"}},
			fields: []string{"type"},
		},
		{
			name:   "unknown type",
			req:    models.QRRenderRequest{Type: "sms", Content: models.QRContent{Text: "x"}},
			fields: []string{"type"},
		},
		{
			name:   "empty text content",
			req:    models.QRRenderRequest{Type: models.PayloadText},
			fields: []string{"content"},
		},
		{
			name:   "wifi without ssid",
			req:    models.QRRenderRequest{Type: models.PayloadWiFi, Content: wifi("")},
			fields: []string{"content.ssid"},
		},
		{
			name:   "contact with no fields",
			req:    models.QRRenderRequest{Type: models.PayloadContact, Content: models.QRContent{Contact: &models.ContactContent{}}},
			fields: []string{"content"},
		},
		{
			name: "contact bad email",
			req: models.QRRenderRequest{Type: models.PayloadContact, Content: models.QRContent{
				Contact: &models.ContactContent{Name: "A", Email: "nope"},
			}},
			fields: []string{"content.email"},
		},
		{
			name: "bad colours and frame",
			req: models.QRRenderRequest{
				Type: models.PayloadURL, Content: models.QRContent{Text: "x"},
				Color: models.QRColor{Dark: "black"},
				Frame: &models.QRFrame{Style: "star"},
			},
			fields: []string{"color.dark", "frame.style"},
		},
		{
			name: "logo not a data url",
			req: models.QRRenderRequest{
				Type: models.PayloadURL, Content: models.QRContent{Text: "x"},
				Logo: &models.QRLogo{DataURL: "https://x.test/logo.png"},
			},
			fields: []string{"logo.dataUrl"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			verr := ValidateStruct(&tt.req)
			if len(tt.fields) == 0 {
				if verr != nil {
					t.Fatalf("unexpected error: %v", verr)
				}
				return
			}
			if verr == nil {
				t.Fatal("expected validation error")
			}
			got := map[string]bool{}
			for _, e := range verr.Errors() {
				got[e.Field()] = true
			}
			for _, f := range tt.fields {
				if !got[f] {
					t.Errorf("missing error for %s; got %v", f, verr)
				}
			}
		})
	}
}

func TestToAPIError(t *testing.T) {
	t.Parallel()

	req := models.QRRenderRequest{Type: "bad", Color: models.QRColor{Light: "white"}}
	verr := ValidateStruct(&req)
	if verr == nil {
		t.Fatal("expected error")
	}
	apiErr := verr.ToAPIError()
	if apiErr.Code != "VALIDATION_ERROR" {
		t.Errorf("Code = %s", apiErr.Code)
	}
	fields, ok := apiErr.Details["fields"].(map[string]string)
	if !ok {
		t.Fatalf("Details = %#v", apiErr.Details)
	}
	if !strings.HasPrefix(fields["type"], "type must be one of") {
		t.Errorf("type message = %q", fields["type"])
	}
	if fields["color.light"] != "color.light must be a hex colour such as #1a2b3c" {
		t.Errorf("colour message = %q", fields["color.light"])
	}
}

type summaryQuery struct {
	QRCodeID string `json:"qrCodeId" validate:"omitempty,max=64"`
	Period   string `json:"period" validate:"omitempty,oneof=7d 30d 90d 1y all"`
	Limit    int    `json:"limit" validate:"gte=0,lte=100"`
}

func TestTranslateMessages(t *testing.T) {
	t.Parallel()

	verr := ValidateStruct(&summaryQuery{QRCodeID: strings.Repeat("x", 65), Period: "2d", Limit: 101})
	if verr == nil {
		t.Fatal("expected error")
	}
	want := map[string]string{
		"qrCodeId": "qrCodeId must be at most 64 characters",
		"period":   "period must be one of: 7d 30d 90d 1y all",
		"limit":    "limit must be less than or equal to 100",
	}
	for _, e := range verr.Errors() {
		if want[e.Field()] != e.Error() {
			t.Errorf("%s: %q, want %q", e.Field(), e.Error(), want[e.Field()])
		}
	}
	if len(verr.Errors()) != 3 {
		t.Errorf("errors = %v", verr)
	}
}

func TestValidateNonStruct(t *testing.T) {
	t.Parallel()

	verr := ValidateStruct("not a struct")
	if verr == nil || verr.Errors()[0].Field() != "request" {
		t.Errorf("ValidateStruct(string) = %v", verr)
	}
}
