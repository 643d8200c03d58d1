// QRPulse - QR Code Scan Analytics and Rendering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/qrpulse

package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/tomtom215/qrpulse/internal/models"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// ValidationError is one failed field.
type ValidationError struct {
	field   string
	tag     string
	param   string
	value   any
	message string
}

// Field is the JSON path of the failed field.
func (e *ValidationError) Field() string { return e.field }

func (e *ValidationError) Tag() string { return e.tag }

func (e *ValidationError) Param() string { return e.param }

func (e *ValidationError) Value() any { return e.value }

func (e *ValidationError) Error() string { return e.message }

// RequestValidationError collects every failed field of a request.
type RequestValidationError struct {
	errors []ValidationError
}

func (ve *RequestValidationError) Errors() []ValidationError {
	return ve.errors
}

func (ve *RequestValidationError) Error() string {
	if len(ve.errors) == 0 {
		return "validation failed"
	}
	messages := make([]string, len(ve.errors))
	for i := range ve.errors {
		messages[i] = ve.errors[i].message
	}
	return strings.Join(messages, "; ")
}

// APIError is the envelope error produced from validation failures.
type APIError struct {
	Code    string
	Message string
	Details map[string]any
}

// ToAPIError converts the failures to a VALIDATION_ERROR with per-field
// messages in Details["fields"].
func (ve *RequestValidationError) ToAPIError() *APIError {
	apiErr := &APIError{Code: "VALIDATION_ERROR", Message: "Validation failed"}
	if len(ve.errors) == 0 {
		return apiErr
	}

	fields := make(map[string]string, len(ve.errors))
	for i := range ve.errors {
		e := &ve.errors[i]
		if _, dup := fields[e.field]; !dup {
			fields[e.field] = e.message
		}
	}
	apiErr.Message = ve.Error()
	apiErr.Details = map[string]any{"fields": fields}
	return apiErr
}

// GetValidator returns the shared validator.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(jsonName)
		validate.RegisterStructValidation(renderRequestLevel, models.QRRenderRequest{})
	})
	return validate
}

func jsonName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		return strings.ToLower(fld.Name)
	}
	return name
}

// renderRequestLevel checks that the content matches the payload type.
func renderRequestLevel(sl validator.StructLevel) {
	req, ok := sl.Current().Interface().(models.QRRenderRequest)
	if !ok {
		return
	}
	c := req.Content
	switch req.Type {
	case models.PayloadURL, models.PayloadText, models.PayloadEmail:
		if strings.TrimSpace(c.Text) == "" {
			sl.ReportError(c.Text, "content", "Content", "required", "")
		}
		if c.WiFi != nil || c.Contact != nil {
			sl.ReportError(c, "content", "Content", "string", "")
		}
	case models.PayloadWiFi:
		if c.WiFi == nil && strings.TrimSpace(c.Text) == "" {
			sl.ReportError(c, "content", "Content", "required", "")
		}
	case models.PayloadContact:
		if (c.Contact == nil || c.Contact.IsEmpty()) && strings.TrimSpace(c.Text) == "" {
			sl.ReportError(c, "content", "Content", "required", "")
		}
	}
}

// ValidateStruct validates s. It returns nil when s is valid.
func ValidateStruct(s any) *RequestValidationError {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &RequestValidationError{errors: []ValidationError{{
			field:   "request",
			tag:     "invalid",
			message: err.Error(),
		}}}
	}

	out := make([]ValidationError, len(fieldErrs))
	for i, fe := range fieldErrs {
		field := fieldPath(fe.Namespace())
		out[i] = ValidationError{
			field:   field,
			tag:     fe.Tag(),
			param:   fe.Param(),
			value:   fe.Value(),
			message: translate(fe, field),
		}
	}
	return &RequestValidationError{errors: out}
}

// fieldPath drops the root type name from a validator namespace and flattens
// the unnamed content union, so "QRRenderRequest.content.wifi.ssid" becomes
// "content.ssid".
func fieldPath(ns string) string {
	_, rest, found := strings.Cut(ns, ".")
	if !found {
		return ns
	}
	rest = strings.Replace(rest, "content.wifi.", "content.", 1)
	rest = strings.Replace(rest, "content.contact.", "content.", 1)
	return rest
}

var messages = map[string]string{
	"required":   "%s is required",
	"email":      "%s must be a valid email address",
	"url":        "%s must be a valid URL",
	"hexcolor":   "%s must be a hex colour such as #1a2b3c",
	"string":     "%s must be a string for this type",
	"startswith": "%s must be a data URL",
}

var paramMessages = map[string]string{
	"oneof": "%s must be one of: %s",
	"gte":   "%s must be greater than or equal to %s",
	"lte":   "%s must be less than or equal to %s",
	"gt":    "%s must be greater than %s",
	"lt":    "%s must be less than %s",
}

func translate(fe validator.FieldError, field string) string {
	if tmpl, ok := messages[fe.Tag()]; ok {
		return fmt.Sprintf(tmpl, field)
	}
	if tmpl, ok := paramMessages[fe.Tag()]; ok {
		return fmt.Sprintf(tmpl, field, fe.Param())
	}

	unit := ""
	if fe.Kind() == reflect.String {
		unit = " characters"
	}
	switch fe.Tag() {
	case "min":
		return fmt.Sprintf("%s must be at least %s%s", field, fe.Param(), unit)
	case "max":
		return fmt.Sprintf("%s must be at most %s%s", field, fe.Param(), unit)
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}
