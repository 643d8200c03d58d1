// QRPulse - QR Code Scan Analytics and Rendering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/qrpulse

// Package config loads QRPulse configuration with koanf.
//
// Sources are layered, later ones winning:
//
//  1. Built-in defaults (defaultConfig)
//  2. A YAML file: $CONFIG_PATH, else the first of DefaultConfigPaths that exists
//  3. Environment variables, mapped explicitly in envTransformFunc
//
// Environment variables that are not in the mapping are ignored, so the
// process environment cannot inject arbitrary keys.
package config
