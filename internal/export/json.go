// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"errors"
)

// errNilRecord is returned by every exporter for a nil record.
var errNilRecord = errors.New("export record is nil")

// =============================================================================
// JSON EXPORTER
// =============================================================================

// JSONExporter writes the record as indented JSON.
type JSONExporter struct {
	options *Options
}

// NewJSONExporter creates a JSON exporter.
func NewJSONExporter(opts *Options) *JSONExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &JSONExporter{options: opts}
}

// Export marshals the whole record.
func (e *JSONExporter) Export(rec *Record) ([]byte, error) {
	if rec == nil {
		return nil, errNilRecord
	}
	return json.MarshalIndent(rec, "", "  ")
}

// FileExtension returns the file extension for JSON.
func (e *JSONExporter) FileExtension() string {
	return ".json"
}

// MimeType returns the MIME type for JSON.
func (e *JSONExporter) MimeType() string {
	return "application/json"
}
