// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export produces academic export reports.
//
// Build aggregates messages and study sessions into a Record; an Exporter
// serializes it.
//
// # Supported Formats
//
//   - JSON: the record structure, indented
//   - Text: fixed sections followed by the transcript
//   - Markdown: the same sections with headings and emphasis
//
// Output depends only on the record and Options, so a fixed export date
// gives byte-identical files.
//
// # Usage
//
//	rec := export.Build(mgr.Messages(), tracker.Sessions(), time.Now())
//	exp, _ := export.New(export.FormatMarkdown, nil)
//	path, err := export.ExportToFile(rec, exp, &export.Options{OutputDir: "."})
package export
