// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package attach

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/campus-chat/internal/model"
)

// 1x1 transparent PNG.
var pngBytes = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, data, 0644))
	return p
}

func fixedIntake(max int64) *Intake {
	in := New(max)
	in.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return in
}

func TestFromFile_Image(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "diagram.png", pngBytes)

	a, err := fixedIntake(0).FromFile(p, 2)
	require.NoError(t, err)

	assert.Equal(t, "file_1700000000000_2", a.ID)
	assert.Equal(t, "diagram.png", a.Name)
	assert.Equal(t, int64(len(pngBytes)), a.Size)
	assert.Equal(t, "image/png", a.Type)
	assert.True(t, a.IsImage())
	assert.True(t, strings.HasPrefix(a.Data, "data:image/png;base64,"))

	raw, err := Decode(a)
	require.NoError(t, err)
	assert.Equal(t, pngBytes, raw)
}

func TestFromReader_TextDocument(t *testing.T) {
	a, err := fixedIntake(0).FromReader("notes.txt", strings.NewReader("lecture notes"), 0)
	require.NoError(t, err)
	assert.Equal(t, "text/plain", a.Type)
	assert.False(t, a.IsImage())
}

func TestFromReader_TooLarge(t *testing.T) {
	in := fixedIntake(8)
	_, err := in.FromReader("big.txt", bytes.NewReader(make([]byte, 9)), 0)

	var rej *RejectedError
	require.True(t, errors.As(err, &rej))
	assert.Equal(t, "big.txt", rej.Name)
	assert.ErrorIs(t, err, ErrTooLarge)

	_, err = in.FromReader("fits.txt", bytes.NewReader(make([]byte, 8)), 0)
	assert.NoError(t, err)
}

func TestFromFile_TooLargeChecksStat(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "huge.pdf", make([]byte, 64))

	_, err := fixedIntake(32).FromFile(p, 0)
	assert.ErrorIs(t, err, ErrTooLarge)
	assert.Contains(t, err.Error(), "Maximum size is 32 Bytes")
}

func TestFromReader_UnsupportedType(t *testing.T) {
	_, err := fixedIntake(0).FromReader("main.go", strings.NewReader("package main"), 0)
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestCollect_ContinuesPastRejections(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "a.png", pngBytes)
	bad := writeFile(t, dir, "b.exe", []byte("MZ"))
	missing := filepath.Join(dir, "missing.pdf")
	other := writeFile(t, dir, "c.pdf", []byte("%PDF-1.4"))

	accepted, rejected := fixedIntake(0).Collect([]string{good, bad, missing, other, dir})

	require.Len(t, accepted, 2)
	assert.Equal(t, "a.png", accepted[0].Name)
	assert.Equal(t, "c.pdf", accepted[1].Name)
	assert.Equal(t, "application/pdf", accepted[1].Type)
	assert.NotEqual(t, accepted[0].ID, accepted[1].ID)

	require.Len(t, rejected, 3)
	assert.Equal(t, "b.exe", rejected[0].Name)
	assert.Equal(t, "missing.pdf", rejected[1].Name)
	assert.Equal(t, "is a directory", rejected[2].Reason)
}

func TestDecode(t *testing.T) {
	raw, err := Decode(model.Attachment{Name: "x", Data: "aGVsbG8="})
	require.NoError(t, err)
	assert.Equal(t, "hello", string(raw))

	_, err = Decode(model.Attachment{Name: "x", Data: "data:text/plain,hello"})
	assert.Error(t, err)

	_, err = Decode(model.Attachment{Name: "x", URL: "https://example.com/x"})
	assert.Error(t, err)
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 Bytes"},
		{500, "500 Bytes"},
		{1024, "1 KB"},
		{1536, "1.5 KB"},
		{10 * 1024 * 1024, "10 MB"},
		{1234567, "1.18 MB"},
		{3 * 1024 * 1024 * 1024, "3 GB"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatSize(tt.in), "FormatSize(%d)", tt.in)
	}
}

func TestAccepted(t *testing.T) {
	assert.True(t, Accepted("photo.heic", "image/heic"))
	assert.True(t, Accepted("slides.PPTX", "application/zip"))
	assert.False(t, Accepted("script.sh", "text/x-sh"))
}
