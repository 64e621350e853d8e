// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package attach

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"math"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jeranaias/campus-chat/internal/model"
)

// DefaultMaxBytes is the per-file size limit.
const DefaultMaxBytes int64 = 10 * 1024 * 1024

var (
	// ErrTooLarge is wrapped by rejections for files above the limit.
	ErrTooLarge = errors.New("file too large")

	// ErrUnsupportedType is wrapped by rejections for file types outside
	// the accepted list.
	ErrUnsupportedType = errors.New("unsupported file type")
)

// acceptedExtensions lists the non-image document types users may attach.
var acceptedExtensions = map[string]bool{
	".pdf": true, ".doc": true, ".docx": true, ".txt": true, ".rtf": true,
	".ppt": true, ".pptx": true, ".xls": true, ".xlsx": true,
}

// =============================================================================
// ERRORS
// =============================================================================

// RejectedError reports a file that was not attached.
type RejectedError struct {
	Name   string
	Reason string
	Err    error
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("%s: %s", e.Name, e.Reason)
}

func (e *RejectedError) Unwrap() error {
	return e.Err
}

// =============================================================================
// INTAKE
// =============================================================================

// Intake turns files into message attachments.
type Intake struct {
	// MaxBytes is the per-file limit. Zero means DefaultMaxBytes.
	MaxBytes int64

	now func() time.Time
}

// New returns an intake with the given limit.
func New(maxBytes int64) *Intake {
	return &Intake{MaxBytes: maxBytes, now: time.Now}
}

func (in *Intake) limit() int64 {
	if in.MaxBytes <= 0 {
		return DefaultMaxBytes
	}
	return in.MaxBytes
}

func (in *Intake) clock() time.Time {
	if in.now == nil {
		return time.Now()
	}
	return in.now()
}

// FromFile reads path into an attachment. index distinguishes files added
// in the same batch.
func (in *Intake) FromFile(path string, index int) (model.Attachment, error) {
	name := filepath.Base(path)

	info, err := os.Stat(path)
	if err != nil {
		return model.Attachment{}, &RejectedError{Name: name, Reason: "cannot read file", Err: err}
	}
	if info.IsDir() {
		return model.Attachment{}, &RejectedError{Name: name, Reason: "is a directory"}
	}
	if info.Size() > in.limit() {
		return model.Attachment{}, in.tooLarge(name)
	}

	f, err := os.Open(path)
	if err != nil {
		return model.Attachment{}, &RejectedError{Name: name, Reason: "cannot read file", Err: err}
	}
	defer f.Close()

	return in.FromReader(name, f, index)
}

// FromReader reads r into an attachment named name, enforcing the size limit
// and the accepted type list.
func (in *Intake) FromReader(name string, r io.Reader, index int) (model.Attachment, error) {
	limit := in.limit()
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return model.Attachment{}, &RejectedError{Name: name, Reason: "cannot read file", Err: err}
	}
	if int64(len(data)) > limit {
		return model.Attachment{}, in.tooLarge(name)
	}

	mimeType := DetectType(name, data)
	if !Accepted(name, mimeType) {
		return model.Attachment{}, &RejectedError{Name: name, Reason: "unsupported file type", Err: ErrUnsupportedType}
	}

	return model.Attachment{
		ID:   fmt.Sprintf("file_%d_%d", in.clock().UnixMilli(), index),
		Name: name,
		Size: int64(len(data)),
		Type: mimeType,
		Data: DataURL(mimeType, data),
	}, nil
}

// Collect attaches every path it can. Failures are returned per file and
// do not stop the batch.
func (in *Intake) Collect(paths []string) ([]model.Attachment, []*RejectedError) {
	var accepted []model.Attachment
	var rejected []*RejectedError
	for i, p := range paths {
		a, err := in.FromFile(p, i)
		if err != nil {
			var rej *RejectedError
			if !errors.As(err, &rej) {
				rej = &RejectedError{Name: filepath.Base(p), Reason: err.Error(), Err: err}
			}
			rejected = append(rejected, rej)
			continue
		}
		accepted = append(accepted, a)
	}
	return accepted, rejected
}

func (in *Intake) tooLarge(name string) *RejectedError {
	return &RejectedError{
		Name:   name,
		Reason: "file is too large. Maximum size is " + FormatSize(in.limit()),
		Err:    ErrTooLarge,
	}
}

// =============================================================================
// HELPERS
// =============================================================================

// DetectType returns the MIME type from the extension, falling back to
// content sniffing.
func DetectType(name string, head []byte) string {
	if t := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); t != "" {
		if mt, _, err := mime.ParseMediaType(t); err == nil {
			return mt
		}
		return t
	}
	t := http.DetectContentType(head)
	if mt, _, err := mime.ParseMediaType(t); err == nil {
		return mt
	}
	return t
}

// Accepted reports whether a file may be attached: any image, or a document
// with an accepted extension.
func Accepted(name, mimeType string) bool {
	if strings.HasPrefix(mimeType, "image/") {
		return true
	}
	return acceptedExtensions[strings.ToLower(filepath.Ext(name))]
}

// DataURL encodes data as a base64 data URL.
func DataURL(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// Decode returns the raw bytes of an inline attachment. Both data URLs and
// bare base64 are accepted.
func Decode(a model.Attachment) ([]byte, error) {
	payload := a.Data
	if strings.HasPrefix(payload, "data:") {
		idx := strings.Index(payload, ",")
		if idx < 0 || !strings.HasSuffix(payload[:idx], ";base64") {
			return nil, fmt.Errorf("attachment %s: malformed data URL", a.Name)
		}
		payload = payload[idx+1:]
	}
	if payload == "" {
		return nil, fmt.Errorf("attachment %s: no inline content", a.Name)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("attachment %s: %w", a.Name, err)
	}
	return data, nil
}

var sizeUnits = []string{"Bytes", "KB", "MB", "GB"}

// FormatSize renders a byte count with up to two decimals: 1536 is "1.5 KB".
func FormatSize(n int64) string {
	if n <= 0 {
		return "0 Bytes"
	}
	i := int(math.Floor(math.Log(float64(n)) / math.Log(1024)))
	if i >= len(sizeUnits) {
		i = len(sizeUnits) - 1
	}
	v := float64(n) / math.Pow(1024, float64(i))
	v = math.Round(v*100) / 100
	return strconv.FormatFloat(v, 'f', -1, 64) + " " + sizeUnits[i]
}
