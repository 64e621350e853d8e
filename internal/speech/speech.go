// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package speech

import (
	"context"
	"errors"
)

// ErrUnsupported is returned when no speech engine is available.
var ErrUnsupported = errors.New("speech not supported")

// Options tune an utterance. Zero fields take the defaults of 1.0.
type Options struct {
	Voice  string
	Rate   float64
	Pitch  float64
	Volume float64
}

// DefaultOptions returns normal rate, pitch and volume with the engine's
// default voice.
func DefaultOptions() Options {
	return Options{Rate: 1.0, Pitch: 1.0, Volume: 1.0}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Rate <= 0 {
		o.Rate = d.Rate
	}
	if o.Pitch <= 0 {
		o.Pitch = d.Pitch
	}
	if o.Volume <= 0 {
		o.Volume = d.Volume
	}
	return o
}

// Voice is one installed voice.
type Voice struct {
	Name     string
	Language string
}

// Synthesizer speaks text aloud. Speak blocks until the utterance ends and
// interrupts any utterance already playing.
type Synthesizer interface {
	IsSupported() bool
	Voices() []Voice
	Speak(ctx context.Context, text string, opts Options) error
	Stop()
	Pause()
	Resume()
	IsSpeaking() bool
	IsPaused() bool
}

// Recognizer turns one spoken phrase into text.
type Recognizer interface {
	IsSupported() bool
	Listen(ctx context.Context) (string, error)
}

// Unsupported is the synthesizer and recognizer used when no engine exists.
type Unsupported struct{}

var (
	_ Synthesizer = Unsupported{}
	_ Recognizer  = Unsupported{}
)

func (Unsupported) IsSupported() bool { return false }
func (Unsupported) Voices() []Voice { return nil }
func (Unsupported) Stop() {}
func (Unsupported) Pause() {}
func (Unsupported) Resume() {}
func (Unsupported) IsSpeaking() bool { return false }
func (Unsupported) IsPaused() bool { return false }

func (Unsupported) Speak(context.Context, string, Options) error {
	return ErrUnsupported
}

func (Unsupported) Listen(context.Context) (string, error) {
	return "", ErrUnsupported
}

// Detect returns a command-backed synthesizer for the first engine found on
// PATH, or Unsupported. No recognizer engine is bundled, so the recognizer
// is always Unsupported.
func Detect() (Synthesizer, Recognizer) {
	for _, eng := range Engines() {
		if s, err := NewCommandSynthesizer(eng); err == nil {
			return s, Unsupported{}
		}
	}
	return Unsupported{}, Unsupported{}
}
