// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package speech

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"
)

// =============================================================================
// ENGINES
// =============================================================================

// Engine describes a text-to-speech command line tool.
type Engine struct {
	// Name is the executable looked up on PATH.
	Name string

	// Args builds the arguments that speak text.
	Args func(text string, opts Options) []string

	// VoiceArgs lists installed voices; nil when the engine cannot.
	VoiceArgs []string

	// ParseVoices reads the output of VoiceArgs.
	ParseVoices func(out []byte) []Voice
}

// baseWPM is the speaking rate at Rate 1.0.
const baseWPM = 175

// Engines returns the supported engines in preference order.
func Engines() []Engine {
	return []Engine{espeakEngine("espeak-ng"), espeakEngine("espeak"), sayEngine()}
}

func espeakEngine(name string) Engine {
	return Engine{
		Name: name,
		Args: func(text string, opts Options) []string {
			args := []string{
				"-s", strconv.Itoa(int(baseWPM * opts.Rate)),
				"-p", strconv.Itoa(clamp(int(50*opts.Pitch), 0, 99)),
				"-a", strconv.Itoa(clamp(int(100*opts.Volume), 0, 200)),
			}
			if opts.Voice != "" {
				args = append(args, "-v", opts.Voice)
			}
			return append(args, "--", text)
		},
		VoiceArgs:   []string{"--voices"},
		ParseVoices: parseEspeakVoices,
	}
}

func sayEngine() Engine {
	return Engine{
		Name: "say",
		Args: func(text string, opts Options) []string {
			args := []string{"-r", strconv.Itoa(int(baseWPM * opts.Rate))}
			if opts.Voice != "" {
				args = append(args, "-v", opts.Voice)
			}
			return append(args, "--", text)
		},
		VoiceArgs:   []string{"-v", "?"},
		ParseVoices: parseSayVoices,
	}
}

// parseEspeakVoices reads the table printed by espeak --voices:
//
//	Pty Language       Age/Gender VoiceName          File                 Other Languages
//	 5  af              --/M      Afrikaans          gmw/af
func parseEspeakVoices(out []byte) []Voice {
	var voices []Voice
	sc := bufio.NewScanner(bytes.NewReader(out))
	first := true
	for sc.Scan() {
		if first {
			first = false
			continue
		}
		fields := strings.Fields(sc.Text())
		if len(fields) < 4 {
			continue
		}
		voices = append(voices, Voice{Name: fields[3], Language: fields[1]})
	}
	return voices
}

// parseSayVoices reads "Alex  en_US  # Most people recognize me by my voice."
func parseSayVoices(out []byte) []Voice {
	var voices []Voice
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		line := sc.Text()
		if i := strings.Index(line, "#"); i >= 0 {
			line = line[:i]
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		lang := fields[len(fields)-1]
		name := strings.Join(fields[:len(fields)-1], " ")
		voices = append(voices, Voice{Name: name, Language: lang})
	}
	return voices
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// =============================================================================
// COMMAND SYNTHESIZER
// =============================================================================

// CommandSynthesizer speaks through an external engine process. One process
// runs at a time.
type CommandSynthesizer struct {
	engine Engine
	path   string

	mu     sync.Mutex
	cmd    *exec.Cmd
	cancel context.CancelFunc
	paused bool
}

// NewCommandSynthesizer resolves the engine on PATH.
func NewCommandSynthesizer(engine Engine) (*CommandSynthesizer, error) {
	path, err := exec.LookPath(engine.Name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", engine.Name, ErrUnsupported)
	}
	return &CommandSynthesizer{engine: engine, path: path}, nil
}

// Engine returns the engine name.
func (s *CommandSynthesizer) Engine() string {
	return s.engine.Name
}

// IsSupported reports true; construction fails when the engine is missing.
func (s *CommandSynthesizer) IsSupported() bool {
	return true
}

// Voices lists installed voices, or nil when they cannot be listed.
func (s *CommandSynthesizer) Voices() []Voice {
	if s.engine.VoiceArgs == nil || s.engine.ParseVoices == nil {
		return nil
	}
	out, err := exec.Command(s.path, s.engine.VoiceArgs...).Output()
	if err != nil {
		return nil
	}
	return s.engine.ParseVoices(out)
}

// Speak stops any current utterance, then speaks text and waits for the
// engine to exit.
func (s *CommandSynthesizer) Speak(ctx context.Context, text string, opts Options) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	s.Stop()

	ctx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(ctx, s.path, s.engine.Args(text, opts.withDefaults())...)

	s.mu.Lock()
	if err := cmd.Start(); err != nil {
		s.mu.Unlock()
		cancel()
		return fmt.Errorf("start %s: %w", s.engine.Name, err)
	}
	s.cmd = cmd
	s.cancel = cancel
	s.paused = false
	s.mu.Unlock()

	err := cmd.Wait()
	ctxErr := ctx.Err()

	s.mu.Lock()
	stopped := s.cmd != cmd
	if !stopped {
		s.cmd = nil
		s.cancel = nil
		s.paused = false
	}
	s.mu.Unlock()
	cancel()

	if stopped {
		return nil
	}
	if ctxErr != nil {
		return ctxErr
	}
	if err != nil {
		return fmt.Errorf("speech synthesis error: %w", err)
	}
	return nil
}

// Stop interrupts the current utterance.
func (s *CommandSynthesizer) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cmd == nil {
		return
	}
	if s.paused {
		resumeProcess(s.cmd.Process)
	}
	s.cancel()
	s.cmd = nil
	s.cancel = nil
	s.paused = false
}

// Pause suspends the engine process where the platform allows it.
func (s *CommandSynthesizer) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cmd == nil || s.paused {
		return
	}
	if pauseProcess(s.cmd.Process) == nil {
		s.paused = true
	}
}

// Resume continues a paused utterance.
func (s *CommandSynthesizer) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cmd == nil || !s.paused {
		return
	}
	if resumeProcess(s.cmd.Process) == nil {
		s.paused = false
	}
}

// IsSpeaking reports whether an utterance is running, paused or not.
func (s *CommandSynthesizer) IsSpeaking() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cmd != nil
}

// IsPaused reports whether the current utterance is paused.
func (s *CommandSynthesizer) IsPaused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}
