// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package speech

import (
	"context"
	"os/exec"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnsupported(t *testing.T) {
	var u Unsupported
	assert.False(t, u.IsSupported())
	assert.Nil(t, u.Voices())
	assert.ErrorIs(t, u.Speak(context.Background(), "hi", DefaultOptions()), ErrUnsupported)

	_, err := u.Listen(context.Background())
	assert.ErrorIs(t, err, ErrUnsupported)

	u.Stop()
	u.Pause()
	u.Resume()
	assert.False(t, u.IsSpeaking())
	assert.False(t, u.IsPaused())
}

func TestOptions_WithDefaults(t *testing.T) {
	got := Options{Voice: "en", Rate: 1.5}.withDefaults()
	assert.Equal(t, Options{Voice: "en", Rate: 1.5, Pitch: 1, Volume: 1}, got)
}

func TestEspeakArgs(t *testing.T) {
	eng := espeakEngine("espeak")
	args := eng.Args("hello there", Options{Voice: "en-us", Rate: 2, Pitch: 3, Volume: 0.5})
	assert.Equal(t, []string{"-s", "350", "-p", "99", "-a", "50", "-v", "en-us", "--", "hello there"}, args)

	args = eng.Args("-danger", DefaultOptions())
	assert.Equal(t, []string{"-s", "175", "-p", "50", "-a", "100", "--", "-danger"}, args)
}

func TestSayArgs(t *testing.T) {
	args := sayEngine().Args("hi", Options{Rate: 1, Voice: "Alex"})
	assert.Equal(t, []string{"-r", "175", "-v", "Alex", "--", "hi"}, args)
}

func TestParseEspeakVoices(t *testing.T) {
	out := []byte(`Pty Language       Age/Gender VoiceName          File                 Other Languages
 5  af              --/M      Afrikaans          gmw/af
 5  en-us           --/M      English_(America)  gmw/en-US            (en 3)
`)
	assert.Equal(t, []Voice{
		{Name: "Afrikaans", Language: "af"},
		{Name: "English_(America)", Language: "en-us"},
	}, parseEspeakVoices(out))
}

func TestParseSayVoices(t *testing.T) {
	out := []byte("Alex                en_US    # Most people recognize me by my voice.\nBad News            en_US    # The light you see at the end of the tunnel\n\n")
	assert.Equal(t, []Voice{
		{Name: "Alex", Language: "en_US"},
		{Name: "Bad News", Language: "en_US"},
	}, parseSayVoices(out))
}

func TestNewCommandSynthesizer_Missing(t *testing.T) {
	_, err := NewCommandSynthesizer(Engine{Name: "definitely-not-a-speech-engine"})
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestDetect_ReturnsUsableCapabilities(t *testing.T) {
	synth, rec := Detect()
	require.NotNil(t, synth)
	require.NotNil(t, rec)
	assert.False(t, rec.IsSupported())
}

// sleepEngine stands in for a real engine: it "speaks" by sleeping.
func sleepEngine(t *testing.T) *CommandSynthesizer {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("no sleep command")
	}
	if _, err := exec.LookPath("sleep"); err != nil {
		t.Skip("sleep not on PATH")
	}
	s, err := NewCommandSynthesizer(Engine{
		Name: "sleep",
		Args: func(string, Options) []string { return []string{"5"} },
	})
	require.NoError(t, err)
	return s
}

func TestCommandSynthesizer_StopInterrupts(t *testing.T) {
	s := sleepEngine(t)

	done := make(chan error, 1)
	go func() { done <- s.Speak(context.Background(), "long reply", DefaultOptions()) }()

	require.Eventually(t, s.IsSpeaking, 2*time.Second, 10*time.Millisecond)

	s.Pause()
	assert.True(t, s.IsPaused())
	s.Resume()
	assert.False(t, s.IsPaused())

	s.Stop()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Speak did not return after Stop")
	}
	assert.False(t, s.IsSpeaking())
}

func TestCommandSynthesizer_ContextCancel(t *testing.T) {
	s := sleepEngine(t)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := s.Speak(ctx, "reply", DefaultOptions())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, s.IsSpeaking())
}

func TestCommandSynthesizer_EmptyText(t *testing.T) {
	s := sleepEngine(t)
	assert.NoError(t, s.Speak(context.Background(), "   ", DefaultOptions()))
	assert.False(t, s.IsSpeaking())
}
