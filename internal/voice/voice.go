// Package voice reads questions aloud and captures spoken answers through
// external speech commands.
package voice

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Results returned by Listen instead of a transcription.
const (
	NoSpeech     = "No speech detected. Please try again."
	Unrecognized = "Could not understand the audio. Please try again."
)

// Default listening windows.
const (
	DefaultWait   = 10 * time.Second
	DefaultPhrase = 30 * time.Second
)

// Speaker reads text aloud without blocking the caller.
type Speaker interface {
	Speak(text string)
}

// Listener captures one spoken answer. It always returns text; failures
// come back as NoSpeech or Unrecognized.
type Listener interface {
	Listen(ctx context.Context, wait, phrase time.Duration) string
}

// NopSpeaker discards text.
type NopSpeaker struct{}

func (NopSpeaker) Speak(string) {}

// CommandSpeaker runs a text-to-speech command with the text as its last
// argument, e.g. "espeak -s 150" or "say".
type CommandSpeaker struct {
	name string
	args []string
	done func(error) // test hook
}

// NewCommandSpeaker parses cmdline into a command and arguments. An empty
// cmdline returns nil.
func NewCommandSpeaker(cmdline string) *CommandSpeaker {
	fields := strings.Fields(cmdline)
	if len(fields) == 0 {
		return nil
	}
	return &CommandSpeaker{name: fields[0], args: fields[1:]}
}

// Speak starts the command in the background. Failures are logged.
func (s *CommandSpeaker) Speak(text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	go func() {
		args := append(append([]string(nil), s.args...), text)
		err := exec.Command(s.name, args...).Run()
		if err != nil {
			slog.Warn("text-to-speech failed", "command", s.name, "error", err)
		}
		if s.done != nil {
			s.done(err)
		}
	}()
}

// CommandListener runs a speech-to-text command and reads the transcription
// from its standard output. The arguments may contain {wait} and {phrase},
// which are replaced by the window lengths in seconds.
type CommandListener struct {
	name string
	args []string
}

// NewCommandListener parses cmdline. An empty cmdline returns nil.
func NewCommandListener(cmdline string) *CommandListener {
	fields := strings.Fields(cmdline)
	if len(fields) == 0 {
		return nil
	}
	return &CommandListener{name: fields[0], args: fields[1:]}
}

// Listen blocks for at most wait+phrase.
func (l *CommandListener) Listen(ctx context.Context, wait, phrase time.Duration) string {
	if wait <= 0 {
		wait = DefaultWait
	}
	if phrase <= 0 {
		phrase = DefaultPhrase
	}
	ctx, cancel := context.WithTimeout(ctx, wait+phrase)
	defer cancel()

	r := strings.NewReplacer(
		"{wait}", strconv.Itoa(int(wait.Seconds())),
		"{phrase}", strconv.Itoa(int(phrase.Seconds())),
	)
	args := make([]string, len(l.args))
	for i, a := range l.args {
		args[i] = r.Replace(a)
	}

	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, l.name, args...)
	cmd.Stdout = &out
	err := cmd.Run()
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		slog.Info("speech capture timed out", "window", wait+phrase)
		return NoSpeech
	}
	if err != nil {
		slog.Warn("speech-to-text failed", "command", l.name, "error", err)
		return Unrecognized
	}
	text := strings.TrimSpace(out.String())
	if text == "" {
		return NoSpeech
	}
	return text
}
