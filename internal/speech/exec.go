package speech

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/intervue-dev/intervue/internal/config"
)

// Engine flavours understood by ExecSynthesizer.
const (
	flavorEspeak = "espeak"
	flavorSay    = "say"
)

// candidateSynths are tried in order when no synth command is configured.
var candidateSynths = []string{"espeak-ng", "espeak", "say"}

// Capabilities holds the engines found on this machine. A nil field means
// the capability is unavailable.
type Capabilities struct {
	Synth Synthesizer
	Recog Recognizer
}

// LookPathFunc resolves an executable name, like exec.LookPath.
type LookPathFunc func(file string) (string, error)

// Detect finds usable engines. The synth command comes from config or the
// first of espeak-ng/espeak/say on PATH. Capture is only enabled when a
// recognize command is configured and resolvable.
func Detect(cfg config.SpeechConfig, lookPath LookPathFunc) Capabilities {
	if lookPath == nil {
		lookPath = exec.LookPath
	}

	var caps Capabilities

	candidates := candidateSynths
	if cfg.SynthCommand != "" {
		candidates = []string{cfg.SynthCommand}
	}
	for _, name := range candidates {
		if path, err := lookPath(name); err == nil {
			caps.Synth = NewExecSynthesizer(path)
			break
		}
	}

	if fields := strings.Fields(cfg.RecognizeCommand); len(fields) > 0 {
		if path, err := lookPath(fields[0]); err == nil {
			caps.Recog = &ExecRecognizer{Command: path, Args: fields[1:]}
		}
	}

	return caps
}

// ExecSynthesizer speaks through an espeak-compatible or macOS say binary.
type ExecSynthesizer struct {
	Command string
	flavor  string
}

// NewExecSynthesizer picks the argument dialect from the binary name.
func NewExecSynthesizer(command string) *ExecSynthesizer {
	flavor := flavorEspeak
	if filepath.Base(command) == "say" {
		flavor = flavorSay
	}
	return &ExecSynthesizer{Command: command, flavor: flavor}
}

// Voices lists the engine's voices.
func (s *ExecSynthesizer) Voices(ctx context.Context) ([]Voice, error) {
	var args []string
	if s.flavor == flavorSay {
		args = []string{"-v", "?"}
	} else {
		args = []string{"--voices"}
	}

	out, err := exec.CommandContext(ctx, s.Command, args...).Output()
	if err != nil {
		return nil, fmt.Errorf("listing voices: %w", err)
	}
	if s.flavor == flavorSay {
		return parseSayVoices(out), nil
	}
	return parseEspeakVoices(out), nil
}

// Speak runs the engine and waits for it to exit. Cancelling ctx kills it.
func (s *ExecSynthesizer) Speak(ctx context.Context, u Utterance) error {
	cmd := exec.CommandContext(ctx, s.Command, s.speakArgs(u)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%s exited with error: %w\nstderr: %s", filepath.Base(s.Command), err, stderr.String())
	}
	return nil
}

func (s *ExecSynthesizer) speakArgs(u Utterance) []string {
	pitch, rate := u.Pitch, u.Rate
	if pitch <= 0 {
		pitch = 1
	}
	if rate <= 0 {
		rate = 1
	}

	var args []string
	if s.flavor == flavorSay {
		if u.Voice.ID != "" {
			args = append(args, "-v", u.Voice.ID)
		}
		// say has no pitch control.
		args = append(args, "-r", strconv.Itoa(int(math.Round(rate*175))), "--", u.Text)
		return args
	}

	if u.Voice.ID != "" {
		args = append(args, "-v", u.Voice.ID)
	}
	args = append(args,
		"-p", strconv.Itoa(clamp(int(math.Round(pitch*50)), 0, 99)),
		"-s", strconv.Itoa(int(math.Round(rate*175))),
		"--", u.Text,
	)
	return args
}

// ExecRecognizer runs a command that records one utterance and prints the
// transcript on stdout. "{locale}" in Args is replaced with the locale.
type ExecRecognizer struct {
	Command string
	Args    []string
}

// Recognize runs the command and returns its trimmed stdout.
func (r *ExecRecognizer) Recognize(ctx context.Context, locale string) (string, error) {
	args := make([]string, len(r.Args))
	for i, a := range r.Args {
		args[i] = strings.ReplaceAll(a, "{locale}", locale)
	}

	cmd := exec.CommandContext(ctx, r.Command, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("recognizer exited with error: %w\nstderr: %s", err, stderr.String())
	}

	text := strings.TrimSpace(stdout.String())
	if text == "" {
		return "", ErrNoSpeech
	}
	return text, nil
}

// parseEspeakVoices parses `espeak-ng --voices`:
//
//	Pty Language       Age/Gender VoiceName          File          Other Languages
//	 2  en-us           --/M      English_(America)  gmw/en-US     (en 10)
func parseEspeakVoices(out []byte) []Voice {
	var voices []Voice
	for i, line := range strings.Split(string(out), "\n") {
		fields := strings.Fields(line)
		if i == 0 || len(fields) < 4 {
			continue
		}
		voices = append(voices, Voice{
			ID:   fields[1],
			Name: strings.ReplaceAll(fields[3], "_", " "),
			Lang: fields[1],
		})
	}
	return voices
}

// parseSayVoices parses `say -v '?'`:
//
//	Alex                en_US    # Most people recognize me by my voice.
//	Bad News            en_US    # The light you see at the end of the tunnel...
func parseSayVoices(out []byte) []Voice {
	var voices []Voice
	for _, line := range strings.Split(string(out), "\n") {
		left, _, _ := strings.Cut(line, "#")
		fields := strings.Fields(left)
		if len(fields) < 2 {
			continue
		}
		name := strings.Join(fields[:len(fields)-1], " ")
		voices = append(voices, Voice{ID: name, Name: name, Lang: fields[len(fields)-1]})
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
