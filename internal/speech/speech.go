// Package speech bridges the interview flow to optional text-to-speech and
// speech-to-text engines. Both capabilities may be absent; callers check
// availability instead of assuming it.
package speech

import (
	"context"
	"errors"
	"strings"

	"github.com/intervue-dev/intervue/internal/config"
)

var (
	// ErrUnsupported is returned when a capability has no engine.
	ErrUnsupported = errors.New("voice input not supported")
	// ErrNoSpeech is returned when recognition finished without a transcript.
	ErrNoSpeech = errors.New("no speech recognized")
)

// Voice is one voice offered by a synthesizer.
type Voice struct {
	ID   string // value passed back to the engine
	Name string
	Lang string // language tag, e.g. en-US
}

// Utterance is a single piece of text to speak.
type Utterance struct {
	Text  string
	Voice Voice
	Pitch float64 // 1.0 = engine default
	Rate  float64 // 1.0 = engine default
}

// Synthesizer speaks text. Speak blocks until playback finishes or ctx is
// cancelled.
type Synthesizer interface {
	Voices(ctx context.Context) ([]Voice, error)
	Speak(ctx context.Context, u Utterance) error
}

// Recognizer captures one utterance and returns its transcript. It blocks
// until the speaker stops or ctx is cancelled.
type Recognizer interface {
	Recognize(ctx context.Context, locale string) (string, error)
}

// Persona is a named voice configuration used for playback.
type Persona struct {
	ID    string
	Name  string
	Lang  string
	Voice string // optional engine voice override
	Pitch float64
	Rate  float64
}

// PersonasFromConfig converts configured personas.
func PersonasFromConfig(list []config.PersonaConfig) []Persona {
	out := make([]Persona, 0, len(list))
	for _, p := range list {
		out = append(out, Persona{
			ID:    p.ID,
			Name:  p.Name,
			Lang:  p.Lang,
			Voice: p.Voice,
			Pitch: p.Pitch,
			Rate:  p.Rate,
		})
	}
	return out
}

// FindPersona returns the persona with id, falling back to the first one.
// ok is false when id did not match.
func FindPersona(list []Persona, id string) (Persona, bool) {
	for _, p := range list {
		if p.ID == id {
			return p, true
		}
	}
	if len(list) > 0 {
		return list[0], false
	}
	return Persona{Lang: "en-US", Pitch: 1, Rate: 1}, false
}

// SelectVoice picks the first voice whose language tag matches lang,
// falling back to the first voice. ok is false only when voices is empty.
func SelectVoice(voices []Voice, lang string) (Voice, bool) {
	if len(voices) == 0 {
		return Voice{}, false
	}
	want := NormalizeLang(lang)
	for _, v := range voices {
		if NormalizeLang(v.Lang) == want {
			return v, true
		}
	}
	return voices[0], true
}

// NormalizeLang lower-cases a language tag and uses "-" as separator, so
// en_US, en-us and en-US compare equal.
func NormalizeLang(tag string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(tag), "_", "-"))
}

// AppendTranscript appends transcript to answer, separated by one space.
func AppendTranscript(answer, transcript string) string {
	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		return answer
	}
	if answer == "" {
		return transcript
	}
	return answer + " " + transcript
}
