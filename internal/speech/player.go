package speech

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Player speaks text with the selected persona. A new Speak cancels the
// utterance in flight before starting; nothing is queued.
type Player struct {
	synth  Synthesizer
	logger zerolog.Logger

	speakMu sync.Mutex // serializes Speak so only one utterance runs

	mu      sync.Mutex
	muted   bool
	persona Persona
	voices  []Voice
	loaded  bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewPlayer creates a Player. synth may be nil, in which case every call is
// a no-op.
func NewPlayer(synth Synthesizer, persona Persona, logger zerolog.Logger) *Player {
	return &Player{synth: synth, persona: persona, logger: logger}
}

// Available reports whether a synthesizer is present.
func (p *Player) Available() bool {
	return p != nil && p.synth != nil
}

// Speak starts speaking text and returns immediately. It does nothing when
// muted, when text is blank, or when no synthesizer is available.
func (p *Player) Speak(text string) {
	if !p.Available() {
		return
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	p.speakMu.Lock()
	defer p.speakMu.Unlock()

	if p.Muted() {
		return
	}
	p.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	p.mu.Lock()
	p.cancel, p.done = cancel, done
	persona := p.persona
	p.mu.Unlock()

	go func() {
		defer close(done)
		defer cancel()

		voice, _ := SelectVoice(p.loadVoices(ctx), persona.Lang)
		if persona.Voice != "" {
			voice = Voice{ID: persona.Voice, Name: persona.Voice, Lang: persona.Lang}
		}
		err := p.synth.Speak(ctx, Utterance{
			Text:  text,
			Voice: voice,
			Pitch: persona.Pitch,
			Rate:  persona.Rate,
		})
		if err != nil && ctx.Err() == nil {
			p.logger.Warn().Err(err).Msg("speech playback failed")
		}
	}()
}

// Stop cancels the utterance in flight and waits for it to end.
func (p *Player) Stop() {
	if p == nil {
		return
	}
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

// Wait blocks until the current utterance, if any, finishes.
func (p *Player) Wait() {
	if p == nil {
		return
	}
	p.mu.Lock()
	done := p.done
	p.mu.Unlock()
	if done != nil {
		<-done
	}
}

// SetMuted turns playback off or on. Muting affects later Speak calls only;
// it never touches voice capture.
func (p *Player) SetMuted(muted bool) {
	if p == nil {
		return
	}
	p.mu.Lock()
	p.muted = muted
	p.mu.Unlock()
}

// ToggleMute flips the muted flag and returns the new value.
func (p *Player) ToggleMute() bool {
	if p == nil {
		return true
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.muted = !p.muted
	return p.muted
}

// Muted reports whether playback is muted.
func (p *Player) Muted() bool {
	if p == nil {
		return true
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.muted
}

// SetPersona changes the persona used by later Speak calls.
func (p *Player) SetPersona(persona Persona) {
	if p == nil {
		return
	}
	p.mu.Lock()
	p.persona = persona
	p.mu.Unlock()
}

// Persona returns the active persona.
func (p *Player) Persona() Persona {
	if p == nil {
		return Persona{}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.persona
}

// loadVoices fetches the voice list once. Failures are not cached.
func (p *Player) loadVoices(ctx context.Context) []Voice {
	p.mu.Lock()
	if p.loaded {
		voices := p.voices
		p.mu.Unlock()
		return voices
	}
	p.mu.Unlock()

	voices, err := p.synth.Voices(ctx)
	if err != nil {
		p.logger.Debug().Err(err).Msg("voice list unavailable")
		return nil
	}

	p.mu.Lock()
	p.voices, p.loaded = voices, true
	p.mu.Unlock()
	return voices
}
