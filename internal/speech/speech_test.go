package speech

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/intervue-dev/intervue/internal/config"
)

// fakeSynth records utterances. When block is set, Speak waits for ctx.
type fakeSynth struct {
	mu       sync.Mutex
	voices   []Voice
	spoken   []Utterance
	canceled int
	block    bool
	started  chan struct{}
}

func newFakeSynth(voices ...Voice) *fakeSynth {
	return &fakeSynth{voices: voices, started: make(chan struct{}, 8)}
}

func (f *fakeSynth) Voices(context.Context) ([]Voice, error) {
	return f.voices, nil
}

func (f *fakeSynth) Speak(ctx context.Context, u Utterance) error {
	f.mu.Lock()
	f.spoken = append(f.spoken, u)
	block := f.block
	f.mu.Unlock()
	f.started <- struct{}{}

	if !block {
		return nil
	}
	<-ctx.Done()
	f.mu.Lock()
	f.canceled++
	f.mu.Unlock()
	return ctx.Err()
}

func (f *fakeSynth) utterances() []Utterance {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Utterance(nil), f.spoken...)
}

type fakeRecognizer struct {
	text    string
	err     error
	release chan struct{}
	locales chan string
}

func (f *fakeRecognizer) Recognize(ctx context.Context, locale string) (string, error) {
	if f.locales != nil {
		f.locales <- locale
	}
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.text, f.err
}

func TestSelectVoice(t *testing.T) {
	voices := []Voice{
		{ID: "fr", Lang: "fr-FR"},
		{ID: "en-gb", Lang: "en_GB"},
		{ID: "en-us", Lang: "en-us"},
	}
	tests := []struct {
		name string
		lang string
		want string
	}{
		{"exact", "en-US", "en-us"},
		{"underscore", "en-GB", "en-gb"},
		{"fallback to first", "hi-IN", "fr"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SelectVoice(voices, tt.lang)
			if !ok || got.ID != tt.want {
				t.Errorf("SelectVoice(%q) = %q, %v; want %q", tt.lang, got.ID, ok, tt.want)
			}
		})
	}

	if _, ok := SelectVoice(nil, "en-US"); ok {
		t.Error("SelectVoice(nil): ok = true, want false")
	}
}

func TestFindPersona(t *testing.T) {
	list := PersonasFromConfig(config.DefaultConfig().Speech.Personas)
	if len(list) == 0 {
		t.Fatal("default personas empty")
	}

	p, ok := FindPersona(list, list[1].ID)
	if !ok || p.ID != list[1].ID {
		t.Errorf("FindPersona(%q) = %q, %v", list[1].ID, p.ID, ok)
	}

	p, ok = FindPersona(list, "nobody")
	if ok || p.ID != list[0].ID {
		t.Errorf("FindPersona(unknown) = %q, %v; want first persona", p.ID, ok)
	}
}

func TestAppendTranscript(t *testing.T) {
	tests := []struct {
		answer, transcript, want string
	}{
		{"", "hello", "hello"},
		{"O of n", "log n", "O of n log n"},
		{"keep", "  ", "keep"},
		{"a", " b ", "a b"},
	}
	for _, tt := range tests {
		if got := AppendTranscript(tt.answer, tt.transcript); got != tt.want {
			t.Errorf("AppendTranscript(%q, %q) = %q, want %q", tt.answer, tt.transcript, got, tt.want)
		}
	}
}

func TestParseEspeakVoices(t *testing.T) {
	out := []byte(`Pty Language       Age/Gender VoiceName          File                 Other Languages
 5  af              --/M      Afrikaans          gmw/af
 2  en-us           --/M      English_(America)  gmw/en-US            (en 10)
`)
	got := parseEspeakVoices(out)
	want := []Voice{
		{ID: "af", Name: "Afrikaans", Lang: "af"},
		{ID: "en-us", Name: "English (America)", Lang: "en-us"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("parseEspeakVoices:\n got %+v\nwant %+v", got, want)
	}
}

func TestParseSayVoices(t *testing.T) {
	out := []byte(`Alex                en_US    # Most people recognize me by my voice.
Bad News            en_US    # The light you see at the end of the tunnel is the headlamp of a fast approaching train.
Veena               en_IN    # Hello, my name is Veena.
`)
	got := parseSayVoices(out)
	if len(got) != 3 {
		t.Fatalf("parseSayVoices: got %d voices, want 3", len(got))
	}
	if got[1].Name != "Bad News" || got[1].Lang != "en_US" {
		t.Errorf("voice 1: got %+v", got[1])
	}
	if v, _ := SelectVoice(got, "en-IN"); v.Name != "Veena" {
		t.Errorf("SelectVoice en-IN: got %q, want Veena", v.Name)
	}
}

func TestSpeakArgs(t *testing.T) {
	u := Utterance{Text: "hi", Voice: Voice{ID: "en-us"}, Pitch: 1.2, Rate: 0.8}

	espeak := NewExecSynthesizer("/usr/bin/espeak-ng")
	want := []string{"-v", "en-us", "-p", "60", "-s", "140", "--", "hi"}
	if got := espeak.speakArgs(u); !reflect.DeepEqual(got, want) {
		t.Errorf("espeak args: got %v, want %v", got, want)
	}

	say := NewExecSynthesizer("/usr/bin/say")
	want = []string{"-v", "en-us", "-r", "140", "--", "hi"}
	if got := say.speakArgs(u); !reflect.DeepEqual(got, want) {
		t.Errorf("say args: got %v, want %v", got, want)
	}
}

func TestDetect(t *testing.T) {
	onPath := map[string]bool{"espeak": true, "whisper-listen": true}
	look := func(name string) (string, error) {
		if onPath[name] {
			return "/usr/bin/" + name, nil
		}
		return "", errors.New("not found")
	}

	caps := Detect(config.SpeechConfig{RecognizeCommand: "whisper-listen --lang {locale}"}, look)
	synth, ok := caps.Synth.(*ExecSynthesizer)
	if !ok || synth.Command != "/usr/bin/espeak" {
		t.Errorf("Synth: got %+v, want espeak", caps.Synth)
	}
	rec, ok := caps.Recog.(*ExecRecognizer)
	if !ok || !reflect.DeepEqual(rec.Args, []string{"--lang", "{locale}"}) {
		t.Errorf("Recog: got %+v", caps.Recog)
	}

	none := Detect(config.SpeechConfig{}, func(string) (string, error) { return "", errors.New("no") })
	if none.Synth != nil || none.Recog != nil {
		t.Errorf("Detect with empty PATH: got %+v, want no capabilities", none)
	}
}

func TestPlayerSpeaksWithPersonaVoice(t *testing.T) {
	synth := newFakeSynth(Voice{ID: "fr", Lang: "fr-FR"}, Voice{ID: "en-in", Lang: "en-IN"})
	p := NewPlayer(synth, Persona{ID: "female_in", Lang: "en-IN", Pitch: 1.1, Rate: 1}, zerolog.Nop())

	p.Speak("Explain quicksort")
	p.Wait()

	got := synth.utterances()
	if len(got) != 1 {
		t.Fatalf("utterances: got %d, want 1", len(got))
	}
	if got[0].Voice.ID != "en-in" || got[0].Pitch != 1.1 || got[0].Text != "Explain quicksort" {
		t.Errorf("utterance: got %+v", got[0])
	}
}

func TestPlayerMutedSkipsSpeech(t *testing.T) {
	synth := newFakeSynth()
	p := NewPlayer(synth, Persona{Lang: "en-US"}, zerolog.Nop())
	p.SetMuted(true)

	p.Speak("hello")
	p.Wait()

	if n := len(synth.utterances()); n != 0 {
		t.Errorf("utterances while muted: got %d, want 0", n)
	}
	if p.ToggleMute() {
		t.Error("ToggleMute: got muted, want unmuted")
	}
}

func TestPlayerNewSpeechCancelsPrevious(t *testing.T) {
	synth := newFakeSynth(Voice{ID: "en", Lang: "en-US"})
	synth.block = true
	p := NewPlayer(synth, Persona{Lang: "en-US"}, zerolog.Nop())

	p.Speak("first")
	<-synth.started
	p.Speak("second")
	<-synth.started
	p.Stop()

	got := synth.utterances()
	if len(got) != 2 || got[1].Text != "second" {
		t.Fatalf("utterances: got %+v", got)
	}
	synth.mu.Lock()
	canceled := synth.canceled
	synth.mu.Unlock()
	if canceled != 2 {
		t.Errorf("canceled: got %d, want 2", canceled)
	}
}

func TestPlayerMuteDoesNotCancelInFlight(t *testing.T) {
	synth := newFakeSynth()
	synth.block = true
	p := NewPlayer(synth, Persona{Lang: "en-US"}, zerolog.Nop())

	p.Speak("long question")
	<-synth.started
	p.SetMuted(true)

	synth.mu.Lock()
	canceled := synth.canceled
	synth.mu.Unlock()
	if canceled != 0 {
		t.Errorf("canceled after mute: got %d, want 0", canceled)
	}
	p.Stop()
}

func TestPlayerNilSynthIsNoop(t *testing.T) {
	p := NewPlayer(nil, Persona{}, zerolog.Nop())
	if p.Available() {
		t.Error("Available: got true with nil synth")
	}
	p.Speak("hello")
	p.Stop()
	p.Wait()
}

func TestCaptureDeliversTranscript(t *testing.T) {
	rec := &fakeRecognizer{text: "binary search halves the range", locales: make(chan string, 1)}
	c := NewCapture(rec, "en-US")

	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if got := <-rec.locales; got != "en-US" {
		t.Errorf("locale: got %q, want en-US", got)
	}

	select {
	case r := <-c.Results():
		if r.Err != nil || r.Transcript != rec.text {
			t.Errorf("result: got %+v", r)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for transcript")
	}
	if c.Listening() {
		t.Error("Listening after result: got true")
	}
}

func TestCaptureSingleActive(t *testing.T) {
	rec := &fakeRecognizer{text: "x", release: make(chan struct{}), locales: make(chan string, 4)}
	c := NewCapture(rec, "en-US")

	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	<-rec.locales
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("second Start failed: %v", err)
	}
	if !c.Listening() {
		t.Error("Listening: got false, want true")
	}

	listening, err := c.Toggle(context.Background())
	if err != nil || listening {
		t.Errorf("Toggle: got %v, %v; want stopped", listening, err)
	}

	select {
	case <-rec.locales:
		t.Error("second Start began another recognition")
	default:
	}
	select {
	case r := <-c.Results():
		t.Errorf("stopped capture delivered %+v", r)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestCaptureUnsupported(t *testing.T) {
	c := NewCapture(nil, "en-US")
	if err := c.Start(context.Background()); !errors.Is(err, ErrUnsupported) {
		t.Errorf("Start: got %v, want ErrUnsupported", err)
	}
	if _, err := c.Toggle(context.Background()); !errors.Is(err, ErrUnsupported) {
		t.Errorf("Toggle: got %v, want ErrUnsupported", err)
	}
}
