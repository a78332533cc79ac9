package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/intervue-dev/intervue/internal/api"
	"github.com/intervue-dev/intervue/internal/auth"
	"github.com/intervue-dev/intervue/internal/config"
	"github.com/intervue-dev/intervue/internal/history"
	"github.com/intervue-dev/intervue/internal/interview"
	"github.com/intervue-dev/intervue/internal/log"
	"github.com/intervue-dev/intervue/internal/session"
	"github.com/intervue-dev/intervue/internal/speech"
)

// stateFile is the SQLite database holding the credential and local practice list.
const stateFile = "state.db"

// runtime holds the collaborators every command builds from the home
// directory. Close releases them in reverse order.
type runtime struct {
	home    string
	cfg     *config.Config
	logger  zerolog.Logger
	events  *log.Logger
	store   *session.Store
	auth    *auth.Client
	api     *api.Client
	closers []io.Closer
}

// openRuntime loads config and opens local state. The credential is
// restored so commands see the signed-in user.
func openRuntime(ctx context.Context) (*runtime, error) {
	home, err := resolveHome()
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(home)
	if err != nil {
		return nil, err
	}

	rt := &runtime{home: home, cfg: cfg}

	logger, closer, err := log.NewDiagnostics(home, debug)
	if err != nil {
		return nil, err
	}
	rt.logger = logger
	rt.closers = append(rt.closers, closer)

	rt.events, err = log.NewLogger(home)
	if err != nil {
		rt.Close()
		return nil, err
	}

	rt.store, err = session.NewStore(filepath.Join(home, stateFile))
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("opening local state: %w", err)
	}
	rt.closers = append(rt.closers, rt.store)

	rt.auth = auth.NewClient(cfg.Identity, rt.store,
		auth.WithLogger(logger),
		auth.WithEvents(rt.events),
	)
	rt.api = api.NewClient(cfg.API.BaseURL, api.WithLogger(logger))

	if _, err := rt.auth.Restore(ctx); err != nil {
		logger.Warn().Err(err).Msg("restoring credential failed")
	}
	return rt, nil
}

func resolveHome() (string, error) {
	if homeDir != "" {
		return homeDir, nil
	}
	return config.Home()
}

// Close releases everything opened by openRuntime.
func (rt *runtime) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i].Close(); err != nil {
			rt.logger.Warn().Err(err).Msg("close failed")
		}
	}
	rt.closers = nil
}

// requireUser returns the signed-in user or a hint to sign in.
func (rt *runtime) requireUser() (*auth.User, error) {
	u := rt.auth.Current()
	if u == nil {
		return nil, errors.New("not signed in; run: intervue signin")
	}
	return u, nil
}

// openHistory opens the configured session-record backend.
func (rt *runtime) openHistory() (history.Store, error) {
	store, err := history.Open(rt.cfg, rt.auth.State(), rt.logger)
	if err != nil {
		return nil, err
	}
	rt.closers = append(rt.closers, store)
	return store, nil
}

// speechStack builds the player and capture from the detected engines.
// persona overrides the configured persona when set.
func (rt *runtime) speechStack(persona string, muted bool) (*speech.Player, *speech.Capture, []speech.Persona) {
	personas := speech.PersonasFromConfig(rt.cfg.Speech.Personas)
	if persona == "" {
		persona = rt.cfg.Speech.Persona
	}
	p, _ := speech.FindPersona(personas, persona)

	caps := speech.Detect(rt.cfg.Speech, nil)
	player := speech.NewPlayer(caps.Synth, p, rt.logger)
	player.SetMuted(muted || rt.cfg.Speech.Muted)

	capture := speech.NewCapture(caps.Recog, rt.cfg.Speech.CaptureLocale)
	rt.logger.Debug().
		Bool("synth", caps.Synth != nil).
		Bool("capture", caps.Recog != nil).
		Str("persona", p.ID).
		Msg("speech engines detected")
	return player, capture, personas
}

// controller wires an interview controller. recorder may be nil when no
// backend is configured; End then fails.
func (rt *runtime) controller(recorder interview.Recorder, speaker interview.Speaker) *interview.Controller {
	if recorder == nil {
		recorder = noRecorder{}
	}
	return interview.New(interview.Deps{
		API:      rt.api,
		Recorder: recorder,
		Users:    rt.auth.State(),
		Catalog:  rt.cfg.Interview,
		Speaker:  speaker,
		Tracker:  rt.store,
		Events:   rt.events,
		Logger:   rt.logger,
	})
}

// noRecorder stands in when the history backend could not be opened.
type noRecorder struct{}

func (noRecorder) Insert(context.Context, history.NewSession) (*history.Session, error) {
	return nil, errors.New("no session backend configured")
}
