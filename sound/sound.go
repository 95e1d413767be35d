package sound

import (
	"math"

	"go.uber.org/zap"

	"github.com/wippyai/pdbridge/errors"
	"github.com/wippyai/pdbridge/native"
)

// ID identifies one effect or source for the lifetime of a Sound facade.
// Channels compare IDs, never native handles, when removing.
type ID uint64

// Sound creates channels, effects and sources over one sound table.
type Sound struct {
	api    *native.Sound
	log    *zap.Logger
	nextID ID
}

// New validates the sound table.
func New(api *native.Sound) (*Sound, error) {
	if api == nil {
		return nil, errors.MissingTable("sound")
	}
	return &Sound{api: api, log: Logger()}, nil
}

// WithLogger sets the logger used for sound diagnostics.
func (s *Sound) WithLogger(l *zap.Logger) *Sound {
	if l != nil {
		s.log = l
	}
	return s
}

func (s *Sound) id() ID {
	s.nextID++
	return s.nextID
}

// CurrentTime returns the sound engine clock in samples.
func (s *Sound) CurrentTime() (uint32, error) {
	fn := s.api.GetCurrentTime
	if fn == nil {
		return 0, errors.MissingFunction(errors.PhaseSound, "sound.getCurrentTime")
	}
	return fn(), nil
}

// SetOutputsActive routes audio to the headphone jack, the speaker, or both.
func (s *Sound) SetOutputsActive(headphone, speaker bool) error {
	fn := s.api.SetOutputsActive
	if fn == nil {
		return errors.MissingFunction(errors.PhaseSound, "sound.setOutputsActive")
	}
	fn(headphone, speaker)
	return nil
}

// NewChannel creates a mixer channel.
func (s *Sound) NewChannel() (*Channel, error) {
	const op = "channel.new"
	t := s.api.Channel
	if t == nil {
		return nil, errors.MissingTable("sound.channel")
	}
	if t.NewChannel == nil {
		return nil, errors.MissingFunction(errors.PhaseSound, op)
	}
	raw := t.NewChannel()
	if raw == 0 {
		return nil, errors.ProtocolViolation(errors.PhaseSound, op, "returned null")
	}
	return &Channel{sound: s, api: t, raw: raw}, nil
}

// NewOverdrive creates an overdrive effect.
func (s *Sound) NewOverdrive() (*Overdrive, error) {
	const op = "overdrive.new"
	t := s.api.Overdrive
	if t == nil {
		return nil, errors.MissingTable("sound.overdrive")
	}
	if t.New == nil {
		return nil, errors.MissingFunction(errors.PhaseSound, op)
	}
	raw := t.New()
	if raw == 0 {
		return nil, errors.ProtocolViolation(errors.PhaseSound, op, "returned null")
	}
	return &Overdrive{effect: newEffect(s, raw, "overdrive", t.Free), api: t}, nil
}

// NewOnePoleFilter creates a one-pole filter effect.
func (s *Sound) NewOnePoleFilter() (*OnePoleFilter, error) {
	const op = "onepole.new"
	t := s.api.OnePole
	if t == nil {
		return nil, errors.MissingTable("sound.onepole")
	}
	if t.New == nil {
		return nil, errors.MissingFunction(errors.PhaseSound, op)
	}
	raw := t.New()
	if raw == 0 {
		return nil, errors.ProtocolViolation(errors.PhaseSound, op, "returned null")
	}
	return &OnePoleFilter{effect: newEffect(s, raw, "onepole", t.Free), api: t}, nil
}

// NewDelayLine creates a delay line holding seconds of audio.
func (s *Sound) NewDelayLine(seconds float32, stereo bool) (*DelayLine, error) {
	const op = "delayline.new"
	frames := float64(seconds) * native.SamplesPerSecond
	if seconds < 0 || frames > math.MaxInt32 || math.IsNaN(frames) {
		return nil, errors.Overflow(errors.PhaseSound, op, seconds, "int32 frames")
	}
	t := s.api.DelayLine
	if t == nil {
		return nil, errors.MissingTable("sound.delayline")
	}
	if t.New == nil {
		return nil, errors.MissingFunction(errors.PhaseSound, op)
	}
	raw := t.New(int32(frames), stereo)
	if raw == 0 {
		return nil, errors.ProtocolViolation(errors.PhaseSound, op, "returned null")
	}
	return &DelayLine{effect: newEffect(s, raw, "delayline", t.Free), api: t}, nil
}

// NewSynth creates a synthesizer source.
func (s *Sound) NewSynth() (*Synth, error) {
	const op = "synth.new"
	t := s.api.Synth
	if t == nil {
		return nil, errors.MissingTable("sound.synth")
	}
	if t.New == nil {
		return nil, errors.MissingFunction(errors.PhaseSound, op)
	}
	raw := t.New()
	if raw == 0 {
		return nil, errors.ProtocolViolation(errors.PhaseSound, op, "returned null")
	}
	return &Synth{sound: s, api: t, raw: raw, id: s.id()}, nil
}
