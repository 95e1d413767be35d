package sound

import (
	"go.uber.org/zap"

	"github.com/wippyai/pdbridge/errors"
	"github.com/wippyai/pdbridge/native"
)

// Effect is anything a channel can run its audio through.
type Effect interface {
	ID() ID
	NativeEffect() native.Effect
	attach(delta int)
}

// Source is anything a channel can mix in.
type Source interface {
	ID() ID
	NativeSource() native.Source
	attach(delta int)
}

// effect carries the identity and lifetime shared by every effect type.
type effect struct {
	sound    *Sound
	raw      native.Effect
	id       ID
	kind     string
	free     func(native.Effect)
	attached int
	freed    bool
}

func newEffect(s *Sound, raw native.Effect, kind string, free func(native.Effect)) effect {
	return effect{sound: s, raw: raw, id: s.id(), kind: kind, free: free}
}

// ID returns the effect's identity token.
func (e *effect) ID() ID { return e.id }

// NativeEffect returns the opaque host handle.
func (e *effect) NativeEffect() native.Effect { return e.raw }

func (e *effect) attach(delta int) { e.attached += delta }

// Free releases the native effect. It fails while the effect is still on a
// channel. Freeing twice is a no-op.
func (e *effect) Free() error {
	op := e.kind + ".free"
	if e.freed {
		return nil
	}
	if e.attached > 0 {
		return errors.InvalidState(errors.PhaseSound, op, "effect is still attached to a channel")
	}
	if e.free == nil {
		return errors.MissingFunction(errors.PhaseSound, op)
	}
	e.freed = true
	e.free(e.raw)
	e.sound.log.Debug("sound effect freed", zap.String("kind", e.kind), zap.Uint64("id", uint64(e.id)))
	return nil
}

func (e *effect) set(op string, fn func(native.Effect, float32), v float32) error {
	if e.freed {
		return errors.InvalidState(errors.PhaseSound, op, "effect already freed")
	}
	if fn == nil {
		return errors.MissingFunction(errors.PhaseSound, op)
	}
	fn(e.raw, v)
	return nil
}

// Overdrive distorts and clips its input.
type Overdrive struct {
	effect
	api *native.Overdrive
}

// SetGain sets the pre-clip gain.
func (o *Overdrive) SetGain(gain float32) error {
	return o.set("overdrive.setGain", o.api.SetGain, gain)
}

// SetLimit sets the clipping level.
func (o *Overdrive) SetLimit(limit float32) error {
	return o.set("overdrive.setLimit", o.api.SetLimit, limit)
}

// OnePoleFilter is a single-pole low or high pass filter.
type OnePoleFilter struct {
	effect
	api *native.OnePoleFilter
}

// SetParameter sets the filter coefficient, -1 to 1.
func (f *OnePoleFilter) SetParameter(p float32) error {
	return f.set("onepole.setParameter", f.api.SetParameter, p)
}

// DelayLine echoes its input.
type DelayLine struct {
	effect
	api *native.DelayLine
}

// SetFeedback sets how much output is fed back into the line.
func (d *DelayLine) SetFeedback(fb float32) error {
	return d.set("delayline.setFeedback", d.api.SetFeedback, fb)
}
