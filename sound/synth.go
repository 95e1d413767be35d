package sound

import (
	"github.com/wippyai/pdbridge/errors"
	"github.com/wippyai/pdbridge/native"
)

// Synth is a synthesizer voice.
type Synth struct {
	sound    *Sound
	api      *native.Synth
	raw      native.Source
	id       ID
	attached int
	freed    bool
}

// ID returns the synth's identity token.
func (s *Synth) ID() ID { return s.id }

// NativeSource returns the opaque host handle.
func (s *Synth) NativeSource() native.Source { return s.raw }

func (s *Synth) attach(delta int) { s.attached += delta }

// PlayNote plays freq Hz at velocity (0 to 1) for length seconds, starting at
// sample time when. A zero when plays immediately; a negative length holds the
// note until Stop.
func (s *Synth) PlayNote(freq, velocity, length float32, when uint32) error {
	const op = "synth.playNote"
	if s.freed {
		return errors.InvalidState(errors.PhaseSound, op, "synth already freed")
	}
	if s.api.PlayNote == nil {
		return errors.MissingFunction(errors.PhaseSound, op)
	}
	s.api.PlayNote(s.raw, freq, velocity, length, when)
	return nil
}

// Stop ends the playing note at sample time when.
func (s *Synth) Stop(when uint32) error {
	const op = "synth.stop"
	if s.freed {
		return errors.InvalidState(errors.PhaseSound, op, "synth already freed")
	}
	if s.api.Stop == nil {
		return errors.MissingFunction(errors.PhaseSound, op)
	}
	s.api.Stop(s.raw, when)
	return nil
}

// Free releases the native synth. It fails while the synth is still on a
// channel.
func (s *Synth) Free() error {
	const op = "synth.free"
	if s.freed {
		return nil
	}
	if s.attached > 0 {
		return errors.InvalidState(errors.PhaseSound, op, "synth is still attached to a channel")
	}
	if s.api.Free == nil {
		return errors.MissingFunction(errors.PhaseSound, op)
	}
	s.freed = true
	s.api.Free(s.raw)
	return nil
}
