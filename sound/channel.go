package sound

import (
	"slices"

	"go.uber.org/zap"

	"github.com/wippyai/pdbridge/errors"
	"github.com/wippyai/pdbridge/native"
)

// Channel is a mixer channel. It keeps every effect and source added to it
// alive until they are removed or the channel is freed.
type Channel struct {
	sound   *Sound
	api     *native.SoundChannel
	raw     native.Channel
	effects []Effect
	sources []Source
	freed   bool
}

// Raw returns the opaque host handle.
func (c *Channel) Raw() native.Channel { return c.raw }

func (c *Channel) check(op string, present bool) error {
	if c.freed {
		return errors.InvalidState(errors.PhaseSound, op, "channel already freed")
	}
	if !present {
		return errors.MissingFunction(errors.PhaseSound, op)
	}
	return nil
}

// SetVolume sets the channel volume, 0 to 1.
func (c *Channel) SetVolume(v float32) error {
	const op = "channel.setVolume"
	if err := c.check(op, c.api.SetVolume != nil); err != nil {
		return err
	}
	c.api.SetVolume(c.raw, v)
	return nil
}

// AddEffect runs the channel through e and returns its identity token.
func (c *Channel) AddEffect(e Effect) (ID, error) {
	const op = "channel.addEffect"
	if e == nil {
		return 0, errors.InvalidArgument(errors.PhaseSound, op, "effect is required")
	}
	if err := c.check(op, c.api.AddEffect != nil); err != nil {
		return 0, err
	}
	if c.api.AddEffect(c.raw, e.NativeEffect()) == 0 {
		return 0, errors.New(errors.PhaseSound, errors.KindNative).
			Op(op).
			Detail("host rejected effect %d", e.ID()).
			Build()
	}
	e.attach(1)
	c.effects = append(c.effects, e)
	return e.ID(), nil
}

// RemoveEffect detaches the effect with the given identity. If the host
// refuses, the effect stays on the channel and remains attached.
func (c *Channel) RemoveEffect(id ID) error {
	const op = "channel.removeEffect"
	if err := c.check(op, c.api.RemoveEffect != nil); err != nil {
		return err
	}
	i := slices.IndexFunc(c.effects, func(e Effect) bool { return e.ID() == id })
	if i < 0 {
		return errors.InvalidArgument(errors.PhaseSound, op, "effect is not on this channel")
	}
	e := c.effects[i]
	if c.api.RemoveEffect(c.raw, e.NativeEffect()) == 0 {
		return errors.New(errors.PhaseSound, errors.KindNative).
			Op(op).
			Detail("host refused to remove effect %d", id).
			Build()
	}
	e.attach(-1)
	c.effects = slices.Delete(c.effects, i, i+1)
	return nil
}

// AddSource mixes s into the channel and returns its identity token.
func (c *Channel) AddSource(s Source) (ID, error) {
	const op = "channel.addSource"
	if s == nil {
		return 0, errors.InvalidArgument(errors.PhaseSound, op, "source is required")
	}
	if err := c.check(op, c.api.AddSource != nil); err != nil {
		return 0, err
	}
	if c.api.AddSource(c.raw, s.NativeSource()) == 0 {
		return 0, errors.New(errors.PhaseSound, errors.KindNative).
			Op(op).
			Detail("host rejected source %d", s.ID()).
			Build()
	}
	s.attach(1)
	c.sources = append(c.sources, s)
	return s.ID(), nil
}

// RemoveSource detaches the source with the given identity. If the host
// refuses, the source stays on the channel and remains attached.
func (c *Channel) RemoveSource(id ID) error {
	const op = "channel.removeSource"
	if err := c.check(op, c.api.RemoveSource != nil); err != nil {
		return err
	}
	i := slices.IndexFunc(c.sources, func(s Source) bool { return s.ID() == id })
	if i < 0 {
		return errors.InvalidArgument(errors.PhaseSound, op, "source is not on this channel")
	}
	s := c.sources[i]
	if c.api.RemoveSource(c.raw, s.NativeSource()) == 0 {
		return errors.New(errors.PhaseSound, errors.KindNative).
			Op(op).
			Detail("host refused to remove source %d", id).
			Build()
	}
	s.attach(-1)
	c.sources = slices.Delete(c.sources, i, i+1)
	return nil
}

// Effects returns the identity tokens of attached effects in order.
func (c *Channel) Effects() []ID {
	out := make([]ID, len(c.effects))
	for i, e := range c.effects {
		out[i] = e.ID()
	}
	return out
}

// Sources returns the identity tokens of attached sources in order.
func (c *Channel) Sources() []ID {
	out := make([]ID, len(c.sources))
	for i, s := range c.sources {
		out[i] = s.ID()
	}
	return out
}

// Free releases the native channel and detaches everything on it. Freeing
// twice is a no-op.
func (c *Channel) Free() error {
	const op = "channel.free"
	if c.freed {
		return nil
	}
	if c.api.FreeChannel == nil {
		return errors.MissingFunction(errors.PhaseSound, op)
	}
	c.freed = true
	c.api.FreeChannel(c.raw)
	for _, e := range c.effects {
		e.attach(-1)
	}
	for _, s := range c.sources {
		s.attach(-1)
	}
	c.sound.log.Debug("sound channel freed",
		zap.Int("effects", len(c.effects)),
		zap.Int("sources", len(c.sources)))
	c.effects, c.sources = nil, nil
	return nil
}
