package simhost

import (
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/wippyai/pdbridge/native"
)

// The simulator mixes nothing. It keeps enough state for channels to accept
// and reject effects and sources the way the device does, and a clock that
// follows wall time.
type mixer struct {
	next     uintptr
	channels map[native.Channel]*mixChannel
	live     map[uintptr]bool
}

type mixChannel struct {
	effects []native.Effect
	sources []native.Source
}

func (h *Host) soundTable() *native.Sound {
	m := &mixer{
		next:     0x8000,
		channels: make(map[native.Channel]*mixChannel),
		live:     make(map[uintptr]bool),
	}
	alloc := func() uintptr {
		m.next++
		m.live[m.next] = true
		return m.next
	}
	free := func(p uintptr) { delete(m.live, p) }

	return &native.Sound{
		GetCurrentTime: func() uint32 {
			return uint32(time.Since(h.start).Seconds() * native.SamplesPerSecond)
		},
		SetOutputsActive: func(headphone, speaker bool) {
			h.log.Debug("sound outputs", zap.Bool("headphone", headphone), zap.Bool("speaker", speaker))
		},
		Channel: &native.SoundChannel{
			NewChannel: func() native.Channel {
				ch := native.Channel(alloc())
				m.channels[ch] = &mixChannel{}
				return ch
			},
			FreeChannel: func(ch native.Channel) {
				delete(m.channels, ch)
				free(uintptr(ch))
			},
			SetVolume: func(native.Channel, float32) {},
			AddEffect: func(ch native.Channel, fx native.Effect) int32 {
				c := m.channels[ch]
				if c == nil || !m.live[uintptr(fx)] || slices.Contains(c.effects, fx) {
					return 0
				}
				c.effects = append(c.effects, fx)
				return 1
			},
			RemoveEffect: func(ch native.Channel, fx native.Effect) int32 {
				c := m.channels[ch]
				if c == nil {
					return 0
				}
				i := slices.Index(c.effects, fx)
				if i < 0 {
					return 0
				}
				c.effects = slices.Delete(c.effects, i, i+1)
				return 1
			},
			AddSource: func(ch native.Channel, src native.Source) int32 {
				c := m.channels[ch]
				if c == nil || !m.live[uintptr(src)] || slices.Contains(c.sources, src) {
					return 0
				}
				c.sources = append(c.sources, src)
				return 1
			},
			RemoveSource: func(ch native.Channel, src native.Source) int32 {
				c := m.channels[ch]
				if c == nil {
					return 0
				}
				i := slices.Index(c.sources, src)
				if i < 0 {
					return 0
				}
				c.sources = slices.Delete(c.sources, i, i+1)
				return 1
			},
		},
		Overdrive: &native.Overdrive{
			New:      func() native.Effect { return native.Effect(alloc()) },
			Free:     func(fx native.Effect) { free(uintptr(fx)) },
			SetGain:  func(native.Effect, float32) {},
			SetLimit: func(native.Effect, float32) {},
		},
		OnePole: &native.OnePoleFilter{
			New:          func() native.Effect { return native.Effect(alloc()) },
			Free:         func(fx native.Effect) { free(uintptr(fx)) },
			SetParameter: func(native.Effect, float32) {},
		},
		DelayLine: &native.DelayLine{
			New:         func(int32, bool) native.Effect { return native.Effect(alloc()) },
			Free:        func(fx native.Effect) { free(uintptr(fx)) },
			SetFeedback: func(native.Effect, float32) {},
		},
		Synth: &native.Synth{
			New:  func() native.Source { return native.Source(alloc()) },
			Free: func(src native.Source) { free(uintptr(src)) },
			PlayNote: func(_ native.Source, freq, velocity, length float32, when uint32) {
				h.log.Debug("note", zap.Float32("freq", freq), zap.Float32("velocity", velocity), zap.Float32("length", length))
			},
			Stop: func(native.Source, uint32) {},
		},
	}
}
