package nativetest

import (
	"slices"

	"github.com/wippyai/pdbridge/native"
)

// Channel is the host-side state of a sound channel.
type Channel struct {
	Volume  float32
	Effects []native.Effect
	Sources []native.Source
	Freed   bool
}

// Effect is the host-side state of a sound effect.
type Effect struct {
	Type   string
	Params map[string]float32
	Freed  int
}

// Source is the host-side state of a synth.
type Source struct {
	Notes []float32
	Freed int
}

type soundState struct {
	next     uintptr
	time     uint32
	channels map[native.Channel]*Channel
	effects  map[native.Effect]*Effect
	sources  map[native.Source]*Source
	outputs  [2]bool
}

func newSoundState() *soundState {
	return &soundState{
		next:     0x9000,
		channels: make(map[native.Channel]*Channel),
		effects:  make(map[native.Effect]*Effect),
		sources:  make(map[native.Source]*Source),
	}
}

// SoundChannel returns host state for ch.
func (h *Host) SoundChannel(ch native.Channel) *Channel { return h.sound.channels[ch] }

// SoundEffect returns host state for fx.
func (h *Host) SoundEffect(fx native.Effect) *Effect { return h.sound.effects[fx] }

// SoundSource returns host state for src.
func (h *Host) SoundSource(src native.Source) *Source { return h.sound.sources[src] }

// AdvanceSoundTime moves the sound clock forward by frames.
func (h *Host) AdvanceSoundTime(frames uint32) { h.sound.time += frames }

// Outputs returns the last SetOutputsActive arguments.
func (h *Host) Outputs() (headphone, speaker bool) { return h.sound.outputs[0], h.sound.outputs[1] }

func (h *Host) newEffect(kind string) native.Effect {
	h.sound.next++
	fx := native.Effect(h.sound.next)
	h.sound.effects[fx] = &Effect{Type: kind, Params: make(map[string]float32)}
	return fx
}

func (h *Host) setParam(fx native.Effect, name string, v float32) {
	if e := h.sound.effects[fx]; e != nil {
		e.Params[name] = v
	}
}

func (h *Host) freeEffect(fx native.Effect) {
	if e := h.sound.effects[fx]; e != nil {
		e.Freed++
	}
}

func (h *Host) soundTable() *native.Sound {
	s := h.sound
	return &native.Sound{
		GetCurrentTime: func() uint32 {
			h.record("sound.getCurrentTime")
			return s.time
		},
		SetOutputsActive: func(headphone, speaker bool) {
			h.record("sound.setOutputsActive")
			s.outputs = [2]bool{headphone, speaker}
		},
		Channel: &native.SoundChannel{
			NewChannel: func() native.Channel {
				h.record("channel.new")
				s.next++
				ch := native.Channel(s.next)
				s.channels[ch] = &Channel{Volume: 1}
				return ch
			},
			FreeChannel: func(ch native.Channel) {
				h.record("channel.free")
				s.channels[ch].Freed = true
			},
			SetVolume: func(ch native.Channel, v float32) {
				h.record("channel.setVolume")
				s.channels[ch].Volume = v
			},
			AddEffect: func(ch native.Channel, fx native.Effect) int32 {
				h.record("channel.addEffect")
				c := s.channels[ch]
				if slices.Contains(c.Effects, fx) {
					return 0
				}
				c.Effects = append(c.Effects, fx)
				return 1
			},
			RemoveEffect: func(ch native.Channel, fx native.Effect) int32 {
				h.record("channel.removeEffect")
				c := s.channels[ch]
				i := slices.Index(c.Effects, fx)
				if i < 0 {
					return 0
				}
				c.Effects = slices.Delete(c.Effects, i, i+1)
				return 1
			},
			AddSource: func(ch native.Channel, src native.Source) int32 {
				h.record("channel.addSource")
				c := s.channels[ch]
				if slices.Contains(c.Sources, src) {
					return 0
				}
				c.Sources = append(c.Sources, src)
				return 1
			},
			RemoveSource: func(ch native.Channel, src native.Source) int32 {
				h.record("channel.removeSource")
				c := s.channels[ch]
				i := slices.Index(c.Sources, src)
				if i < 0 {
					return 0
				}
				c.Sources = slices.Delete(c.Sources, i, i+1)
				return 1
			},
		},
		Overdrive: &native.Overdrive{
			New:      func() native.Effect { h.record("overdrive.new"); return h.newEffect("overdrive") },
			Free:     func(fx native.Effect) { h.record("overdrive.free"); h.freeEffect(fx) },
			SetGain:  func(fx native.Effect, v float32) { h.setParam(fx, "gain", v) },
			SetLimit: func(fx native.Effect, v float32) { h.setParam(fx, "limit", v) },
		},
		OnePole: &native.OnePoleFilter{
			New:          func() native.Effect { h.record("onepole.new"); return h.newEffect("onepole") },
			Free:         func(fx native.Effect) { h.record("onepole.free"); h.freeEffect(fx) },
			SetParameter: func(fx native.Effect, v float32) { h.setParam(fx, "parameter", v) },
		},
		DelayLine: &native.DelayLine{
			New: func(length int32, stereo bool) native.Effect {
				h.record("delayline.new")
				fx := h.newEffect("delayline")
				h.setParam(fx, "length", float32(length))
				return fx
			},
			Free:        func(fx native.Effect) { h.record("delayline.free"); h.freeEffect(fx) },
			SetFeedback: func(fx native.Effect, v float32) { h.setParam(fx, "feedback", v) },
		},
		Synth: &native.Synth{
			New: func() native.Source {
				h.record("synth.new")
				s.next++
				src := native.Source(s.next)
				s.sources[src] = &Source{}
				return src
			},
			Free: func(src native.Source) {
				h.record("synth.free")
				s.sources[src].Freed++
			},
			PlayNote: func(src native.Source, freq, velocity, length float32, when uint32) {
				h.record("synth.playNote")
				s.sources[src].Notes = append(s.sources[src].Notes, freq)
			},
			Stop: func(src native.Source, when uint32) {
				h.record("synth.stop")
			},
		},
	}
}
