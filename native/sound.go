package native

// Opaque sound objects.
type (
	Channel uintptr
	Effect  uintptr
	Source  uintptr
)

// Sound is the sound table.
type Sound struct {
	GetCurrentTime   func() uint32
	SetOutputsActive func(headphone, speaker bool)

	Channel   *SoundChannel
	Overdrive *Overdrive
	OnePole   *OnePoleFilter
	DelayLine *DelayLine
	Synth     *Synth
}

// SoundChannel manages mixer channels. Add/remove entries return 1 on
// success and 0 when the host rejected the request.
type SoundChannel struct {
	NewChannel   func() Channel
	FreeChannel  func(ch Channel)
	SetVolume    func(ch Channel, volume float32)
	AddEffect    func(ch Channel, fx Effect) int32
	RemoveEffect func(ch Channel, fx Effect) int32
	AddSource    func(ch Channel, src Source) int32
	RemoveSource func(ch Channel, src Source) int32
}

type Overdrive struct {
	New      func() Effect
	Free     func(fx Effect)
	SetGain  func(fx Effect, gain float32)
	SetLimit func(fx Effect, limit float32)
}

type OnePoleFilter struct {
	New          func() Effect
	Free         func(fx Effect)
	SetParameter func(fx Effect, p float32)
}

type DelayLine struct {
	New         func(length int32, stereo bool) Effect
	Free        func(fx Effect)
	SetFeedback func(fx Effect, fb float32)
}

type Synth struct {
	New      func() Source
	Free     func(src Source)
	PlayNote func(src Source, freq, velocity, length float32, when uint32)
	Stop     func(src Source, when uint32)
}

// SamplesPerSecond is the sound engine's fixed frame rate.
const SamplesPerSecond = 44100
