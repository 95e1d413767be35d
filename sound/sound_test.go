package sound

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/pdbridge/errors"
	"github.com/wippyai/pdbridge/native"
	"github.com/wippyai/pdbridge/native/nativetest"
)

func newTestSound(t *testing.T) (*Sound, *nativetest.Host) {
	t.Helper()
	host := nativetest.New()
	s, err := New(host.API().Sound)
	require.NoError(t, err)
	return s, host
}

func TestNew_MissingTable(t *testing.T) {
	_, err := New(nil)
	assert.True(t, errors.IsKind(err, errors.KindConfiguration))
}

func TestSound_ClockAndOutputs(t *testing.T) {
	s, host := newTestSound(t)

	host.AdvanceSoundTime(native.SamplesPerSecond)
	now, err := s.CurrentTime()
	require.NoError(t, err)
	assert.Equal(t, uint32(native.SamplesPerSecond), now)

	require.NoError(t, s.SetOutputsActive(true, false))
	hp, sp := host.Outputs()
	assert.True(t, hp)
	assert.False(t, sp)

	host.API().Sound.GetCurrentTime = nil
	_, err = s.CurrentTime()
	assert.True(t, errors.IsKind(err, errors.KindConfiguration))
}

func TestChannel_EffectsByIdentity(t *testing.T) {
	s, host := newTestSound(t)
	ch, err := s.NewChannel()
	require.NoError(t, err)

	od, err := s.NewOverdrive()
	require.NoError(t, err)
	lp, err := s.NewOnePoleFilter()
	require.NoError(t, err)
	assert.NotEqual(t, od.ID(), lp.ID())

	odID, err := ch.AddEffect(od)
	require.NoError(t, err)
	lpID, err := ch.AddEffect(lp)
	require.NoError(t, err)
	assert.Equal(t, []ID{odID, lpID}, ch.Effects())

	require.NoError(t, ch.RemoveEffect(odID))
	assert.Equal(t, []ID{lpID}, ch.Effects())
	assert.Equal(t, []native.Effect{lp.NativeEffect()}, host.SoundChannel(ch.Raw()).Effects)

	err = ch.RemoveEffect(odID)
	assert.True(t, errors.IsKind(err, errors.KindArgument))
}

func TestChannel_AddRejected(t *testing.T) {
	s, _ := newTestSound(t)
	ch, err := s.NewChannel()
	require.NoError(t, err)
	od, err := s.NewOverdrive()
	require.NoError(t, err)

	_, err = ch.AddEffect(od)
	require.NoError(t, err)
	_, err = ch.AddEffect(od)
	assert.True(t, errors.IsKind(err, errors.KindNative))
	assert.Len(t, ch.Effects(), 1)

	_, err = ch.AddEffect(nil)
	assert.True(t, errors.IsKind(err, errors.KindArgument))
}

func TestChannel_RemoveRejected(t *testing.T) {
	s, host := newTestSound(t)
	ch, err := s.NewChannel()
	require.NoError(t, err)
	od, err := s.NewOverdrive()
	require.NoError(t, err)
	syn, err := s.NewSynth()
	require.NoError(t, err)

	odID, err := ch.AddEffect(od)
	require.NoError(t, err)
	synID, err := ch.AddSource(syn)
	require.NoError(t, err)

	// The host no longer lists either, so it refuses both removals.
	hc := host.SoundChannel(ch.Raw())
	hc.Effects, hc.Sources = nil, nil

	err = ch.RemoveEffect(odID)
	assert.True(t, errors.IsKind(err, errors.KindNative), "got %v", err)
	assert.Equal(t, []ID{odID}, ch.Effects())
	assert.True(t, errors.IsKind(od.Free(), errors.KindInvalidState), "refused effect must stay attached")

	err = ch.RemoveSource(synID)
	assert.True(t, errors.IsKind(err, errors.KindNative), "got %v", err)
	assert.Equal(t, []ID{synID}, ch.Sources())
	assert.True(t, errors.IsKind(syn.Free(), errors.KindInvalidState), "refused source must stay attached")

	require.NoError(t, ch.Free())
	assert.NoError(t, od.Free())
	assert.NoError(t, syn.Free())
}

func TestChannel_SourcesByIdentity(t *testing.T) {
	s, host := newTestSound(t)
	ch, err := s.NewChannel()
	require.NoError(t, err)

	a, err := s.NewSynth()
	require.NoError(t, err)
	b, err := s.NewSynth()
	require.NoError(t, err)

	aID, err := ch.AddSource(a)
	require.NoError(t, err)
	bID, err := ch.AddSource(b)
	require.NoError(t, err)

	require.NoError(t, a.PlayNote(440, 1, 0.5, 0))
	assert.Equal(t, []float32{440}, host.SoundSource(a.NativeSource()).Notes)

	require.NoError(t, ch.RemoveSource(bID))
	assert.Equal(t, []ID{aID}, ch.Sources())
	assert.Equal(t, []native.Source{a.NativeSource()}, host.SoundChannel(ch.Raw()).Sources)
}

func TestEffect_FreeWhileAttached(t *testing.T) {
	s, host := newTestSound(t)
	ch, err := s.NewChannel()
	require.NoError(t, err)
	dl, err := s.NewDelayLine(0.5, true)
	require.NoError(t, err)
	require.NoError(t, dl.SetFeedback(0.25))

	fx := host.SoundEffect(dl.NativeEffect())
	assert.Equal(t, float32(native.SamplesPerSecond/2), fx.Params["length"])
	assert.Equal(t, float32(0.25), fx.Params["feedback"])

	id, err := ch.AddEffect(dl)
	require.NoError(t, err)

	err = dl.Free()
	assert.True(t, errors.IsKind(err, errors.KindInvalidState))
	assert.Zero(t, fx.Freed)

	require.NoError(t, ch.RemoveEffect(id))
	require.NoError(t, dl.Free())
	require.NoError(t, dl.Free())
	assert.Equal(t, 1, fx.Freed)

	err = dl.SetFeedback(0.5)
	assert.True(t, errors.IsKind(err, errors.KindInvalidState))
}

func TestChannel_FreeDetaches(t *testing.T) {
	s, host := newTestSound(t)
	ch, err := s.NewChannel()
	require.NoError(t, err)
	syn, err := s.NewSynth()
	require.NoError(t, err)
	od, err := s.NewOverdrive()
	require.NoError(t, err)

	_, err = ch.AddSource(syn)
	require.NoError(t, err)
	_, err = ch.AddEffect(od)
	require.NoError(t, err)

	require.NoError(t, ch.Free())
	require.NoError(t, ch.Free())
	assert.True(t, host.SoundChannel(ch.Raw()).Freed)
	assert.Equal(t, 1, host.CallCount("channel.free"))

	require.NoError(t, syn.Free())
	require.NoError(t, od.Free())

	err = ch.SetVolume(0.5)
	assert.True(t, errors.IsKind(err, errors.KindInvalidState))
}

func TestOverdrive_Params(t *testing.T) {
	s, host := newTestSound(t)
	od, err := s.NewOverdrive()
	require.NoError(t, err)

	require.NoError(t, od.SetGain(2))
	require.NoError(t, od.SetLimit(0.8))

	fx := host.SoundEffect(od.NativeEffect())
	assert.Equal(t, "overdrive", fx.Type)
	assert.Equal(t, float32(2), fx.Params["gain"])
	assert.Equal(t, float32(0.8), fx.Params["limit"])
}

func TestNewDelayLine_Overflow(t *testing.T) {
	s, _ := newTestSound(t)

	_, err := s.NewDelayLine(-1, false)
	assert.True(t, errors.IsKind(err, errors.KindArgument))

	_, err = s.NewDelayLine(1e6, false)
	assert.True(t, errors.IsKind(err, errors.KindArgument))
}

func TestSound_MissingFunctions(t *testing.T) {
	s, host := newTestSound(t)
	host.API().Sound.Overdrive.New = nil
	host.API().Sound.Synth = nil

	_, err := s.NewOverdrive()
	assert.True(t, errors.IsKind(err, errors.KindConfiguration))
	_, err = s.NewSynth()
	assert.True(t, errors.IsKind(err, errors.KindConfiguration))
}
