// Package sound wraps the host's mixer channels, effects and synth voices.
//
// Every effect and source carries an ID issued by the Sound facade that
// created it. Channels track what is attached by ID, so removal never depends
// on comparing native handles or Go pointers:
//
//	ch, _ := snd.NewChannel()
//	od, _ := snd.NewOverdrive()
//	id, _ := ch.AddEffect(od)
//	...
//	ch.RemoveEffect(id)
//	od.Free()
//
// An effect or source cannot be freed while a channel still holds it.
package sound
