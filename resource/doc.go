// Package resource provides generation-checked token tables for values the
// host refers to by opaque userdata.
//
// The host firmware cannot hold Go pointers. Instead the bridge stores a value
// in a table and hands the host a Token, which the host passes back unmodified
// when it invokes a callback.
//
// # Tokens
//
// A Token packs a 1-based slot index and the slot's generation:
//
//	table := resource.NewTable()
//
//	tok := table.Insert(resource.KindConnection, conn)
//
//	value, ok := table.Get(tok) // ok
//	table.Remove(tok)
//	value, ok = table.Get(tok)  // !ok, even after the slot is reused
//
// Freed slots are reused, but every reuse advances the generation, so a token
// the host still holds for a torn-down value resolves to nothing instead of to
// the slot's new occupant.
//
// # Kinds
//
// Each stored value carries a Kind. GetTyped refuses a token whose entry was
// inserted under a different kind:
//
//	value, ok := table.GetTyped(tok, resource.KindConnection)    // ok
//	value, ok := table.GetTyped(tok, resource.KindAccessRequest) // !ok
//
// TypedTable wraps a table for a single Go type and kind.
//
// # Observers
//
// Register observers to track lifecycle events:
//
//	table.Subscribe(obs) // obs.OnResourceEvent(resource.Event{...})
//
// # Memory Management
//
// Values are not removed automatically. The owner must call Remove exactly once
// when the host may no longer use the token.
package resource
