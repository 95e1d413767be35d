// Package network bridges the host's callback-driven HTTP API into
// application closures.
//
// The host reaches managed state only through a userdata word stored on each
// native connection. That word is a generation token into a table of weak
// pointers, so a connection the application has released can never be
// reached again and a stale token is ignored.
//
// # Lifecycle
//
// HTTP.NewConnection returns a *Connection holding one strong reference.
// Clone adds references and Release drops them. The final Release reclaims
// the token, clears the userdata, then closes and releases the native
// connection exactly once.
//
// # Callbacks
//
// Each connection has one slot per event. The matching trampoline is
// registered with the host exactly while its slot holds a closure, so the
// host never calls into an empty slot. During dispatch the bridge holds a
// temporary reference, which lets a callback release the application's last
// reference or replace its own slot safely. The callback receives that
// temporary reference; it stops working when the callback returns, so a
// callback that wants to keep the connection must Clone it.
//
// Everything here runs on one logical thread. The host re-enters the bridge
// synchronously from inside native calls; it never calls from another
// goroutine.
package network
