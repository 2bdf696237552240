// Package remote shares observation events between processes.
//
// A Hub accepts websocket peers and forwards every message it receives to
// all other peers. Each process runs a Relay: it listens to its local
// observation.Manager, converts remote-able events to EventData envelopes,
// sends them through a Client, and notifies the envelopes received from
// other nodes locally with a RemoteSource as event source. Events carrying a
// RemoteSource are never sent again.
package remote
