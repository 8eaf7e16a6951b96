// Package ws is the relay's WebSocket transport.
//
// Server.ServeHTTP upgrades a request, registers the connection, starts its
// heartbeat and write pump, then runs the read loop on the handler goroutine.
// Every inbound frame is handed to the router in arrival order, so frames of
// one connection never interleave with each other.
//
// Outgoing frames go through a bounded per-connection queue drained by the
// write pump. Conn.Send never blocks: a full queue or a closed connection is
// reported as an error and the frame is dropped for that recipient only.
//
// Close is idempotent and may be triggered by a heartbeat failure, a write
// error, server shutdown or the peer. Whatever the trigger, the read loop
// exits and runs the cleanup exactly once: heartbeat stop, router
// disconnect, registry deregistration.
//
// The upgrader accepts all origins. Apply CORS restrictions at the reverse
// proxy level. The endpoint is mounted at server.ws_path (default /ws).
package ws
