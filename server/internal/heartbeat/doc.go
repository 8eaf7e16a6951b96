// Package heartbeat runs one liveness probe per connection.
//
// Start launches a ticker that calls Pinger.Ping on every interval. The first
// Ping error stops the monitor and invokes the failure callback exactly once;
// the caller is expected to close the connection there, which drives the
// normal disconnect cleanup.
//
// Liveness is judged only by whether the probe can be sent. Probe
// acknowledgements are not tracked and no reply deadline is enforced, so a
// peer that stops answering while its send path keeps succeeding is never
// reaped by this package.
package heartbeat
