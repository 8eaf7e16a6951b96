// Package config loads the relay configuration from the `server:` section of
// config.yaml and watches it for changes.
//
// Config fields:
//   - HTTPPort            — WebSocket endpoint, admin API and /metrics (default 8080)
//   - GRPCPort            — gRPC health service, 0 disables (default 50051)
//   - WSPath              — upgrade endpoint path (default "/ws")
//   - LogLevel            — debug|info|warn|error, applied again on hot reload
//   - Heartbeat.Interval  — ping period per connection (default 30s)
//   - Stats.Interval      — stats log period (default 60s)
//   - Transport.*         — write timeout, send queue depth, max inbound frame
//   - AdminAuth.*         — apikey|none for the admin surface, key from KeyEnv
//
// Load(path) applies defaults before unmarshalling, then validates.
// Watch(ctx, path, onChange) reloads on write/create events via fsnotify.
package config
