// Package stats periodically summarises relay activity.
//
// Reporter.Run logs a "relay stats" record (live connections, active rooms,
// message counters) on a fixed interval, independent of connection events.
// Reporter.ServeHTTP exposes the same numbers in the Prometheus text
// exposition format for scraping at /metrics.
//
// The reporter only reads from the registry, room directory and router. A
// failure to encode or write never reaches them.
package stats
