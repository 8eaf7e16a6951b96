// Package registry tracks every live relay connection, independent of room
// membership. It is the source of the connection count reported by the stats
// reporter and the admin API.
package registry
