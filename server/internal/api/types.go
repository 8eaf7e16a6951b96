package api

// HealthResponse is the payload for GET /api/v1/health.
type HealthResponse struct {
	Status      string `json:"status"`
	Connections int    `json:"connections"`
	Rooms       int    `json:"rooms"`
}

// StatsResponse is the payload for GET /api/v1/stats.
type StatsResponse struct {
	Connections int    `json:"connections"`
	Rooms       int    `json:"rooms"`
	TakenAt     string `json:"taken_at"` // RFC3339
}

// errorResponse is a generic JSON error body.
type errorResponse struct {
	Error string `json:"error"`
}
