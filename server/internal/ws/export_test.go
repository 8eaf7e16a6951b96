package ws

// SetConnIDs replaces the connection ID generator.
func SetConnIDs(s *Server, next func() string) { s.newID = next }

// SetPing replaces the heartbeat ping sent to each connection.
func SetPing(s *Server, ping func(*Conn) error) { s.ping = ping }
