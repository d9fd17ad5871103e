package shared

import (
	"context"
	"net"
	"time"
)

// OnlineProbe is the host dialed by [IsOnline].
var OnlineProbe = "www.google.com:80"

var onlineTimeouts = []time.Duration{2 * time.Second, 5 * time.Second, 10 * time.Second, 15 * time.Second}

// IsOnline reports whether a TCP connection to [OnlineProbe] can be opened,
// retrying with increasingly patient timeouts.
func IsOnline(ctx context.Context) bool {
	for _, timeout := range onlineTimeouts {
		d := net.Dialer{Timeout: timeout}
		conn, err := d.DialContext(ctx, "tcp", OnlineProbe)
		if err == nil {
			conn.Close()
			return true
		}
		if ctx.Err() != nil {
			return false
		}
	}
	return false
}
