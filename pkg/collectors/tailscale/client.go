package tailscale

import (
	"tailscale.com/client/local"
)

// newRealClient connects to tailscaled through the LocalAPI socket. An empty
// socketPath selects the platform default.
func newRealClient(socketPath string) StatusClient {
	lc := &local.Client{}
	if socketPath != "" {
		lc.Socket = socketPath
		lc.UseSocketOnly = true
	}
	return lc
}
