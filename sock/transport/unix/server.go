package unix

import (
	"errors"
	"fmt"
	"github.com/ValentinKolb/svsock/sock/common"
	"github.com/ValentinKolb/svsock/sock/transport"
	"io/fs"
	"net"
	"os"
)

// serverConnector implements the IServerConnector interface for Unix sockets
type serverConnector struct{}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IServerConnector)
// --------------------------------------------------------------------------

func (c *serverConnector) GetName() string {
	return transport.SchemeUnix
}

func (c *serverConnector) Listen(endpoint transport.Endpoint, _ common.ServerConfig) (net.Listener, error) {
	// Remove a stale socket file left behind by a previous peer
	if !endpoint.IsAbstract() {
		if info, err := os.Lstat(endpoint.Path); err == nil {
			if info.Mode()&fs.ModeSocket == 0 {
				return nil, fmt.Errorf("refusing to replace non-socket file %s", endpoint.Path)
			}
			if err := os.Remove(endpoint.Path); err != nil {
				return nil, fmt.Errorf("failed to remove existing socket: %v", err)
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat socket path: %v", err)
		}
	}

	// Create Unix socket listener
	listener, err := net.Listen("unix", endpoint.SocketName())
	if err != nil {
		return nil, fmt.Errorf("failed to create Unix socket: %v", err)
	}

	return listener, nil
}

func (c *serverConnector) UpgradeConnection(conn net.Conn, config common.ServerConfig) error {
	return upgradeUnix(conn, config.Transport.SocketConf)
}
