package tcp

import (
	"fmt"
	"github.com/ValentinKolb/svsock/sock/common"
	"github.com/ValentinKolb/svsock/sock/transport"
	"net"
	"time"
)

// serverConnector implements the IServerConnector interface for TCP sockets
type serverConnector struct{}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IServerConnector)
// --------------------------------------------------------------------------

func (c *serverConnector) GetName() string {
	return transport.SchemeTCP
}

func (c *serverConnector) Listen(endpoint transport.Endpoint, _ common.ServerConfig) (net.Listener, error) {
	listener, err := net.Listen("tcp", endpoint.HostPort())
	if err != nil {
		return nil, fmt.Errorf("failed to create TCP socket: %v", err)
	}

	return listener, nil
}

// UpgradeConnection applies TCPConf and SocketConf to an accepted TCP connection
func (c *serverConnector) UpgradeConnection(conn net.Conn, config common.ServerConfig) error {
	return upgradeTCP(conn, config.Transport, config.Transport.TCPNoDelay)
}

func secondsToDuration(sec int) time.Duration {
	return time.Duration(sec) * time.Second
}
