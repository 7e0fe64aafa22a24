package unix

import (
	"context"
	"github.com/ValentinKolb/svsock/sock/common"
	"github.com/ValentinKolb/svsock/sock/transport"
	"net"
)

func init() {
	transport.RegisterConnector(&clientConnector{}, &serverConnector{})
}

// clientConnector implements the IClientConnector interface for Unix sockets
type clientConnector struct {
	dialer net.Dialer
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IClientConnector)
// --------------------------------------------------------------------------

func (c *clientConnector) GetName() string {
	return transport.SchemeUnix
}

// Connect makes a single connection attempt to the socket path. Abstract names
// (leading @) are passed to the kernel with a leading NUL byte.
func (c *clientConnector) Connect(ctx context.Context, endpoint transport.Endpoint) (net.Conn, error) {
	conn, err := c.dialer.DialContext(ctx, "unix", endpoint.SocketName())
	if err != nil {
		return nil, transport.NewUnreachable(endpoint.String(), err)
	}
	return conn, nil
}

func (c *clientConnector) UpgradeConnection(conn net.Conn, config common.ClientConfig, _ common.WaitPolicy) error {
	return upgradeUnix(conn, config.Transport.SocketConf)
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// upgradeUnix applies the socket buffer sizes to a Unix connection
func upgradeUnix(conn net.Conn, conf common.SocketConf) error {
	unixConn, ok := conn.(*net.UnixConn)
	if !ok {
		return nil // Not a Unix connection, nothing to upgrade
	}

	if conf.WriteBufferSize > 0 {
		if err := unixConn.SetWriteBuffer(conf.WriteBufferSize); err != nil {
			return err
		}
	}

	if conf.ReadBufferSize > 0 {
		if err := unixConn.SetReadBuffer(conf.ReadBufferSize); err != nil {
			return err
		}
	}

	return nil
}
