package tcp

import (
	"context"
	"errors"
	"fmt"
	"github.com/ValentinKolb/svsock/sock/common"
	"github.com/ValentinKolb/svsock/sock/transport"
	"net"
)

func init() {
	transport.RegisterConnector(&clientConnector{resolver: net.DefaultResolver}, &serverConnector{})
}

// clientConnector implements the IClientConnector interface for TCP sockets
type clientConnector struct {
	resolver *net.Resolver
	dialer   net.Dialer
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IClientConnector)
// --------------------------------------------------------------------------

func (c *clientConnector) GetName() string {
	return transport.SchemeTCP
}

// Connect resolves all addresses of host:port (IPv4 and IPv6) and tries them in the
// order returned by the resolver. The first successful connection wins.
func (c *clientConnector) Connect(ctx context.Context, endpoint transport.Endpoint) (net.Conn, error) {
	address := endpoint.String()

	port, err := c.resolver.LookupPort(ctx, "tcp", endpoint.Port)
	if err != nil {
		return nil, transport.NewInvalidAddress(address, err)
	}

	host := endpoint.Host
	if host == "" {
		host = "localhost"
	}
	ips, err := c.resolver.LookupIPAddr(ctx, host)
	if err != nil {
		return nil, transport.NewUnreachable(address, err)
	}
	if len(ips) == 0 {
		return nil, transport.NewUnreachable(address, fmt.Errorf("no addresses for %s", host))
	}

	var errs []error
	for _, ip := range ips {
		target := net.JoinHostPort(ip.String(), fmt.Sprint(port))
		conn, err := c.dialer.DialContext(ctx, "tcp", target)
		if err == nil {
			transport.Logger.Debugf("Connected to %s via %s", address, target)
			return conn, nil
		}
		errs = append(errs, err)
	}

	return nil, transport.NewUnreachable(address, errors.Join(errs...))
}

// UpgradeConnection applies socket options to a TCP connection. Cooperative wait
// policies always disable Nagle's algorithm.
func (c *clientConnector) UpgradeConnection(conn net.Conn, config common.ClientConfig, policy common.WaitPolicy) error {
	noDelay := config.Transport.TCPNoDelay || policy.Mode == common.WaitCooperative
	return upgradeTCP(conn, config.Transport, noDelay)
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// upgradeTCP applies TCPConf and SocketConf to a TCP connection
func upgradeTCP(conn net.Conn, conf common.TransportConf, noDelay bool) error {
	tcpConn, ok := conn.(*net.TCPConn)
	if !ok {
		return nil // Not a TCP connection, nothing to upgrade
	}

	// Disable Nagle's algorithm (TCPNoDelay) if configured
	if err := tcpConn.SetNoDelay(noDelay); err != nil {
		return err
	}

	// Set socket write buffer size if configured
	if conf.WriteBufferSize > 0 {
		if err := tcpConn.SetWriteBuffer(conf.WriteBufferSize); err != nil {
			return err
		}
	}

	// Set socket read buffer size if configured
	if conf.ReadBufferSize > 0 {
		if err := tcpConn.SetReadBuffer(conf.ReadBufferSize); err != nil {
			return err
		}
	}

	// Enable TCP keep-alive if configured
	if conf.TCPKeepAliveSec > 0 {
		if err := tcpConn.SetKeepAlive(true); err != nil {
			return err
		}
		if err := tcpConn.SetKeepAlivePeriod(secondsToDuration(conf.TCPKeepAliveSec)); err != nil {
			return err
		}
	}

	// Set TCP linger option if configured. SO_LINGER 0 would turn every close into a
	// reset, so only positive values are applied.
	if conf.TCPLingerSec > 0 {
		if err := tcpConn.SetLinger(conf.TCPLingerSec); err != nil {
			return err
		}
	}

	return nil
}
