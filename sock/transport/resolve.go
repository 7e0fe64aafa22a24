package transport

import (
	"context"
	"github.com/ValentinKolb/svsock/sock/common"
	"net"
)

// ResolveAndConnect connects to the endpoint with the connector registered for its
// scheme and applies the socket options for the given wait policy.
// Every failure is a *ConnectError; on failure no socket is left open.
func ResolveAndConnect(ctx context.Context, endpoint Endpoint, config common.ClientConfig, policy common.WaitPolicy) (net.Conn, error) {
	connector, err := ClientConnector(endpoint.Scheme)
	if err != nil {
		return nil, NewInvalidAddress(endpoint.String(), err)
	}

	common.ConnectAttempt(endpoint.Scheme)

	conn, err := connector.Connect(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	if err := connector.UpgradeConnection(conn, config, policy); err != nil {
		conn.Close()
		return nil, NewUnreachable(endpoint.String(), err)
	}

	return conn, nil
}

// Listen creates a listener for the address with the connector registered for its scheme
func Listen(config common.ServerConfig) (net.Listener, IServerConnector, error) {
	endpoint, err := ParseEndpoint(config.Endpoint)
	if err != nil {
		return nil, nil, err
	}
	connector, err := ServerConnector(endpoint.Scheme)
	if err != nil {
		return nil, nil, NewInvalidAddress(config.Endpoint, err)
	}
	listener, err := connector.Listen(endpoint, config)
	if err != nil {
		return nil, nil, err
	}
	return listener, connector, nil
}
