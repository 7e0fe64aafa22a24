package transport

import (
	"context"
	"fmt"
	"github.com/ValentinKolb/svsock/sock/common"
	"github.com/lni/dragonboat/v4/logger"
	"net"
	"sort"
	"sync"
)

var Logger = logger.GetLogger("transport")

// -----------------------------------------------------------
// Interface Definitions for dependency injection
// -----------------------------------------------------------

// IClientConnector defines the scheme specific operations of the opening side
type IClientConnector interface {
	// GetName returns the scheme handled by the connector (e.g., "unix", "tcp")
	GetName() string

	// Connect resolves the endpoint and returns a connected socket.
	// No data is sent or received on the returned connection.
	Connect(ctx context.Context, endpoint Endpoint) (net.Conn, error)

	// UpgradeConnection applies protocol-specific settings to an established connection
	UpgradeConnection(conn net.Conn, config common.ClientConfig, policy common.WaitPolicy) error
}

// IServerConnector defines the scheme specific operations of the listening peer
type IServerConnector interface {
	// GetName returns the scheme handled by the connector
	GetName() string

	// Listen creates a listener for the endpoint
	Listen(endpoint Endpoint, config common.ServerConfig) (net.Listener, error)

	// UpgradeConnection applies protocol-specific settings to an accepted connection
	UpgradeConnection(conn net.Conn, config common.ServerConfig) error
}

// -----------------------------------------------------------
// Connector registry (filled by the tcp and unix packages)
// -----------------------------------------------------------

type connectorPair struct {
	client IClientConnector
	server IServerConnector
}

var (
	connectorsMu sync.RWMutex
	connectors   = map[string]connectorPair{}
)

// RegisterConnector registers the client and server connector of a scheme
func RegisterConnector(client IClientConnector, server IServerConnector) {
	connectorsMu.Lock()
	defer connectorsMu.Unlock()
	connectors[client.GetName()] = connectorPair{client: client, server: server}
}

// ClientConnector returns the client connector of a scheme
func ClientConnector(scheme string) (IClientConnector, error) {
	connectorsMu.RLock()
	defer connectorsMu.RUnlock()
	c, ok := connectors[scheme]
	if !ok {
		return nil, fmt.Errorf("no connector registered for scheme %s", scheme)
	}
	return c.client, nil
}

// ServerConnector returns the server connector of a scheme
func ServerConnector(scheme string) (IServerConnector, error) {
	connectorsMu.RLock()
	defer connectorsMu.RUnlock()
	c, ok := connectors[scheme]
	if !ok {
		return nil, fmt.Errorf("no connector registered for scheme %s", scheme)
	}
	return c.server, nil
}

// AvailableSchemes returns the registered schemes
func AvailableSchemes() []string {
	connectorsMu.RLock()
	defer connectorsMu.RUnlock()
	result := make([]string, 0, len(connectors))
	for name := range connectors {
		result = append(result, name)
	}
	sort.Strings(result)
	return result
}
