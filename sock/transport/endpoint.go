package transport

import (
	"fmt"
	"golang.org/x/sys/unix"
	"net"
	"runtime"
	"strings"
)

const (
	SchemeTCP  = "tcp"
	SchemeUnix = "unix"
)

// MaxUnixPathLen is the size of sun_path in struct sockaddr_un
var MaxUnixPathLen = len(unix.RawSockaddrUnix{}.Path)

// Endpoint is a parsed address: either Tcp{Host, Port} or UnixSocket{Path}
type Endpoint struct {
	Scheme string
	// tcp
	Host string
	Port string
	// unix
	Path string
}

// ParseEndpoint parses an address of the form scheme://rest.
// Supported are tcp://host:port and unix://path (a leading @ selects the abstract namespace).
func ParseEndpoint(address string) (Endpoint, error) {
	scheme, rest, ok := strings.Cut(address, "://")
	if !ok {
		return Endpoint{}, NewInvalidAddress(address, fmt.Errorf("missing scheme"))
	}

	switch scheme {
	case SchemeTCP:
		host, port, err := net.SplitHostPort(rest)
		if err != nil {
			return Endpoint{}, NewInvalidAddress(address, err)
		}
		if port == "" {
			return Endpoint{}, NewInvalidAddress(address, fmt.Errorf("missing port"))
		}
		return Endpoint{Scheme: SchemeTCP, Host: host, Port: port}, nil

	case SchemeUnix:
		if err := validateUnixPath(rest); err != nil {
			return Endpoint{}, NewInvalidAddress(address, err)
		}
		return Endpoint{Scheme: SchemeUnix, Path: rest}, nil

	default:
		return Endpoint{}, NewInvalidAddress(address, fmt.Errorf("unknown scheme %q", scheme))
	}
}

// validateUnixPath checks a domain socket path against the sockaddr_un limit.
// Filesystem paths need room for the terminating NUL, abstract names do not.
func validateUnixPath(path string) error {
	if path == "" {
		return fmt.Errorf("empty socket path")
	}
	if path[0] == '@' {
		if runtime.GOOS != "linux" {
			return fmt.Errorf("abstract socket namespace is not supported on %s", runtime.GOOS)
		}
		if len(path) > MaxUnixPathLen {
			return fmt.Errorf("socket path longer than %d bytes", MaxUnixPathLen)
		}
		return nil
	}
	if len(path) >= MaxUnixPathLen {
		return fmt.Errorf("socket path longer than %d bytes", MaxUnixPathLen-1)
	}
	return nil
}

// IsAbstract reports whether the endpoint is in the abstract unix namespace
func (e Endpoint) IsAbstract() bool {
	return e.Scheme == SchemeUnix && strings.HasPrefix(e.Path, "@")
}

// SocketName returns the name handed to the socket layer.
// Abstract names have their leading @ rewritten to a NUL byte.
func (e Endpoint) SocketName() string {
	if e.IsAbstract() {
		return "\x00" + e.Path[1:]
	}
	return e.Path
}

// HostPort returns host:port for tcp endpoints
func (e Endpoint) HostPort() string {
	return net.JoinHostPort(e.Host, e.Port)
}

func (e Endpoint) String() string {
	switch e.Scheme {
	case SchemeTCP:
		return SchemeTCP + "://" + e.HostPort()
	case SchemeUnix:
		return SchemeUnix + "://" + e.Path
	default:
		return "<invalid endpoint>"
	}
}
