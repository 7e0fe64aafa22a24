package transport

import (
	"errors"
	"fmt"
	"reflect"
	"runtime"
	"strings"
	"testing"
)

func TestParseEndpoint(t *testing.T) {
	tests := []struct {
		address  string
		expected Endpoint
	}{
		{"tcp://localhost:1234", Endpoint{Scheme: SchemeTCP, Host: "localhost", Port: "1234"}},
		{"tcp://127.0.0.1:80", Endpoint{Scheme: SchemeTCP, Host: "127.0.0.1", Port: "80"}},
		{"tcp://[::1]:9000", Endpoint{Scheme: SchemeTCP, Host: "::1", Port: "9000"}},
		{"tcp://:9000", Endpoint{Scheme: SchemeTCP, Host: "", Port: "9000"}},
		{"unix:///tmp/sim.sock", Endpoint{Scheme: SchemeUnix, Path: "/tmp/sim.sock"}},
		{"unix://relative.sock", Endpoint{Scheme: SchemeUnix, Path: "relative.sock"}},
	}

	for _, tt := range tests {
		t.Run(tt.address, func(t *testing.T) {
			ep, err := ParseEndpoint(tt.address)
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if !reflect.DeepEqual(ep, tt.expected) {
				t.Errorf("Expected %+v, got %+v", tt.expected, ep)
			}
			if ep.String() != tt.address {
				t.Errorf("Expected String() %s, got %s", tt.address, ep.String())
			}
		})
	}
}

func TestParseEndpointInvalid(t *testing.T) {
	tests := []string{
		"",
		"localhost:1234",
		"udp://localhost:1234",
		"tcp://localhost",
		"tcp://localhost:",
		"unix://",
		"unix://" + strings.Repeat("a", MaxUnixPathLen),
	}

	for _, address := range tests {
		t.Run(fmt.Sprintf("%.30q", address), func(t *testing.T) {
			_, err := ParseEndpoint(address)
			if !errors.Is(err, ErrInvalidAddress) {
				t.Errorf("Expected invalid address error, got %v", err)
			}
			if errors.Is(err, ErrUnreachable) {
				t.Errorf("Expected error not to match ErrUnreachable")
			}
			var connectErr *ConnectError
			if !errors.As(err, &connectErr) || connectErr.Address != address {
				t.Errorf("Expected ConnectError carrying the address, got %v", err)
			}
		})
	}
}

func TestUnixPathLimit(t *testing.T) {
	// One byte is reserved for the terminating NUL of filesystem paths
	longest := strings.Repeat("a", MaxUnixPathLen-1)
	if _, err := ParseEndpoint("unix://" + longest); err != nil {
		t.Errorf("Expected path of %d bytes to be accepted, got %v", len(longest), err)
	}
}

func TestAbstractEndpoint(t *testing.T) {
	ep, err := ParseEndpoint("unix://@sim")
	if runtime.GOOS != "linux" {
		if !errors.Is(err, ErrInvalidAddress) {
			t.Errorf("Expected abstract names to be rejected on %s, got %v", runtime.GOOS, err)
		}
		return
	}
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !ep.IsAbstract() {
		t.Error("Expected endpoint to be abstract")
	}
	if ep.SocketName() != "\x00sim" {
		t.Errorf("Expected leading NUL byte, got %q", ep.SocketName())
	}

	plain, _ := ParseEndpoint("unix:///tmp/x.sock")
	if plain.IsAbstract() || plain.SocketName() != "/tmp/x.sock" {
		t.Errorf("Expected plain path, got %q", plain.SocketName())
	}
}

func TestConnectErrorKinds(t *testing.T) {
	cause := errors.New("connection refused")
	err := error(NewUnreachable("tcp://h:1", cause))

	if !errors.Is(err, ErrUnreachable) {
		t.Error("Expected unreachable error to match ErrUnreachable")
	}
	if !errors.Is(err, cause) {
		t.Error("Expected unreachable error to unwrap to its cause")
	}
	if !strings.Contains(err.Error(), "tcp://h:1") {
		t.Errorf("Expected error message to contain the address, got %s", err.Error())
	}

	wrapped := fmt.Errorf("open: %w", NewInvalidAddress("x", nil))
	if !errors.Is(wrapped, ErrInvalidAddress) {
		t.Error("Expected wrapped invalid address error to match")
	}
}

func TestRegistryUnknownScheme(t *testing.T) {
	if _, err := ClientConnector("udp"); err == nil {
		t.Error("Expected error for unknown scheme")
	}
	if _, err := ServerConnector("udp"); err == nil {
		t.Error("Expected error for unknown scheme")
	}
}
