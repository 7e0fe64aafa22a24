package sock

import (
	"context"
	"fmt"
	"github.com/ValentinKolb/svsock/sock/common"
	"github.com/ValentinKolb/svsock/sock/frame"
	"github.com/ValentinKolb/svsock/sock/transport"
	"github.com/lni/dragonboat/v4/logger"
	"net"
	"time"

	// register the tcp:// and unix:// schemes
	_ "github.com/ValentinKolb/svsock/sock/transport/tcp"
	_ "github.com/ValentinKolb/svsock/sock/transport/unix"
)

var Logger = logger.GetLogger("sock")

// --------------------------------------------------------------------------
// Options
// --------------------------------------------------------------------------

type options struct {
	policy    common.WaitPolicy
	hasPolicy bool
	format    frame.Format
	yield     func()
}

// Option configures a handle at open time
type Option func(*options)

// WithYield sets the hook called while a cooperative receive waits for data.
// The hook is the only suspension point of a handle and may run for any amount of time.
func WithYield(yield func()) Option {
	return func(o *options) {
		o.yield = yield
	}
}

// WithWaitPolicy overrides the wait policy derived from the configuration
func WithWaitPolicy(policy common.WaitPolicy) Option {
	return func(o *options) {
		o.policy = policy
		o.hasPolicy = true
	}
}

// WithFormat overrides the binary wire format of the configuration
func WithFormat(format frame.Format) Option {
	return func(o *options) {
		o.format = format
	}
}

// --------------------------------------------------------------------------
// Open
// --------------------------------------------------------------------------

// Open connects to address and sends the channel name as handshake.
//
// Parse and connection failures are retried with cfg.RetryDelay until the peer
// accepts the connection; a peer that is not listening yet is the normal case.
// Open only fails if ctx ends or the configuration itself is invalid.
func Open(ctx context.Context, address, channel string, cfg common.ClientConfig, opts ...Option) (*Handle, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if !o.hasPolicy {
		o.policy = cfg.WaitPolicyFor(channel)
	}
	if o.format == nil {
		format, err := frame.ByName(cfg.FrameFormat)
		if err != nil {
			return nil, err
		}
		o.format = format
	}
	if o.policy.Mode == common.WaitCooperative && o.policy.Timeout <= 0 {
		return nil, fmt.Errorf("cooperative wait policy needs a positive timeout, got %s", o.policy.Timeout)
	}

	delay := cfg.EffectiveRetryDelay()
	for attempt := 1; ; attempt++ {
		conn, err := connect(ctx, address, channel, cfg, o.policy)
		if err == nil {
			Logger.Debugf("Opened channel %s on %s (%s, %s frames) after %d attempt(s)",
				channel, address, o.policy, o.format.Name(), attempt)
			return newHandle(conn, channel, cfg, o), nil
		}

		if attempt == 1 {
			Logger.Infof("Waiting for peer at %s (channel %s): %v", address, channel, err)
		} else {
			Logger.Debugf("Connection attempt %d to %s failed: %v", attempt, address, err)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("open channel %s on %s: %w (last error: %v)", channel, address, ctx.Err(), err)
		case <-timer.C:
		}
	}
}

// connect makes one connection attempt and sends the handshake.
// A failed handshake counts as a failed attempt; the socket is closed.
func connect(ctx context.Context, address, channel string, cfg common.ClientConfig, policy common.WaitPolicy) (net.Conn, error) {
	endpoint, err := transport.ParseEndpoint(address)
	if err != nil {
		return nil, err
	}

	conn, err := transport.ResolveAndConnect(ctx, endpoint, cfg, policy)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Write([]byte(channel)); err != nil {
		conn.Close()
		return nil, fmt.Errorf("handshake failed: %w", err)
	}

	return conn, nil
}
