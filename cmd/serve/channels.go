package serve

import (
	"context"
	"fmt"
	cmdUtil "github.com/ValentinKolb/svsock/cmd/util"
	"github.com/ValentinKolb/svsock/lib/bitvec"
	"github.com/ValentinKolb/svsock/sock/frame"
	"github.com/ValentinKolb/svsock/sock/peer"
	"io"
	"strconv"
	"strings"
)

// channelKind selects the behavior of a served channel
type channelKind int

const (
	kindEcho channelKind = iota
	kindLog
	kindLoop
	kindSink
)

// channelEntry is one NAME=KIND entry of the channels flag
type channelEntry struct {
	kind  channelKind
	width int // only for kindLoop
}

// parseChannels parses a comma separated list of NAME=KIND entries
func parseChannels(s string) (map[string]channelEntry, error) {
	result := make(map[string]channelEntry)
	for _, entry := range strings.Split(s, ",") {
		if strings.TrimSpace(entry) == "" {
			continue
		}
		parts := strings.Split(entry, "=")
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid channel format: %s (expected NAME=KIND)", entry)
		}
		name := strings.TrimSpace(parts[0])
		if _, ok := result[name]; ok {
			return nil, fmt.Errorf("duplicate channel %s", name)
		}

		kind := strings.TrimSpace(parts[1])
		switch {
		case kind == "echo":
			result[name] = channelEntry{kind: kindEcho}
		case kind == "log":
			result[name] = channelEntry{kind: kindLog}
		case kind == "sink":
			result[name] = channelEntry{kind: kindSink}
		case strings.HasPrefix(kind, "loop:"):
			width, err := strconv.Atoi(strings.TrimPrefix(kind, "loop:"))
			if err != nil || width <= 0 {
				return nil, fmt.Errorf("invalid loop width in %s", entry)
			}
			result[name] = channelEntry{kind: kindLoop, width: width}
		default:
			return nil, fmt.Errorf("invalid channel kind: %s (expected one of: echo, log, loop:WIDTH, sink)", kind)
		}
	}
	if len(result) == 0 {
		return nil, fmt.Errorf("no channels configured")
	}
	return result, nil
}

// handler returns the channel handler of the entry
func (s channelEntry) handler() peer.ChannelHandler {
	switch s.kind {
	case kindEcho:
		return echoLines
	case kindLog:
		return logLines
	case kindLoop:
		return loopWords(s.width)
	default:
		return sink
	}
}

// echoLines sends every received line back
func echoLines(_ context.Context, c *peer.Conn) {
	for {
		line, err := c.ReadLine()
		if err != nil {
			return
		}
		if err := c.WriteLine(line); err != nil {
			cmdUtil.Logger.Warningf("Channel %s: %v", c.Channel(), err)
			return
		}
	}
}

// logLines logs every received line
func logLines(_ context.Context, c *peer.Conn) {
	for {
		line, err := c.ReadLine()
		if err != nil {
			return
		}
		cmdUtil.Logger.Infof("[%s] %s", c.Channel(), line)
	}
}

// loopWords sends every received raw frame of width bits back
func loopWords(width int) peer.ChannelHandler {
	return func(_ context.Context, c *peer.Conn) {
		words := make([]uint32, bitvec.WordCount(width))
		for {
			if err := c.RecvWords(width, words); err != nil {
				return
			}
			cmdUtil.Logger.Debugf("[%s] %s", c.Channel(), bitvec.FormatHex(words, width))
			if err := c.SendWords(frame.Raw, width, words); err != nil {
				cmdUtil.Logger.Warningf("Channel %s: %v", c.Channel(), err)
				return
			}
		}
	}
}

// sink discards everything
func sink(_ context.Context, c *peer.Conn) {
	n, _ := io.Copy(io.Discard, c)
	cmdUtil.Logger.Debugf("Channel %s discarded %d bytes", c.Channel(), n)
}
