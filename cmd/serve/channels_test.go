package serve

import (
	"reflect"
	"testing"
)

func TestParseChannels(t *testing.T) {
	got, err := parseChannels("din=loop:33, log = log,echo=echo,null=sink")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	expected := map[string]channelEntry{
		"din":  {kind: kindLoop, width: 33},
		"log":  {kind: kindLog},
		"echo": {kind: kindEcho},
		"null": {kind: kindSink},
	}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("Expected %v, got %v", expected, got)
	}
}

func TestParseChannelsInvalid(t *testing.T) {
	tests := []string{
		"",
		"din",
		"din=unknown",
		"din=loop:0",
		"din=loop:x",
		"din=echo,din=log",
	}

	for _, tt := range tests {
		t.Run(tt, func(t *testing.T) {
			if _, err := parseChannels(tt); err == nil {
				t.Errorf("Expected error for %q", tt)
			}
		})
	}
}
