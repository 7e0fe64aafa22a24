package peer

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// Command is a control word sent on the synchronization channel.
// The high byte selects the command, the low 24 bits carry an argument
// (a port index or a cycle count).
type Command uint32

const (
	CmdSysReset Command = 0x80000000
	CmdSetData  Command = 0x40000000
	CmdReset    Command = 0x20000000
	CmdForward  Command = 0x10000000
	CmdCycle    Command = 0x08000000
	CmdRead     Command = 0x04000000
	CmdAck      Command = 0x02000000
	CmdFinish   Command = 0x01000000

	// CommandMask selects the command bits of a word
	CommandMask = 0xff000000
	// ArgMask selects the argument bits of a word
	ArgMask = 0x00ffffff
)

var commandNames = map[Command]string{
	CmdSysReset: "SYS_RESET",
	CmdSetData:  "SET_DATA",
	CmdReset:    "RESET",
	CmdForward:  "FORWARD",
	CmdCycle:    "CYCLE",
	CmdRead:     "READ",
	CmdAck:      "ACK",
	CmdFinish:   "FINISH",
}

func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Command(0x%08x)", uint32(c))
}

// Encode returns the command word carrying arg
func (c Command) Encode(arg uint32) (uint32, error) {
	if arg&^ArgMask != 0 {
		return 0, fmt.Errorf("command argument %d exceeds 24 bits", arg)
	}
	return uint32(c) | arg, nil
}

// Bytes returns the little-endian wire form of the command word
func (c Command) Bytes(arg uint32) ([]byte, error) {
	word, err := c.Encode(arg)
	if err != nil {
		return nil, err
	}
	return binary.LittleEndian.AppendUint32(nil, word), nil
}

// ParseCommand splits a command word into its command and argument
func ParseCommand(word uint32) (Command, uint32, error) {
	cmd := Command(word & CommandMask)
	if _, ok := commandNames[cmd]; !ok {
		return 0, 0, fmt.Errorf("unknown command word 0x%08x", word)
	}
	return cmd, word & ArgMask, nil
}

// ParseCommandName returns the command with the given name (case insensitive)
func ParseCommandName(name string) (Command, error) {
	for cmd, n := range commandNames {
		if strings.EqualFold(n, name) {
			return cmd, nil
		}
	}
	return 0, fmt.Errorf("unknown command %s", name)
}
