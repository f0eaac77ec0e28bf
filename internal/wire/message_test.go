package wire_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"nastygram/internal/wire"
)

func TestFormatAndParseRoundTrip(t *testing.T) {
	cmd, name, rest, ok := wire.ParseMessage(wire.FormatCheck("hello.txt"))
	assert.True(t, ok)
	assert.Equal(t, wire.CmdCheck, cmd)
	assert.Equal(t, "hello.txt", name)
	assert.Empty(t, rest)

	digest := "0123456789abcdef0123456789abcdef01234567"
	cmd, name, rest, ok = wire.ParseMessage(wire.FormatHash("hello.txt", digest))
	assert.True(t, ok)
	assert.Equal(t, wire.CmdHash, cmd)
	assert.Equal(t, "hello.txt", name)
	assert.Equal(t, digest, rest)

	cmd, name, rest, ok = wire.ParseMessage(wire.FormatResult("hello.txt", true))
	assert.True(t, ok)
	assert.Equal(t, wire.CmdResult, cmd)
	assert.Equal(t, "hello.txt", name)
	assert.Equal(t, wire.StatusPass, rest)
}

func TestParseMessageFinishedHasEmptyName(t *testing.T) {
	cmd, name, rest, ok := wire.ParseMessage(wire.FormatFinished())
	assert.True(t, ok)
	assert.Equal(t, wire.CmdFinished, cmd)
	assert.Empty(t, name)
	assert.Empty(t, rest)
}

func TestParseMessageRejectsNoColon(t *testing.T) {
	_, _, _, ok := wire.ParseMessage("garbage")
	assert.False(t, ok)
}

func TestParseResponseRequiresComma(t *testing.T) {
	_, ok := wire.ParseResponse(wire.FormatFinished(), wire.CmdFinished, "")
	assert.False(t, ok)
}

func TestParseResponseMatchesCommandAndName(t *testing.T) {
	rest, ok := wire.ParseResponse(wire.FormatResult("a.txt", false), wire.CmdResult, "a.txt")
	assert.True(t, ok)
	assert.Equal(t, wire.StatusFail, rest)

	_, ok = wire.ParseResponse(wire.FormatResult("a.txt", false), wire.CmdResult, "b.txt")
	assert.False(t, ok)
}
