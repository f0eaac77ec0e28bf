package wire

import "strings"

// Control-message commands per §6.1.
const (
	CmdCheck    = "CHECK"
	CmdHash     = "HASH"
	CmdResult   = "RESULT"
	CmdLog      = "LOG"
	CmdFinished = "FINISHED"
)

// Result/log outcome tokens.
const (
	StatusPass = "PASS"
	StatusFail = "FAIL"
)

// FormatCheck builds a "CHECK:<name>," message.
func FormatCheck(name string) string {
	return CmdCheck + ":" + name + ","
}

// FormatHash builds a "HASH:<name>,<40-hex>" message.
func FormatHash(name, hexDigest string) string {
	return CmdHash + ":" + name + "," + hexDigest
}

// FormatResult builds a "RESULT:<name>,PASS" or "RESULT:<name>,FAIL" message.
func FormatResult(name string, pass bool) string {
	return CmdResult + ":" + name + "," + statusToken(pass)
}

// FormatLog builds a "LOG:<name>,PASS" or "LOG:<name>,FAIL" message.
func FormatLog(name string, pass bool) string {
	return CmdLog + ":" + name + "," + statusToken(pass)
}

// FormatFinished builds the terminal "FINISHED:" message (empty filename
// field, no trailing body).
func FormatFinished() string {
	return CmdFinished + ":"
}

func statusToken(pass bool) string {
	if pass {
		return StatusPass
	}
	return StatusFail
}

// ParseMessage splits an ASCII control-message payload into its command,
// filename, and remainder fields per the "CMD:<name>,<rest>" grammar. The
// first colon separates command from the rest; the first comma after it
// separates the filename from the remainder. A message with no comma yields
// everything after the colon as the name and an empty rest, so "FINISHED:"
// has an empty name, matching the original source's
// parseResponse/handleMessagePacket splitting behavior.
// ok is false only when there is no colon at all.
func ParseMessage(s string) (cmd, name, rest string, ok bool) {
	posColon := strings.IndexByte(s, ':')
	if posColon < 0 {
		return "", "", "", false
	}

	cmd = s[:posColon]
	remainder := s[posColon+1:]

	posComma := strings.IndexByte(remainder, ',')
	if posComma < 0 {
		return cmd, remainder, "", true
	}

	name = remainder[:posComma]
	rest = remainder[posComma+1:]
	return cmd, name, rest, true
}

// ParseResponse checks whether payload is a message with the expected
// command and filename, returning the remainder (e.g. the hex digest of a
// HASH response, or the PASS/FAIL token of a RESULT). Unlike ParseMessage,
// both a colon and a comma are required to match, mirroring the sender's
// stricter response-matching in the original source: a response with no
// comma never matches here (the sender matches the comma-less FINISHED echo
// through ParseMessage instead).
func ParseResponse(payload, expectedCmd, expectedName string) (rest string, ok bool) {
	posColon := strings.IndexByte(payload, ':')
	posComma := strings.IndexByte(payload, ',')
	if posColon < 0 || posComma < 0 || posComma < posColon {
		return "", false
	}

	cmd := payload[:posColon]
	name := payload[posColon+1 : posComma]
	if cmd != expectedCmd || name != expectedName {
		return "", false
	}
	return payload[posComma+1:], true
}
