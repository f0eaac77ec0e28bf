// Package wire implements the fixed-layout datagram codec: a discriminated
// packet (data vs. control message) with a 9-byte header and up to 498 bytes
// of payload, plus the ASCII control-message grammar carried inside message
// packets.
package wire

import (
	"encoding/binary"
	"errors"
)

// MaxPayloadSize is the largest payload a single packet may carry.
const MaxPayloadSize = 498

// HeaderSize is the fixed header length: 1 byte isFile, 4 bytes seq,
// 2 bytes total, 2 bytes dataSize.
const HeaderSize = 9

// MaxFrameSize is the largest a single encoded packet may be on the wire.
const MaxFrameSize = HeaderSize + MaxPayloadSize

// ErrMalformedPacket is returned by Decode when a buffer fails any of the
// three validation steps: too short for a header, an oversized declared
// dataSize, or too short for the declared payload.
var ErrMalformedPacket = errors.New("wire: malformed packet")

// ErrOversizedPayload is returned by Encode when the packet's payload would
// not fit in the 498-byte field. This is a programmer error, not a network
// or storage fault, so callers should treat it as fatal rather than retry.
var ErrOversizedPayload = errors.New("wire: payload exceeds maximum size")

// Packet is the in-memory form of a single datagram. IsFile discriminates a
// data-stream packet (file content, or the leading filename packet of a
// group) from a control-message packet (Payload carries an ASCII command
// string per the grammar in message.go).
type Packet struct {
	IsFile   bool
	Seq      uint32
	Total    uint16
	DataSize uint16
	Payload  []byte
}

// NewDataPacket builds a data-stream packet. data must not exceed
// MaxPayloadSize; callers that split a file into chunks are responsible for
// respecting that bound before calling this constructor.
func NewDataPacket(seq uint32, total uint16, data []byte) (Packet, error) {
	if len(data) > MaxPayloadSize {
		return Packet{}, ErrOversizedPayload
	}
	return Packet{
		IsFile:   true,
		Seq:      seq,
		Total:    total,
		DataSize: uint16(len(data)),
		Payload:  data,
	}, nil
}

// NewAck builds the acknowledgement for a data packet with the given
// sequence number: total=0, empty payload, by convention (§4.2).
func NewAck(seq uint32) Packet {
	return Packet{IsFile: true, Seq: seq, Total: 0, DataSize: 0, Payload: nil}
}

// NewMessagePacket builds a control-message packet from an ASCII command
// string. total and seq are always zero for messages.
func NewMessagePacket(msg string) (Packet, error) {
	if len(msg) > MaxPayloadSize {
		return Packet{}, ErrOversizedPayload
	}
	return Packet{
		IsFile:   false,
		Seq:      0,
		Total:    0,
		DataSize: uint16(len(msg)),
		Payload:  []byte(msg),
	}, nil
}

// Encode lays out a packet as 1 byte isFile, 4 bytes seq (big-endian),
// 2 bytes total (big-endian), 2 bytes dataSize (big-endian), then dataSize
// payload bytes. The framed length equals HeaderSize + dataSize.
func Encode(p Packet) ([]byte, error) {
	if p.DataSize > MaxPayloadSize || len(p.Payload) < int(p.DataSize) {
		return nil, ErrOversizedPayload
	}

	buf := make([]byte, HeaderSize+int(p.DataSize))
	if p.IsFile {
		buf[0] = 1
	}
	binary.BigEndian.PutUint32(buf[1:5], p.Seq)
	binary.BigEndian.PutUint16(buf[5:7], p.Total)
	binary.BigEndian.PutUint16(buf[7:9], p.DataSize)
	copy(buf[HeaderSize:], p.Payload[:p.DataSize])
	return buf, nil
}

// Decode validates, in order: readable length >= HeaderSize; decoded
// dataSize <= MaxPayloadSize; readable length >= HeaderSize + dataSize. Any
// violation fails with ErrMalformedPacket. The returned Payload is a copy,
// independent of b.
func Decode(b []byte) (Packet, error) {
	if len(b) < HeaderSize {
		return Packet{}, ErrMalformedPacket
	}

	dataSize := binary.BigEndian.Uint16(b[7:9])
	if dataSize > MaxPayloadSize {
		return Packet{}, ErrMalformedPacket
	}
	if len(b) < HeaderSize+int(dataSize) {
		return Packet{}, ErrMalformedPacket
	}

	payload := make([]byte, dataSize)
	copy(payload, b[HeaderSize:HeaderSize+int(dataSize)])

	return Packet{
		IsFile:   b[0] != 0,
		Seq:      binary.BigEndian.Uint32(b[1:5]),
		Total:    binary.BigEndian.Uint16(b[5:7]),
		DataSize: dataSize,
		Payload:  payload,
	}, nil
}
