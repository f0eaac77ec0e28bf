package wire_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nastygram/internal/wire"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := []wire.Packet{
		{IsFile: true, Seq: 0, Total: 3, DataSize: 5, Payload: []byte("hello")},
		{IsFile: false, Seq: 0, Total: 0, DataSize: 0, Payload: nil},
		{IsFile: true, Seq: 42, Total: 0, DataSize: 0, Payload: []byte{}},
	}

	for _, p := range cases {
		encoded, err := wire.Encode(p)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(encoded), wire.MaxFrameSize)

		decoded, err := wire.Decode(encoded)
		require.NoError(t, err)
		assert.Equal(t, p.IsFile, decoded.IsFile)
		assert.Equal(t, p.Seq, decoded.Seq)
		assert.Equal(t, p.Total, decoded.Total)
		assert.Equal(t, p.DataSize, decoded.DataSize)
		if p.DataSize == 0 {
			assert.Empty(t, decoded.Payload)
		} else {
			assert.Equal(t, p.Payload, decoded.Payload)
		}
	}
}

func TestEncodeRejectsOversizedPayload(t *testing.T) {
	big := make([]byte, wire.MaxPayloadSize+1)
	p := wire.Packet{DataSize: uint16(len(big)), Payload: big}
	_, err := wire.Encode(p)
	assert.ErrorIs(t, err, wire.ErrOversizedPayload)
}

func TestDecodeRejectsShortHeader(t *testing.T) {
	_, err := wire.Decode([]byte{1, 2, 3})
	assert.ErrorIs(t, err, wire.ErrMalformedPacket)
}

func TestDecodeRejectsOversizedDeclaredSize(t *testing.T) {
	buf := make([]byte, wire.HeaderSize)
	buf[7] = 0xFF
	buf[8] = 0xFF
	_, err := wire.Decode(buf)
	assert.ErrorIs(t, err, wire.ErrMalformedPacket)
}

func TestDecodeRejectsTruncatedPayload(t *testing.T) {
	buf := make([]byte, wire.HeaderSize)
	buf[7] = 0
	buf[8] = 10
	_, err := wire.Decode(buf)
	assert.ErrorIs(t, err, wire.ErrMalformedPacket)
}

func TestNewDataPacketRejectsOversized(t *testing.T) {
	big := make([]byte, wire.MaxPayloadSize+1)
	_, err := wire.NewDataPacket(0, 1, big)
	assert.ErrorIs(t, err, wire.ErrOversizedPayload)
}

func TestNewAck(t *testing.T) {
	ack := wire.NewAck(7)
	assert.True(t, ack.IsFile)
	assert.EqualValues(t, 7, ack.Seq)
	assert.EqualValues(t, 0, ack.Total)
	assert.Empty(t, ack.Payload)
}
