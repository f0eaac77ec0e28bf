package nasty_test

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"nastygram/internal/nasty"
	"nastygram/internal/transport"
	"nastygram/internal/wire"
)

type recordingConn struct {
	sent []wire.Packet
}

func (r *recordingConn) ReadPacket() (wire.Packet, error) { return wire.Packet{}, nil }
func (r *recordingConn) SendPacket(p wire.Packet) error {
	r.sent = append(r.sent, p)
	return nil
}

var _ transport.PacketConn = (*recordingConn)(nil)

func TestZeroLevelConnPassesThroughUnchanged(t *testing.T) {
	rec := &recordingConn{}
	c := nasty.NewConn(rec, 0, rand.New(rand.NewSource(1)))

	pkt, err := wire.NewDataPacket(1, 1, []byte("hi"))
	require.NoError(t, err)
	require.NoError(t, c.SendPacket(pkt))
	require.Len(t, rec.sent, 1)
	require.Equal(t, pkt.Payload, rec.sent[0].Payload)
}

func TestHighLevelConnEventuallyDropsOrMutates(t *testing.T) {
	rec := &recordingConn{}
	c := nasty.NewConn(rec, 1000, rand.New(rand.NewSource(2)))

	pkt, err := wire.NewDataPacket(1, 1, []byte("payload-bytes"))
	require.NoError(t, err)
	for i := 0; i < 50; i++ {
		_ = c.SendPacket(pkt)
	}
	// At very high nastiness, drops/corruption/duplication/reorder mean the
	// recorder should not simply contain exactly 50 identical sends.
	identical := len(rec.sent) == 50
	if identical {
		for _, s := range rec.sent {
			if string(s.Payload) != string(pkt.Payload) {
				identical = false
				break
			}
		}
	}
	require.False(t, identical)
}

func TestFileFactoryZeroLevelRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.bin")

	f := &nasty.Factory{Level: 0, Rnd: rand.New(rand.NewSource(3))}
	w, err := f.Create(path)
	require.NoError(t, err)
	_, err = w.Write([]byte("hello world"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	r, err := f.Open(path)
	require.NoError(t, err)
	buf := make([]byte, 11)
	n, err := r.Read(buf)
	require.NoError(t, err)
	require.Equal(t, "hello world", string(buf[:n]))
	require.NoError(t, r.Close())
}

func TestFileFactoryHighLevelCorruptsEventually(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.bin")
	require.NoError(t, os.WriteFile(path, []byte("AAAAAAAAAAAAAAAAAAAA"), 0o644))

	f := &nasty.Factory{Level: 1000, Rnd: rand.New(rand.NewSource(4))}
	sawCorruption := false
	for i := 0; i < 50; i++ {
		r, err := f.Open(path)
		require.NoError(t, err)
		buf := make([]byte, 20)
		n, err := r.Read(buf)
		require.NoError(t, err)
		require.NoError(t, r.Close())
		if string(buf[:n]) != "AAAAAAAAAAAAAAAAAAAA" {
			sawCorruption = true
			break
		}
	}
	require.True(t, sawCorruption)
}
