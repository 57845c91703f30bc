package udp_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gramnet/internal/test"
	"github.com/gramnet/udp"
)

const waitTimeout = 5 * time.Second

func bindLoopback(t *testing.T, opts ...udp.Option) *udp.Socket {
	t.Helper()
	sock, err := udp.Bind("127.0.0.1:0", opts...)
	require.NoError(t, err)
	t.Cleanup(func() { sock.Close() })
	return sock
}

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	t.Cleanup(cancel)
	return ctx
}

func mustDeliver(t *testing.T, op *udp.Send) {
	t.Helper()
	require.NoError(t, op.Wait(waitCtx(t)))
}

func nextDatagram(t *testing.T, mb *test.Mailbox) udp.Datagram {
	t.Helper()
	select {
	case d := <-mb.Recv:
		return d
	case err := <-mb.Errs:
		t.Fatalf("stream failed while waiting for a datagram: %v", err)
	case <-time.After(waitTimeout):
		t.Fatalf("timed out waiting for a datagram")
	}
	return udp.Datagram{}
}

func TestBindEphemeral(t *testing.T) {
	sock := bindLoopback(t)

	addr := sock.LocalAddr()
	require.NotNil(t, addr)
	assert.NotZero(t, addr.Port)
	assert.True(t, addr.IP.Equal(net.IPv4(127, 0, 0, 1)))
}

func TestBindUnresolvableHost(t *testing.T) {
	sock, err := udp.Bind("bind-target.test.invalid:9999")
	assert.Error(t, err)
	assert.Nil(t, sock)
}

func TestBindInvalidSpec(t *testing.T) {
	for _, address := range []string{"127.0.0.1", "127.0.0.1:nosuchservice", ""} {
		sock, err := udp.Bind(address)
		assert.Error(t, err, "address %q", address)
		assert.Nil(t, sock)
	}
}

func TestBindFamilyMismatch(t *testing.T) {
	// The loopback IPv4 literal yields zero candidates for a udp6 socket.
	sock, err := udp.Bind("127.0.0.1:0", udp.WithNetwork("udp6"))
	assert.Error(t, err)
	assert.Nil(t, sock)
}

func TestBindSocketBuffers(t *testing.T) {
	sock := bindLoopback(t, udp.WithReadBuffer(1<<16), udp.WithWriteBuffer(1<<16))
	assert.NotNil(t, sock.LocalAddr())
}

func TestBindReusePort(t *testing.T) {
	first, err := udp.Bind("127.0.0.1:0", udp.WithReusePort())
	if err != nil {
		t.Skipf("SO_REUSEPORT unavailable: %v", err)
	}
	defer first.Close()

	second, err := udp.Bind(first.LocalAddr().String(), udp.WithReusePort())
	require.NoError(t, err)
	defer second.Close()

	assert.Equal(t, first.LocalAddr().Port, second.LocalAddr().Port)
}

func TestCloseIdempotent(t *testing.T) {
	sock := bindLoopback(t)
	require.NoError(t, sock.Close())
	assert.NoError(t, sock.Close())
}

func TestStatsCounters(t *testing.T) {
	recv := bindLoopback(t)
	send := bindLoopback(t)

	mb := test.NewMailbox(recv.Incoming())
	defer mb.Stop()

	payload := []byte("count me")
	op, err := send.SendTo(payload, recv.LocalAddr().String())
	require.NoError(t, err)
	mustDeliver(t, op)
	nextDatagram(t, mb)

	sent := send.Stats()
	assert.EqualValues(t, 1, sent.Sent)
	assert.EqualValues(t, len(payload), sent.BytesSent)
	assert.Zero(t, sent.Received)

	got := recv.Stats()
	assert.EqualValues(t, 1, got.Received)
	assert.EqualValues(t, len(payload), got.BytesReceived)
	assert.Zero(t, got.Sent)
}

// Two externally sequenced sends from two different sockets arrive on one
// stream in send order: a raw buffer send first, a pre-built datagram second.
func TestSequencedTwoSenders(t *testing.T) {
	a := bindLoopback(t)

	mb := test.NewMailbox(a.Incoming())
	defer mb.Stop()

	b := bindLoopback(t)
	op, err := b.SendTo([]byte{42}, a.LocalAddr().String())
	require.NoError(t, err)
	mustDeliver(t, op)

	first := nextDatagram(t, mb)
	assert.Equal(t, []byte{42}, first.Data)
	assert.Equal(t, b.LocalAddr().Port, first.Peer.Port)

	c := bindLoopback(t)
	mustDeliver(t, c.Send(udp.Datagram{
		Peer: a.LocalAddr(),
		Data: []byte{0, 1, 2, 3},
	}))

	second := nextDatagram(t, mb)
	assert.Equal(t, []byte{0, 1, 2, 3}, second.Data)
	assert.Equal(t, c.LocalAddr().Port, second.Peer.Port)
}

func TestJoinGroup(t *testing.T) {
	sock := bindLoopback(t)

	assert.Error(t, sock.JoinGroup(nil, nil))

	group := net.ParseIP("224.0.0.251")
	if err := sock.JoinGroup(nil, group); err != nil {
		t.Skipf("multicast membership unavailable: %v", err)
	}
	assert.NoError(t, sock.LeaveGroup(nil, group))
}
