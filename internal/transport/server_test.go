package transport_test

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/illustrator-mcp-bridge/bridge/internal/broker"
	"github.com/illustrator-mcp-bridge/bridge/internal/transport"
)

type fakeResolver struct {
	resolved     []broker.Envelope
	disconnected int
}

func (f *fakeResolver) Resolve(env broker.Envelope) error {
	f.resolved = append(f.resolved, env)
	return nil
}

func (f *fakeResolver) Disconnect() {
	f.disconnected++
}

func dialWS(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(strings.Replace(url, "http", "ws", 1), nil)
	require.NoError(t, err)
	return conn
}

func TestLastWriterWinsReplacesConnection(t *testing.T) {
	resolver := &fakeResolver{}
	srv := transport.New(nil, resolver)
	httpSrv := httptest.NewServer(srv)
	defer httpSrv.Close()

	first := dialWS(t, httpSrv.URL)
	defer first.Close()
	time.Sleep(20 * time.Millisecond)
	assert.True(t, srv.Connected())

	second := dialWS(t, httpSrv.URL)
	defer second.Close()
	time.Sleep(20 * time.Millisecond)

	assert.True(t, srv.Connected())
	assert.GreaterOrEqual(t, resolver.disconnected, 1)

	err := srv.Send(context.Background(), broker.Envelope{ID: 1, Script: "ping"})
	assert.NoError(t, err)
}

func TestSendFailsWithNoPeer(t *testing.T) {
	resolver := &fakeResolver{}
	srv := transport.New(nil, resolver)

	err := srv.Send(context.Background(), broker.Envelope{ID: 1, Script: "ping"})
	assert.Error(t, err)
}

func TestInboundFrameResolvesToBroker(t *testing.T) {
	resolver := &fakeResolver{}
	srv := transport.New(nil, resolver)
	httpSrv := httptest.NewServer(srv)
	defer httpSrv.Close()

	conn := dialWS(t, httpSrv.URL)
	defer conn.Close()
	time.Sleep(20 * time.Millisecond)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"id":7,"result":"done"}`)))
	time.Sleep(20 * time.Millisecond)

	require.Len(t, resolver.resolved, 1)
	assert.Equal(t, int64(7), resolver.resolved[0].ID)
}
