package p2p

import (
	"bytes"
	"testing"

	"github.com/shardflow/shardflow-node/chainindex"
	"github.com/shardflow/shardflow-node/common"
	"github.com/stretchr/testify/require"
)

func TestWriteReadMessageRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	idx := chainindex.ChainIndex{From: 1, To: 2}
	want := &GetHeadersMsg{Index: idx, From: common.HexToHash("0xaa")}

	require.NoError(t, WriteMessage(&buf, KindGetHeaders, want))

	kind, payload, err := ReadMessage(&buf)
	require.NoError(t, err)
	require.Equal(t, KindGetHeaders, kind)

	got, ok := payload.(*GetHeadersMsg)
	require.True(t, ok)
	require.Equal(t, want.Index, got.Index)
	require.Equal(t, want.From, got.From)
}

func TestReadMessageRejectsUnknownKind(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMessage(&buf, KindPing, &PingMsg{Nonce: 7}))
	// Corrupt the kind byte (offset 4) to a value with no registered payload.
	raw := buf.Bytes()
	raw[4] = 0xff

	_, _, err := ReadMessage(bytes.NewReader(raw))
	require.Error(t, err)
}

func TestKindString(t *testing.T) {
	require.Equal(t, "Hello", KindHello.String())
	require.Contains(t, Kind(99).String(), "99")
}
