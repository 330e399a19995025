package speech

import (
	"bytes"
	"compress/gzip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderRoundTrip(t *testing.T) {
	header := NewHeader(FullClientRequest, NoSequenceNumber, JSONSerialization, GzipCompression)
	encoded := header.Encode()
	assert.Equal(t, []byte{0x11, 0x10, 0x11, 0x00}, encoded)

	decoded, err := DecodeHeader(encoded)
	require.NoError(t, err)
	assert.Equal(t, header, *decoded)
}

func TestDecodeHeaderRejectsUnknownVersion(t *testing.T) {
	_, err := DecodeHeader([]byte{0x21, 0x10, 0x10, 0x00})
	assert.Error(t, err)

	_, err = DecodeHeader([]byte{0x11})
	assert.Error(t, err)
}

func TestEncodeDecodeSessionEvent(t *testing.T) {
	msg := &Message{
		Header:      NewHeader(FullServerResponse, WithEvent|PositiveSequenceNumber, JSONSerialization, NoCompression),
		Sequence:    7,
		EventType:   EventTypeSessionFinished,
		SessionID:   "session-1",
		PayloadSize: 2,
		Payload:     []byte("{}"),
	}

	frame, err := EncodeMessage(msg)
	require.NoError(t, err)

	decoded, err := DecodeMessage(bytes.NewReader(frame))
	require.NoError(t, err)
	assert.Equal(t, int32(7), decoded.Sequence)
	assert.Equal(t, "session-1", decoded.SessionID)
	assert.Empty(t, decoded.ConnectID)
	assert.True(t, decoded.IsSessionFinished())
	assert.False(t, decoded.IsLastPacket())
}

func TestEncodeDecodeConnectionEvent(t *testing.T) {
	msg := &Message{
		Header:    NewHeader(FullServerResponse, WithEvent, JSONSerialization, NoCompression),
		EventType: EventTypeConnectionStarted,
		ConnectID: "conn-1",
	}

	frame, err := EncodeMessage(msg)
	require.NoError(t, err)

	decoded, err := DecodeMessage(bytes.NewReader(frame))
	require.NoError(t, err)
	assert.Equal(t, "conn-1", decoded.ConnectID)
	assert.Empty(t, decoded.SessionID)
	assert.Nil(t, decoded.Payload)
}

func TestEncodeMessageRejectsSizeMismatch(t *testing.T) {
	_, err := EncodeMessage(&Message{
		Header:      NewHeader(FullClientRequest, NoSequenceNumber, JSONSerialization, NoCompression),
		PayloadSize: 10,
		Payload:     []byte("{}"),
	})
	assert.Error(t, err)
}

func TestDecodeMessageTruncatedPayload(t *testing.T) {
	frame, err := EncodeMessage(CreateFullClientRequest([]byte(`{"text":"hi"}`), NoCompression))
	require.NoError(t, err)

	_, err = DecodeMessage(bytes.NewReader(frame[:len(frame)-3]))
	assert.Error(t, err)
}

func TestNegativeSequenceIsLastPacket(t *testing.T) {
	msg := &Message{Header: NewHeader(AudioOnlyServerResponse, NegativeSequenceNumber, NoSerialization, NoCompression)}
	assert.True(t, msg.IsLastPacket())
}

func TestMessageBodyGzip(t *testing.T) {
	payload := bytes.Repeat([]byte("blogcaster "), 64)

	var compressed bytes.Buffer
	zw := gzip.NewWriter(&compressed)
	_, err := zw.Write(payload)
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	msg := &Message{
		Header:  NewHeader(FullServerResponse, NoSequenceNumber, JSONSerialization, GzipCompression),
		Payload: compressed.Bytes(),
	}
	body, err := msg.Body()
	require.NoError(t, err)
	assert.Equal(t, payload, body)

	msg.Payload = payload
	_, err = msg.Body()
	assert.Error(t, err)

	msg.Header.CompressionMethod = CompressionMethod(7)
	_, err = msg.Body()
	assert.Error(t, err)
}
