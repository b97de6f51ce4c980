package serializer

import (
	"reflect"
	"testing"

	"github.com/ValentinKolb/dStream/stream/common"
)

// testSerializers is a map of serializer name to factory function
var testSerializers = map[string]func() IEnvelopeSerializer{
	"JSON":   NewJSONSerializer,
	"GOB":    NewGOBSerializer,
	"Binary": NewBinarySerializer,
}

// testEnvelopes creates a set of test envelopes with different fields filled
func testEnvelopes() []common.Envelope {
	return []common.Envelope{
		// Basic envelope with just a type
		{MsgType: common.MsgTEvent},

		// Request envelope
		{
			MsgType:       common.MsgTPing,
			CorrelationID: "4f1c2ab9e6d84d5f9b7a3c1d2e5f6a7b",
			Content:       []byte("ping"),
		},

		// Response envelope
		{
			MsgType:       common.MsgTPingResponse,
			CorrelationID: "4f1c2ab9e6d84d5f9b7a3c1d2e5f6a7b",
			Content:       []byte("pong"),
		},

		// Unsolicited envelope without correlation id
		{
			MsgType: common.MsgTEvent,
			Content: []byte("something happened"),
		},

		// Binary payload
		{
			MsgType:       common.MessageType(42),
			CorrelationID: "id",
			Content:       []byte{0x00, 0xff, 0x10, 0x00, 0x7f},
		},
	}
}

// TestSerializerRoundTrip tests that envelopes can be serialized and deserialized correctly
func TestSerializerRoundTrip(t *testing.T) {
	envelopes := testEnvelopes()

	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			s := factory()

			for i, env := range envelopes {
				// Serialize
				data, err := s.Serialize(env)
				if err != nil {
					t.Errorf("Failed to serialize envelope %d: %v", i, err)
					continue
				}

				// Deserialize
				var result common.Envelope
				err = s.Deserialize(data, &result)
				if err != nil {
					t.Errorf("Failed to deserialize envelope %d: %v", i, err)
					continue
				}

				// Compare
				if !reflect.DeepEqual(env, result) {
					t.Errorf("Envelope %d doesn't match after round trip:\nOriginal: %+v\nResult: %+v",
						i, env, result)
				}
			}
		})
	}
}

// TestBinaryDeserializeTruncated tests that truncated binary data is rejected
// instead of panicking
func TestBinaryDeserializeTruncated(t *testing.T) {
	s := NewBinarySerializer()

	data, err := s.Serialize(common.Envelope{
		MsgType:       common.MsgTPing,
		CorrelationID: "some-correlation-id",
		Content:       []byte("payload"),
	})
	if err != nil {
		t.Fatalf("Failed to serialize envelope: %v", err)
	}

	// Every strict prefix of the serialized form must fail cleanly
	for cut := 0; cut < len(data); cut++ {
		var env common.Envelope
		if err := s.Deserialize(data[:cut], &env); err == nil {
			t.Errorf("Expected error for truncated data of length %d", cut)
		}
	}
}

// TestBinaryDeserializeReusedTarget tests that a reused target envelope is
// fully overwritten
func TestBinaryDeserializeReusedTarget(t *testing.T) {
	s := NewBinarySerializer()

	var env common.Envelope

	// First a full envelope
	data, err := s.Serialize(common.Envelope{
		MsgType:       common.MsgTPing,
		CorrelationID: "first-id",
		Content:       []byte("first"),
	})
	if err != nil {
		t.Fatalf("Failed to serialize: %v", err)
	}
	if err := s.Deserialize(data, &env); err != nil {
		t.Fatalf("Failed to deserialize: %v", err)
	}

	// Then an envelope without optional fields into the same target
	data, err = s.Serialize(common.Envelope{MsgType: common.MsgTEvent})
	if err != nil {
		t.Fatalf("Failed to serialize: %v", err)
	}
	if err := s.Deserialize(data, &env); err != nil {
		t.Fatalf("Failed to deserialize: %v", err)
	}

	if env.CorrelationID != "" || env.Content != nil {
		t.Errorf("Stale fields survived deserialization: %+v", env)
	}
}
