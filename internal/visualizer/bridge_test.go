package visualizer

import (
	"math"
	"testing"
)

func TestHandleInboundPausedInvokesCallback(t *testing.T) {
	var got []bool
	b := &Bridge{onPause: func(p bool) { got = append(got, p) }}

	b.handleInbound(byte(packetPaused), []byte{1})
	b.handleInbound(byte(packetPaused), []byte{0})

	if len(got) != 2 || got[0] != true || got[1] != false {
		t.Fatalf("got = %v, want [true false]", got)
	}
}

func TestHandleInboundPausedIgnoresEmptyPayload(t *testing.T) {
	called := false
	b := &Bridge{onPause: func(bool) { called = true }}

	b.handleInbound(byte(packetPaused), nil)
	if called {
		t.Errorf("onPause invoked with an empty payload")
	}
}

func TestHandleInboundSpeedDecodesLittleEndianFloat32(t *testing.T) {
	var got float32
	b := &Bridge{onSpeed: func(s float32) { got = s }}

	want := float32(2.0)
	bits := math.Float32bits(want)
	payload := []byte{byte(bits), byte(bits >> 8), byte(bits >> 16), byte(bits >> 24)}

	b.handleInbound(byte(packetSpeed), payload)
	if got != want {
		t.Errorf("got speed %v, want %v", got, want)
	}
}

func TestHandleInboundUnknownTypeDoesNotPanic(t *testing.T) {
	b := &Bridge{}
	b.handleInbound(99, []byte{1, 2, 3})
}

func TestHandleInboundNilCallbacksDoNotPanic(t *testing.T) {
	b := &Bridge{}
	b.handleInbound(byte(packetPaused), []byte{1})
	b.handleInbound(byte(packetSpeed), []byte{0, 0, 0, 0})
}
