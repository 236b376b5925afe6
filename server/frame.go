package server

import (
	"bytes"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/lixenwraith/chaoswave/session"
)

const (
	FrameSnapshot = "snapshot"
	FrameEvent    = "event"
)

// Frame is one binary websocket message
type Frame struct {
	Type     string              `json:"type"`
	Snapshot *session.Snapshot   `json:"snapshot,omitempty"`
	Events   []session.EventView `json:"events,omitempty"`
	Dropped  uint64              `json:"dropped,omitempty"` // Events lost to queue overwrite since the last frame
}

// EncodeFrame marshals f with msgpack using the json field names
func EncodeFrame(f *Frame) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	enc.UseCompactInts(true)
	if err := enc.Encode(f); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeFrame is the inverse of EncodeFrame into a generic map, as a browser client sees it
func DecodeFrame(data []byte) (map[string]any, error) {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.SetCustomStructTag("json")
	var out map[string]any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}
