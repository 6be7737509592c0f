// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package line

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/gorilla/websocket"

	"github.com/Thermoquad/rtsctl/pkg/rts"
)

// ErrBridgeRejected is returned when the bridge acknowledges a frame with
// ok=false
var ErrBridgeRejected = errors.New("bridge rejected transmission")

// ackSlack is added to the on-air time of a pulse train when waiting for the
// bridge acknowledgement.
const ackSlack = 5 * time.Second

// BridgeRequest is the CBOR message sent to a radio bridge for one
// transmission. Pulses is the complete timeline the bridge must replay,
// starting with the wake-up.
type BridgeRequest struct {
	Seq         uint32        `cbor:"seq"`
	Frame       []byte        `cbor:"frame"`
	Repetitions int           `cbor:"repetitions"`
	Pulses      []BridgePulse `cbor:"pulses"`
}

// BridgePulse is one level period, encoded as a two element array
type BridgePulse struct {
	_        struct{} `cbor:",toarray"`
	Level    uint8
	Duration uint32
}

// BridgeAck is the bridge's reply once the pulse train has been replayed
type BridgeAck struct {
	Seq   uint32 `cbor:"seq"`
	OK    bool   `cbor:"ok"`
	Error string `cbor:"error,omitempty"`
}

// Bridge is a FrameSender that hands pulse trains to a remote radio over a
// WebSocket connection and waits for each to be acknowledged.
type Bridge struct {
	mu   sync.Mutex
	conn *websocket.Conn
	seq  uint32
}

// DialBridge opens a WebSocket connection to a bridge, with HTTP Basic auth
// when username and password are set.
func DialBridge(ctx context.Context, wsURL, username, password string, skipSSLVerify bool) (*Bridge, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	switch u.Scheme {
	case "ws", "wss":
	default:
		return nil, fmt.Errorf("unsupported URL scheme: %s (use ws:// or wss://)", u.Scheme)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}
	if u.Scheme == "wss" {
		dialer.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: skipSSLVerify,
		}
	}

	headers := http.Header{}
	if username != "" && password != "" {
		credentials := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
		headers.Set("Authorization", "Basic "+credentials)
	}

	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	conn, resp, err := dialer.DialContext(ctx, wsURL, headers)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("WebSocket connection failed (HTTP %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("WebSocket connection failed: %w", err)
	}

	return &Bridge{conn: conn}, nil
}

// NewBridgeRequest builds the message for a frame sent with repetitions
func NewBridgeRequest(seq uint32, frame rts.Frame, repetitions int) (BridgeRequest, error) {
	pulses, err := rts.RecordFrame(frame, repetitions)
	if err != nil {
		return BridgeRequest{}, err
	}

	req := BridgeRequest{
		Seq:         seq,
		Frame:       frame.Bytes(),
		Repetitions: repetitions,
		Pulses:      make([]BridgePulse, len(pulses)),
	}
	for i, p := range pulses {
		req.Pulses[i] = BridgePulse{Level: uint8(p.Level), Duration: p.Duration}
	}
	return req, nil
}

// Airtime is the total duration of the pulse train
func (r BridgeRequest) Airtime() time.Duration {
	var total uint64
	for _, p := range r.Pulses {
		total += uint64(p.Duration)
	}
	return time.Duration(total) * time.Microsecond
}

// SendFrameRepeat implements rts.FrameSender. It returns once the bridge has
// acknowledged the transmission.
func (b *Bridge) SendFrameRepeat(frame rts.Frame, repetitions int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.seq++
	req, err := NewBridgeRequest(b.seq, frame, repetitions)
	if err != nil {
		return err
	}
	return b.roundTrip(req, req.Airtime()+ackSlack)
}

// Ping sends a request without pulses, which the bridge acknowledges without
// keying the radio, and returns the round trip time.
func (b *Bridge) Ping(timeout time.Duration) (time.Duration, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.seq++
	start := time.Now()
	if err := b.roundTrip(BridgeRequest{Seq: b.seq}, timeout); err != nil {
		return 0, err
	}
	return time.Since(start), nil
}

// roundTrip writes a request and waits for the ack with the same sequence
// number. Other messages are skipped. Once the request is written, a missing
// or unreadable ack wraps rts.ErrUnconfirmed: the bridge may have keyed the
// radio.
func (b *Bridge) roundTrip(req BridgeRequest, timeout time.Duration) error {
	data, err := cbor.Marshal(req)
	if err != nil {
		return fmt.Errorf("encode bridge request: %w", err)
	}
	if err := b.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
		return fmt.Errorf("write bridge request: %w", err)
	}

	if err := b.conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return fmt.Errorf("%w: %w", rts.ErrUnconfirmed, err)
	}
	defer b.conn.SetReadDeadline(time.Time{})

	for {
		messageType, msg, err := b.conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read bridge ack: %w: %w", rts.ErrUnconfirmed, err)
		}
		if messageType != websocket.BinaryMessage {
			continue
		}

		var ack BridgeAck
		if err := cbor.Unmarshal(msg, &ack); err != nil {
			return fmt.Errorf("decode bridge ack: %w: %w", rts.ErrUnconfirmed, err)
		}
		if ack.Seq != req.Seq {
			continue
		}
		if !ack.OK {
			return fmt.Errorf("%w: %s", ErrBridgeRejected, ack.Error)
		}
		return nil
	}
}

// Close sends a close frame and closes the connection
func (b *Bridge) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return b.conn.Close()
}
