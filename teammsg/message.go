// Package teammsg defines the SPL wire record exchanged between
// teammates, per spec.md §6 "Team messages (SPL wire)": a bounded-size,
// lossy, one-way datagram. This package only shapes and size-validates the
// record; the transport itself (UDP) is out of scope per spec.md §1.
package teammsg

import (
	"github.com/pkg/errors"

	"github.com/pejotejo/hulk/spatial"
)

// MaxEncodedBytes is the SPL wire size ceiling, per spec.md §6: "Serialized
// length ≤ 128 bytes".
const MaxEncodedBytes = 128

// fixedEncodingOverhead approximates the header plus every fixed-size field
// (player number, pose, whistle flag, optional-field presence bits) so that
// EncodedSize can be estimated without a real codec, which is out of scope.
const fixedEncodingOverhead = 32

// HulkMessage is one teammate's broadcast state, per spec.md §6.
type HulkMessage struct {
	PlayerNumber          int
	PoseOnField           spatial.Pose[spatial.Field]
	RefereeSignalDetected bool

	// BallPositionOnField is optional: nil when the sender has no current
	// ball hypothesis to share.
	BallPositionOnField *spatial.Point[spatial.Field]

	// TimeToReachKickPositionSeconds is optional: nil when the sender is not
	// pursuing a kick.
	TimeToReachKickPositionSeconds *float64
}

// EncodedSize estimates the wire size of m without implementing a real
// codec (out of scope per spec.md §1): fixed overhead, plus 16 bytes (one
// point) for a ball position and 8 bytes for a time-to-reach value when
// those optional fields are populated.
func (m HulkMessage) EncodedSize() int {
	const optionalFieldBytes = 16
	size := fixedEncodingOverhead
	if m.BallPositionOnField != nil {
		size += optionalFieldBytes
	}
	if m.TimeToReachKickPositionSeconds != nil {
		size += 8
	}
	return size
}

// ErrMessageTooLarge is returned by Validate when a message would exceed
// MaxEncodedBytes, per spec.md §7 "Protocol errors": "the message is
// dropped and counted; no reconnection."
var ErrMessageTooLarge = errors.New("team message exceeds wire size limit")

// Validate reports ErrMessageTooLarge if m's estimated encoding exceeds
// MaxEncodedBytes.
func (m HulkMessage) Validate() error {
	return checkSize(m.EncodedSize())
}

func checkSize(size int) error {
	if size > MaxEncodedBytes {
		return errors.Wrapf(ErrMessageTooLarge, "encoded size %d exceeds %d", size, MaxEncodedBytes)
	}
	return nil
}

// Outbox counts oversized messages dropped before send, per spec.md §7.
type Outbox struct {
	send func(HulkMessage) error

	droppedOversize int
}

// NewOutbox constructs an Outbox that hands validated messages to send.
func NewOutbox(send func(HulkMessage) error) *Outbox {
	return &Outbox{send: send}
}

// DroppedOversize returns the running count of messages dropped for
// exceeding MaxEncodedBytes.
func (o *Outbox) DroppedOversize() int { return o.droppedOversize }

// Send validates m and, if it fits, hands it to the underlying transport.
// Oversized messages are dropped and counted; Send never returns an error
// from the size check itself, matching spec.md §7's "no error escapes the
// cycle" propagation policy.
func (o *Outbox) Send(m HulkMessage) error {
	if err := m.Validate(); err != nil {
		o.droppedOversize++
		return nil
	}
	if o.send == nil {
		return nil
	}
	return o.send(m)
}
