package nx584

import (
	"fmt"

	"github.com/cbarrick/nx584bridge/internal/logger"
)

// dispatchFunc handles a solicited response payload for a pending command.
type dispatchFunc func(data []byte) error

// PendingCommand is one outstanding request/response exchange: the encoded
// request, the set of response types it expects (and how to handle each),
// and its remaining retry budget.
type PendingCommand struct {
	RequestType MessageType
	Payload     []byte
	// AckRequested sets bit 0x80 on the outbound request's type byte, asking
	// the panel to acknowledge it directly. Rarely used by requests.
	AckRequested bool
	// Dispatch maps a response MessageType to the handler invoked with its
	// payload. A response type absent from this table is treated as an
	// interleaved transition, not as this command's reply.
	Dispatch map[MessageType]dispatchFunc
	// Retries is the remaining retry budget, initially 3.
	Retries int
}

// NewPendingCommand constructs a PendingCommand with the standard retry
// budget of 3.
func NewPendingCommand(requestType MessageType, payload []byte, dispatch map[MessageType]dispatchFunc) *PendingCommand {
	return &PendingCommand{
		RequestType: requestType,
		Payload:     payload,
		Dispatch:    dispatch,
		Retries:     3,
	}
}

// Queue is the FIFO of PendingCommand the Controller drains. At most one
// command is outstanding on the serial link at any moment; Queue enforces
// that by construction (it only ever works on the front element).
type Queue struct {
	pending []*PendingCommand
}

// Enqueue appends cmd to the back of the queue.
func (q *Queue) Enqueue(cmd *PendingCommand) {
	q.pending = append(q.pending, cmd)
}

// Len returns the number of commands still queued, including the one
// currently being processed.
func (q *Queue) Len() int {
	return len(q.pending)
}

// Clear discards every queued command without sending anything.
func (q *Queue) Clear() {
	q.pending = nil
}

// TransitionHandler processes an interleaved (or, post-sync, any unsolicited)
// transition message. It is called with the frame's unmasked type, whether
// the ack-requested bit was set, and the payload.
type TransitionHandler func(msgType MessageType, ackRequested bool, data []byte)

// Drain processes every command currently in the queue to completion (spec.md
// §4.4). For the command at the front:
//  1. Send the encoded request through framer; initialize retries.
//  2. Read the next inbound frame, blocking.
//  3. Classify the inbound frame by its unmasked type code:
//     - timeout: decrement retries; retry if any remain, else discard.
//     - rejection (NACK/Failed/Rejected): discard, no retry.
//     - a type outside the command's dispatch table, or ack-requested set:
//       an interleaved transition — dispatch it, then resume step 2 without
//       consuming a retry.
//     - a type in the dispatch table: invoke the handler, complete the
//       command, advance to the next one.
//
// Drain never returns an error for recoverable protocol conditions: per
// spec.md §7, those never bubble above the dispatch step. It only returns a
// non-nil error if framer I/O itself fails unrecoverably (transport loss).
func (q *Queue) Drain(framer *Framer, onTransition TransitionHandler, metrics Metrics) error {
	for len(q.pending) > 0 {
		cmd := q.pending[0]

		if err := framer.Write(cmd.RequestType, cmd.Payload, cmd.AckRequested); err != nil {
			return fmt.Errorf("%w: %w", ErrTransportClosed, err)
		}
		metrics.FrameWritten()
		metrics.CommandSent(cmd.RequestType)

		for {
			msgType, ack, data, err := framer.Read()
			if err != nil {
				cmd.Retries--
				metrics.CommandRetried(cmd.RequestType)
				logger.Warn("nx584: command timed out", "request_type", cmd.RequestType, "retries_left", cmd.Retries)
				if cmd.Retries <= 0 {
					metrics.CommandFailed(cmd.RequestType)
					logger.Error("nx584: command exhausted retries, discarding", "request_type", cmd.RequestType)
					break
				}
				if err := framer.Write(cmd.RequestType, cmd.Payload, cmd.AckRequested); err != nil {
					return fmt.Errorf("%w: %w", ErrTransportClosed, err)
				}
				metrics.FrameWritten()
				metrics.CommandSent(cmd.RequestType)
				continue
			}
			metrics.FrameRead()

			if msgType.IsRejection() {
				metrics.CommandRejected(cmd.RequestType)
				logger.Error("nx584: panel rejected command", "request_type", cmd.RequestType, "response_type", msgType)
				break
			}

			handler, known := cmd.Dispatch[msgType]
			if !known || ack {
				metrics.TransitionReceived(msgType)
				onTransition(msgType, ack, data)
				continue
			}

			if err := handler(data); err != nil {
				logger.Error("nx584: response handler failed", "request_type", cmd.RequestType, "response_type", msgType, "error", err)
			}
			break
		}

		q.pending = q.pending[1:]
	}
	return nil
}
