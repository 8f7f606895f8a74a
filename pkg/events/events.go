package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/gatehouse/gatepass/pkg/logger"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
	Close() error
}

// Subscriber attaches in-process consumers to published subjects.
type Subscriber interface {
	Subscribe(subject string, handler func(msg *Message)) error
}

type Message struct {
	Subject string
	Data    []byte
}

type NATSEventBus struct {
	conn *nats.Conn
}

func NewNATSEventBus(url string) (*NATSEventBus, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSEventBus{conn: conn}, nil
}

func (n *NATSEventBus) Publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	logger.DebugContext(ctx, "Publishing event", "subject", subject, "data", string(payload))

	return n.conn.Publish(subject, payload)
}

func (n *NATSEventBus) Subscribe(subject string, handler func(msg *Message)) error {
	_, err := n.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(&Message{Subject: msg.Subject, Data: msg.Data})
	})
	return err
}

func (n *NATSEventBus) Close() error {
	n.conn.Close()
	return nil
}

// LogEvents mirrors every event on the given subjects into the
// structured log, so lifecycle events land in the same stream as the
// request log.
func LogEvents(sub Subscriber, subjects ...string) error {
	for _, subject := range subjects {
		if err := sub.Subscribe(subject, func(msg *Message) {
			logger.Info("Domain event", "subject", msg.Subject, "data", string(msg.Data))
		}); err != nil {
			return fmt.Errorf("subscribe %s: %w", subject, err)
		}
	}
	return nil
}

// Event subjects
const (
	VisitCreated          = "visit.created"
	VisitHostApproved     = "visit.host_approved"
	VisitHostRejected     = "visit.host_rejected"
	VisitSecurityRejected = "visit.security_rejected"

	PassIssued     = "pass.issued"
	PassCheckedIn  = "pass.checked_in"
	PassCheckedOut = "pass.checked_out"
)

// Event payloads
type VisitCreatedEvent struct {
	VisitID   int64     `json:"visit_id"`
	GuestID   int64     `json:"guest_id"`
	HostID    int64     `json:"host_id"`
	Purpose   string    `json:"purpose"`
	VisitDate time.Time `json:"visit_date"`
	CreatedAt time.Time `json:"created_at"`
}

type VisitDecidedEvent struct {
	VisitID   int64     `json:"visit_id"`
	DecidedBy int64     `json:"decided_by"`
	Status    string    `json:"status"`
	Reason    string    `json:"reason,omitempty"`
	DecidedAt time.Time `json:"decided_at"`
}

type PassIssuedEvent struct {
	PassID     int64     `json:"pass_id"`
	VisitID    int64     `json:"visit_id"`
	Code       string    `json:"code"`
	IssuedBy   int64     `json:"issued_by"`
	ValidFrom  time.Time `json:"valid_from"`
	ValidUntil time.Time `json:"valid_until"`
}

type PassMovementEvent struct {
	PassID       int64      `json:"pass_id"`
	TrafficLogID int64      `json:"traffic_log_id"`
	Code         string     `json:"code"`
	RecordedBy   int64      `json:"recorded_by,omitempty"`
	CheckedInAt  time.Time  `json:"checked_in_at"`
	CheckedOutAt *time.Time `json:"checked_out_at,omitempty"`
}
