package message

import (
	"context"
	"fmt"
	"strings"

	"github.com/tradenest/intake-workflow-backend/internal/utils"
)

// MessengerClient sends one outbound message. Sending is best effort from
// the workflow's point of view: a failed welcome message never rolls back a
// created record.
type MessengerClient interface {
	SendMessage(ctx context.Context, message Message) error
	MessengerType() MessengerType
}

type Message struct {
	ToPhoneNumber string
	Body          string
}

// Validate checks the message is sendable before any provider call.
func (m Message) Validate() error {
	if err := utils.ValidatePhoneNumber(m.ToPhoneNumber); err != nil {
		return fmt.Errorf("invalid message: %w", err)
	}

	if strings.TrimSpace(m.Body) == "" {
		return fmt.Errorf("message body is empty")
	}

	return nil
}
