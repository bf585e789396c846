package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// StartAuditConsumer consumes EventsQueue and appends one line per event to
// <dir>/provisioning.log.
func StartAuditConsumer(ctx context.Context, url, dir string, log zerolog.Logger) error {
	return consume(ctx, url, EventsQueue, log, func(_ context.Context, _ *amqp.Channel, body []byte) error {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir logs: %w", err)
		}
		f, err := os.OpenFile(filepath.Join(dir, "provisioning.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		return writeAuditLine(f, body)
	})
}

func writeAuditLine(w io.Writer, body []byte) error {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(body, &head); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}

	var line string
	switch head.Type {
	case TypeOwnerRegistered:
		var ev OwnerRegisteredEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return fmt.Errorf("unmarshal: %w", err)
		}
		line = fmt.Sprintf("[%s] Owner registered | identity_id=%s | organization_id=%s | organization=%q | email=%s | industries=[%s]\n",
			ev.OccurredAt, ev.IdentityID, ev.OrganizationID, ev.OrganizationName, ev.Email, strings.Join(ev.Industries, ","))
	case TypeStaffInvited:
		var ev StaffInvitedEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return fmt.Errorf("unmarshal: %w", err)
		}
		line = fmt.Sprintf("[%s] Staff invited | identity_id=%s | organization_id=%s | email=%s | role=%s | invited_by=%s\n",
			ev.OccurredAt, ev.IdentityID, ev.OrganizationID, ev.Email, ev.Role, ev.InvitedBy)
	default:
		return fmt.Errorf("unknown event type %q", head.Type)
	}

	if _, err := io.WriteString(w, line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}
