package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"

	"github.com/angelmondragon/roastery-backend/pkg/enums"
)

// Change is one row-change notification from the remote mirror.
type Change struct {
	Table string       `json:"table"`
	Op    string       `json:"op"`
	ID    string       `json:"id"`
	Kind  enums.SyncOp `json:"-"`
}

// ParseChange decodes the trigger payload {"table","op","id"}. insert and
// update both map to an upsert.
func ParseChange(payload string) (Change, error) {
	var change Change
	if err := json.Unmarshal([]byte(payload), &change); err != nil {
		return Change{}, fmt.Errorf("decode change payload: %w", err)
	}
	if change.Table == "" || change.ID == "" {
		return Change{}, errors.New("change payload missing table or id")
	}
	switch strings.ToLower(change.Op) {
	case "insert", "update":
		change.Kind = enums.SyncOpUpsert
	case "delete":
		change.Kind = enums.SyncOpDelete
	default:
		return Change{}, fmt.Errorf("unsupported change op %q", change.Op)
	}
	return change, nil
}

// ChangeHandler receives parsed notifications. Errors are the handler's to log.
type ChangeHandler func(ctx context.Context, change Change)

// listen holds a dedicated connection on channel until ctx ends or the
// connection fails. A nil return means ctx was canceled.
func listen(ctx context.Context, dsn, channel string, handle ChangeHandler, onBadPayload func(string, error)) error {
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return fmt.Errorf("connect change feed: %w", err)
	}
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, "LISTEN "+pq.QuoteIdentifier(channel)); err != nil {
		return fmt.Errorf("listen %s: %w", channel, err)
	}

	for {
		notification, err := conn.WaitForNotification(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("wait for notification: %w", err)
		}
		change, err := ParseChange(notification.Payload)
		if err != nil {
			if onBadPayload != nil {
				onBadPayload(notification.Payload, err)
			}
			continue
		}
		handle(ctx, change)
	}
}
