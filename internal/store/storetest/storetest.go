// Package storetest wires a Writer over a throwaway local store.
package storetest

import (
	"testing"

	"github.com/angelmondragon/roastery-backend/internal/store"
	"github.com/angelmondragon/roastery-backend/pkg/db"
	"github.com/angelmondragon/roastery-backend/pkg/db/dbtest"
	"github.com/angelmondragon/roastery-backend/pkg/logger"
	"github.com/angelmondragon/roastery-backend/pkg/outbox"
)

// NewWriter returns a Writer with a real outbox over an in-memory store.
func NewWriter(t *testing.T) (*store.Writer, *db.Client) {
	t.Helper()
	client := dbtest.NewLocal(t)
	svc := outbox.NewService(outbox.NewRepository(client.DB()), logger.Nop())
	return store.NewWriter(client, svc, nil), client
}
