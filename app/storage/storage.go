// Package storage provides persisted stores for the moderation bot on top of
// the engine layer. Each table is represented by a struct embedding engine.SQL
// and a lock, with business-logic methods for this data type. All multi-step
// mutations run inside a single database transaction, so concurrent payment
// events, referral registrations and example updates can't interleave into an
// inconsistent state.
package storage

import (
	"fmt"

	"github.com/umnov/tg-neuromod/app/storage/engine"
)

// pick returns the dialect query for the command or an error with the table context
func pick(qm *engine.QueryMap, dbType engine.Type, cmd engine.DBCmd, table string) (string, error) {
	q, err := qm.Pick(dbType, cmd)
	if err != nil {
		return "", fmt.Errorf("failed to get %s query: %w", table, err)
	}
	return q, nil
}
