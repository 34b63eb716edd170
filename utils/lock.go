package utils

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/kunal-9999/inventory-management-system-sub000/config"
)

// SheetLock serializes snapshot replacement per sheet across instances.
// A snapshot save is always a full delete+insert; two interleaved saves for
// the same sheet would leave a mixed snapshot behind.
func SheetLock(ctx context.Context, sheetId string, lockType string, moduleName string, functionName string) (func(), error) {
	logger := config.GetLogger()
	locker := config.GetRedisLock()
	if locker == nil {
		// Single-instance deployments run without Redis; the engine's own
		// recalculation guard already serializes local saves.
		return func() {}, nil
	}
	lockKey := fmt.Sprintf("%s:%s", lockType, sheetId)
	lock, err := locker.Obtain(ctx, lockKey, 30*time.Second, nil)
	if err == redislock.ErrNotObtained {
		config.LogError(logger, moduleName, functionName, "Could not obtain lock for sheetId", sheetId, err)
		return nil, errors.New("could not obtain lock for sheetId")
	} else if err != nil {
		config.LogError(logger, moduleName, functionName, "Error obtaining lock for sheetId", sheetId, err)
		return nil, err
	}
	return func() { _ = lock.Release(ctx) }, nil
}
