package utils

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/mmdatafocus/kitchen_backend/config"
	"github.com/sirupsen/logrus"
)

const businessLockTTL = 30 * time.Second

// WithBusinessLock runs fn while holding the redis lock "<lockType>:<businessId>".
// The lock is best-effort: without redis, or when it cannot be obtained in time, fn still runs.
func WithBusinessLock(ctx context.Context, businessId string, lockType string, fn func() error) error {
	logger := config.GetLogger()
	locker := config.GetRedisLock()
	if locker == nil {
		logger.WithFields(logrus.Fields{
			"field":       "WithBusinessLock",
			"business_id": businessId,
			"lock_type":   lockType,
		}).Debug("redis lock not ready; proceeding without redis lock")
		return fn()
	}

	lockKey := fmt.Sprintf("%s:%s", lockType, businessId)
	lock, err := locker.Obtain(ctx, lockKey, businessLockTTL, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(100*time.Millisecond), 20),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		logger.WithFields(logrus.Fields{
			"field":       "WithBusinessLock",
			"business_id": businessId,
			"lock_type":   lockType,
		}).Warn("could not obtain redis lock; proceeding without redis lock")
		return fn()
	} else if err != nil {
		logger.WithFields(logrus.Fields{
			"field":       "WithBusinessLock",
			"business_id": businessId,
			"lock_type":   lockType,
		}).Warn("error obtaining redis lock; proceeding without redis lock: " + err.Error())
		return fn()
	}
	defer func() {
		if releaseErr := lock.Release(context.WithoutCancel(ctx)); releaseErr != nil && !errors.Is(releaseErr, redislock.ErrLockNotHeld) {
			logger.WithFields(logrus.Fields{
				"field":       "WithBusinessLock",
				"business_id": businessId,
			}).Warn("failed to release redis lock: " + releaseErr.Error())
		}
	}()
	return fn()
}
