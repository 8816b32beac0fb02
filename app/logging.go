package app

import (
	"time"

	"github.com/iov-one/guardvault"
)

// logDuration writes information about the time and result to the logger.
// Failures are logged as errors, successes as info.
func logDuration(ctx guardvault.Context, start time.Time, msg string, err error) {
	delta := time.Since(start)
	logger := guardvault.GetLogger(ctx).With("duration", delta/time.Microsecond)

	if err != nil {
		logger.Error(msg, "err", err)
		return
	}
	logger.Info(msg)
}
