package reconciler

import (
	"context"
	"time"

	"github.com/ralt/metasync/internal/models"
	"github.com/sirupsen/logrus"
)

// retry calls fn until it succeeds, fails with a non-retryable error, or
// MaxAttempts is used up. Delays double from InitialBackoff up to
// MaxBackoff. It returns the number of attempts made.
func (r *Reconciler) retry(ctx context.Context, field models.Field, fn func(context.Context) error) (int, error) {
	delay := r.opts.InitialBackoff
	var err error
	for attempt := 1; ; attempt++ {
		err = fn(ctx)
		if err == nil {
			return attempt, nil
		}
		if ctx.Err() != nil {
			return attempt, unavailable(field, ctx.Err())
		}
		if !models.IsRetryable(err) || attempt >= r.opts.MaxAttempts {
			return attempt, err
		}

		logrus.WithFields(logrus.Fields{
			"field":   field,
			"attempt": attempt,
			"delay":   delay,
		}).Debugf("Retrying after transient failure: %v", err)

		if serr := sleep(ctx, delay); serr != nil {
			return attempt, unavailable(field, serr)
		}
		delay *= 2
		if delay > r.opts.MaxBackoff {
			delay = r.opts.MaxBackoff
		}
	}
}

// sleep waits for d or until ctx is done
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// unavailable wraps context errors; in-flight work cut short by the overall
// timeout surfaces as RemoteUnavailable
func unavailable(field models.Field, err error) error {
	if models.IsErrorType(err, models.ErrRemoteUnavailable) {
		return err
	}
	return models.NewError(models.ErrRemoteUnavailable, field, err)
}
