package common

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/sethvargo/go-retry"
)

func IsValidURL(input string) bool {
	_, err := url.ParseRequestURI(input)

	return err == nil
}

func IsContextDoneErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// RetryForever calls fn every interval until it succeeds or the context is done
func RetryForever(ctx context.Context, interval time.Duration, fn func(context.Context) error) error {
	return retry.Do(ctx, retry.NewConstant(interval), func(ctx context.Context) error {
		err := fn(ctx)
		if err == nil || IsContextDoneErr(err) {
			return err
		}

		return retry.RetryableError(err)
	})
}
