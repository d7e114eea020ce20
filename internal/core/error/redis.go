package errx

import (
	"errors"
	"net/http"

	"github.com/redis/go-redis/v9"
)

// WrapRedis maps Redis errors to the unified error type. A missing key is not
// an error for callers that read counters, so redis.Nil is returned unchanged.
func WrapRedis(err error) error {
	if err == nil || errors.Is(err, redis.Nil) {
		return err
	}
	return &AppError{
		Err:     err,
		Code:    FetchFailed,
		Status:  http.StatusInternalServerError,
		Message: RedisErrorMessage,
	}
}
