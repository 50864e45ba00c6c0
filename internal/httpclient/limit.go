package httpclient

import (
	"fmt"
	"io"
)

// BodyTooLargeError reports a response body that overran its read limit.
type BodyTooLargeError struct {
	Limit int64
}

func (e BodyTooLargeError) Error() string {
	return fmt.Sprintf("response body exceeded %d bytes", e.Limit)
}

// ReadBody reads r to completion, failing with BodyTooLargeError once more
// than limit bytes arrive. The service's diagnostic bodies and the model's
// replies are short documents; the limit keeps a misbehaving endpoint from
// ballooning memory. A limit of zero or less reads unbounded.
func ReadBody(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, BodyTooLargeError{Limit: limit}
	}
	return data, nil
}
