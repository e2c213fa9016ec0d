package contract

import "errors"

// ErrStaleRow is returned by guarded updates when the row no longer satisfies the guard,
// typically because a concurrent writer got there first.
var ErrStaleRow = errors.New("row changed concurrently")
