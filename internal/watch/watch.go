// Package watch detects changes made to the journal storage by other
// processes and reports the affected keys.
package watch

import "context"

// Source reports changed storage keys to fn until ctx is done. An empty key
// means the change could not be attributed to a key.
//
// fn is called from the Run goroutine, one call at a time.
type Source interface {
	Run(ctx context.Context, fn func(key string)) error
}
