package frame

import (
	tgerrors "github.com/vango-dev/transitiongroup/internal/errors"
)

// Sentinel errors. Match with errors.Is.
var (
	ErrMalformed       = tgerrors.New("E103")
	ErrUncomparableKey = tgerrors.New("E104")
)

func malformed(cursor int, format string, args ...any) error {
	return tgerrors.New("E103").WithDetailf("op %d: "+format, append([]any{cursor}, args...)...)
}

// checkKey rejects keys that would panic when used as map keys.
func checkKey(cursor int, key any) error {
	if key == nil {
		return nil
	}
	if !hashable(key) {
		return tgerrors.New("E104").WithDetailf("op %d: key of type %T", cursor, key)
	}
	return nil
}

// hashable reports whether key can be stored in a map. A comparable type
// may still hold an unhashable dynamic value in an interface field, so the
// value itself is tried.
func hashable(key any) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	_ = map[any]struct{}{key: {}}
	return true
}
