// Package domain holds helpers shared by the domain packages.
package domain

import (
	"errors"
	"strings"

	monoerrors "github.com/go-monolith/mono/pkg/errors"
)

// RestoreError maps an error that lost its type crossing a request-reply
// boundary back onto the first sentinel whose message it contains. When the
// error carries a mono RemoteError, the remote handler's own message is kept
// and the framework's service and type annotations are dropped. Errors that
// already match a sentinel, or match none, are returned unchanged.
func RestoreError(err error, sentinels ...error) error {
	if err == nil {
		return nil
	}
	for _, sentinel := range sentinels {
		if errors.Is(err, sentinel) {
			return err
		}
	}

	msg := err.Error()
	var remote *monoerrors.RemoteError
	if errors.As(err, &remote) {
		msg = remote.Message
	}
	for _, sentinel := range sentinels {
		if strings.Contains(msg, sentinel.Error()) {
			return &remoteError{kind: sentinel, msg: msg}
		}
	}
	return err
}

type remoteError struct {
	kind error
	msg  string
}

func (e *remoteError) Error() string { return e.msg }

func (e *remoteError) Unwrap() error { return e.kind }
