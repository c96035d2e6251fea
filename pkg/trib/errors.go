// Copyright 2026 Tribbler Project. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package trib

import (
	"errors"
	"fmt"
)

// Kind classifies a Tribbler error so that callers (for example the HTTP
// adapter's status-code mapping) can branch on it without string matching.
type Kind int

const (
	// Unknown is the zero value; never returned deliberately.
	Unknown Kind = iota
	InvalidUsername
	UsernameTaken
	UserDoesNotExist
	TribTooLong
	FollowingTooMany
	AlreadyFollowing
	NotFollowing
	WhoWhom
	Transport
)

func (k Kind) String() string {
	switch k {
	case InvalidUsername:
		return "InvalidUsername"
	case UsernameTaken:
		return "UsernameTaken"
	case UserDoesNotExist:
		return "UserDoesNotExist"
	case TribTooLong:
		return "TribTooLong"
	case FollowingTooMany:
		return "FollowingTooMany"
	case AlreadyFollowing:
		return "AlreadyFollowing"
	case NotFollowing:
		return "NotFollowing"
	case WhoWhom:
		return "WhoWhom"
	case Transport:
		return "Transport"
	default:
		return "Unknown"
	}
}

// Error is the typed error returned by every internal/front.Server method.
// It wraps an optional cause (e.g. a transport error from internal/kv) so
// that errors.Is/errors.As still see through to it.
type Error struct {
	Kind  Kind
	Who   string // primary subject, e.g. the username that failed validation
	Whom  string // secondary subject, used by AlreadyFollowing/NotFollowing/WhoWhom
	Cause error
}

func (e *Error) Error() string {
	switch e.Kind {
	case InvalidUsername:
		return fmt.Sprintf("invalid username: %q", e.Who)
	case UsernameTaken:
		return fmt.Sprintf("username already taken: %q", e.Who)
	case UserDoesNotExist:
		return fmt.Sprintf("user does not exist: %q", e.Who)
	case TribTooLong:
		return fmt.Sprintf("trib exceeds %d bytes", MaxTribLen)
	case FollowingTooMany:
		return fmt.Sprintf("%q already follows %d users", e.Who, MaxFollowing)
	case AlreadyFollowing:
		return fmt.Sprintf("%q already follows %q", e.Who, e.Whom)
	case NotFollowing:
		return fmt.Sprintf("%q does not follow %q", e.Who, e.Whom)
	case WhoWhom:
		return fmt.Sprintf("%q cannot target itself", e.Who)
	case Transport:
		if e.Cause != nil {
			return fmt.Sprintf("transport error: %v", e.Cause)
		}
		return "transport error"
	default:
		if e.Cause != nil {
			return e.Cause.Error()
		}
		return "unknown tribbler error"
	}
}

func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether err is a *Error of the given kind.
func Is(err error, kind Kind) bool {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind == kind
	}
	return false
}

// Errorf wraps a lower-layer error (typically a transport failure from
// internal/kv) into a Transport-kind Error with context, mirroring the
// teacher's fmt.Errorf("...: %w", err) wrapping convention.
func Errorf(format string, args ...interface{}) error {
	return &Error{Kind: Transport, Cause: fmt.Errorf(format, args...)}
}
