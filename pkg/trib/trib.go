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

// Package trib provides the shared data model, constants, and username
// validation used by every layer of the Tribbler service: the bin router,
// the front-end server, and the keeper all import this package rather than
// redeclaring any of it.
package trib

import "fmt"

// Size and fan-out limits. These are bit-exact with the service contract;
// do not change without updating every caller that assumes them.
const (
	MaxTribLen   = 140  // maximum message length, in bytes
	MaxTribFetch = 100  // tribs()/home() never return more than this many
	MaxFollowing = 2000 // a user may follow at most this many other users
	MinListUser  = 20   // list_users() returns up to this many names
)

// LogSeparator is the field separator used in follow/unfollow log entries
// ("<clock>::follow::<whom>") and is distinct from the bin key separator
// even though both happen to be "::".
const LogSeparator = "::"

// BinSeparator joins an escaped bin name to an escaped logical key to form
// a physical key: escape(user) + BinSeparator + escape(key).
const BinSeparator = "::"

// SignupKeyPrefix namespaces signup markers in the general bin.
const SignupKeyPrefix = "signup_"

// Trib is an immutable post. The tuple (Clock, Time, User, Message) is its
// total ordering key (see Less).
type Trib struct {
	User    string `json:"user"`
	Message string `json:"message"`
	Time    uint64 `json:"time"`  // wall-clock seconds since epoch
	Clock   uint64 `json:"clock"` // logical clock value assigned by post()
}

// Less reports whether t sorts strictly before o under the canonical total
// order: lexicographic over (Clock, Time, User, Message).
func (t *Trib) Less(o *Trib) bool {
	if t.Clock != o.Clock {
		return t.Clock < o.Clock
	}
	if t.Time != o.Time {
		return t.Time < o.Time
	}
	if t.User != o.User {
		return t.User < o.User
	}
	return t.Message < o.Message
}

// IsValidUsername reports whether name is a valid user name: non-empty,
// printable ASCII, length <= 15, starting with a lowercase letter, and
// containing only lowercase letters and digits thereafter.
func IsValidUsername(name string) bool {
	if len(name) == 0 || len(name) > 15 {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= '0' && c <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// FollowLogEntry formats a single follow/unfollow log entry for the given
// logical clock, action ("follow" or "unfollow"), and target user.
func FollowLogEntry(clock uint64, action, whom string) string {
	return fmt.Sprintf("%d%s%s%s%s", clock, LogSeparator, action, LogSeparator, whom)
}
