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

// Package colon implements the reversible ":" -> "::" escape used to build
// physical bin keys. Because the physical separator is "::", any escaped
// logical name is free of unescaped colons and the transform round-trips.
package colon

import "strings"

// Escape doubles every ':' in s.
func Escape(s string) string {
	if !strings.ContainsRune(s, ':') {
		return s
	}
	return strings.ReplaceAll(s, ":", "::")
}

// Unescape is the inverse of Escape: every "::" becomes ":".
func Unescape(s string) string {
	if !strings.Contains(s, "::") {
		return s
	}
	return strings.ReplaceAll(s, "::", ":")
}
