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

package front

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"tribbler/internal/binstore"
	"tribbler/pkg/trib"
)

func newTestServer() *Server {
	store := binstore.NewBinClient([]string{"a", "b", "c"}, binstore.TransportMemory, false)
	return NewServer(store)
}

func TestSignUpTwiceIsUsernameTaken(t *testing.T) {
	ctx := context.Background()
	s := newTestServer()

	if err := s.SignUp(ctx, "bob"); err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	err := s.SignUp(ctx, "bob")
	if !trib.Is(err, trib.UsernameTaken) {
		t.Fatalf("SignUp duplicate = %v, want UsernameTaken", err)
	}

	users, err := s.ListUsers(ctx)
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(users) != 1 || users[0] != "bob" {
		t.Fatalf("ListUsers = %v, want [bob]", users)
	}
}

func TestListUsersTruncatesAndSorts(t *testing.T) {
	ctx := context.Background()
	s := newTestServer()

	for c := 'a'; c <= 'z'; c++ {
		if err := s.SignUp(ctx, string(c)); err != nil {
			t.Fatalf("SignUp(%c): %v", c, err)
		}
	}
	users, err := s.ListUsers(ctx)
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(users) != trib.MinListUser {
		t.Fatalf("ListUsers len = %d, want %d", len(users), trib.MinListUser)
	}
	want := "abcdefghijklmnopqrst"
	got := strings.Join(users, "")
	if got != want {
		t.Fatalf("ListUsers = %q, want %q", got, want)
	}
}

func TestPostRejectsOverlongMessage(t *testing.T) {
	ctx := context.Background()
	s := newTestServer()
	if err := s.SignUp(ctx, "bob"); err != nil {
		t.Fatalf("SignUp: %v", err)
	}

	tooLong := strings.Repeat("X", trib.MaxTribLen+1)
	if err := s.Post(ctx, "bob", tooLong, 0); !trib.Is(err, trib.TribTooLong) {
		t.Fatalf("Post(overlong) = %v, want TribTooLong", err)
	}

	justRight := strings.Repeat("X", trib.MaxTribLen)
	if err := s.Post(ctx, "bob", justRight, 0); err != nil {
		t.Fatalf("Post(max length): %v", err)
	}
}

func TestTribsGarbageCollectsPastMaxFetch(t *testing.T) {
	ctx := context.Background()
	s := newTestServer()
	if err := s.SignUp(ctx, "bob"); err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	for i := 0; i < 150; i++ {
		if err := s.Post(ctx, "bob", fmt.Sprintf("msg-%d", i), 0); err != nil {
			t.Fatalf("Post %d: %v", i, err)
		}
	}
	got, err := s.Tribs(ctx, "bob")
	if err != nil {
		t.Fatalf("Tribs: %v", err)
	}
	if len(got) != trib.MaxTribFetch {
		t.Fatalf("Tribs len = %d, want %d", len(got), trib.MaxTribFetch)
	}

	bin, err := s.store.Bin("bob")
	if err != nil {
		t.Fatalf("Bin: %v", err)
	}
	raw, err := bin.ListGet(ctx, "tribs")
	if err != nil {
		t.Fatalf("ListGet: %v", err)
	}
	if len(raw) != trib.MaxTribFetch {
		t.Fatalf("back-end tribs list len = %d, want %d", len(raw), trib.MaxTribFetch)
	}

	// GC idempotency: calling Tribs again must not error and must not
	// shrink the already-trimmed list further.
	got2, err := s.Tribs(ctx, "bob")
	if err != nil {
		t.Fatalf("Tribs (second call): %v", err)
	}
	if len(got2) != trib.MaxTribFetch {
		t.Fatalf("Tribs (second call) len = %d, want %d", len(got2), trib.MaxTribFetch)
	}
}

func TestFollowSelfIsError(t *testing.T) {
	ctx := context.Background()
	s := newTestServer()
	if err := s.SignUp(ctx, "bob"); err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if err := s.Follow(ctx, "bob", "bob"); !trib.Is(err, trib.WhoWhom) {
		t.Fatalf("Follow(bob,bob) = %v, want WhoWhom", err)
	}
}

func TestFollowLifecycleAndLimits(t *testing.T) {
	ctx := context.Background()
	s := newTestServer()
	if err := s.SignUp(ctx, "bob"); err != nil {
		t.Fatalf("SignUp bob: %v", err)
	}
	if err := s.SignUp(ctx, "alice"); err != nil {
		t.Fatalf("SignUp alice: %v", err)
	}

	if err := s.Follow(ctx, "bob", "alice"); err != nil {
		t.Fatalf("Follow(bob,alice): %v", err)
	}
	if err := s.Follow(ctx, "bob", "alice"); !trib.Is(err, trib.AlreadyFollowing) {
		t.Fatalf("Follow(bob,alice) again = %v, want AlreadyFollowing", err)
	}

	ok, err := s.IsFollowing(ctx, "bob", "alice")
	if err != nil || !ok {
		t.Fatalf("IsFollowing(bob,alice) = %v, %v, want true", ok, err)
	}

	if err := s.Unfollow(ctx, "bob", "alice"); err != nil {
		t.Fatalf("Unfollow: %v", err)
	}
	if err := s.Unfollow(ctx, "bob", "alice"); !trib.Is(err, trib.NotFollowing) {
		t.Fatalf("Unfollow again = %v, want NotFollowing", err)
	}
	ok, err = s.IsFollowing(ctx, "bob", "alice")
	if err != nil || ok {
		t.Fatalf("IsFollowing(bob,alice) after unfollow = %v, %v, want false", ok, err)
	}
	followees, err := s.Following(ctx, "bob")
	if err != nil {
		t.Fatalf("Following: %v", err)
	}
	if len(followees) != 0 {
		t.Fatalf("Following(bob) = %v, want empty", followees)
	}
}

func TestFollowingTooManyAtLimit(t *testing.T) {
	ctx := context.Background()
	s := newTestServer()
	if err := s.SignUp(ctx, "bob"); err != nil {
		t.Fatalf("SignUp bob: %v", err)
	}
	for i := 0; i < trib.MaxFollowing; i++ {
		name := fmt.Sprintf("u%d", i)
		if err := s.SignUp(ctx, name); err != nil {
			t.Fatalf("SignUp %s: %v", name, err)
		}
		if err := s.Follow(ctx, "bob", name); err != nil {
			t.Fatalf("Follow(bob,%s): %v", name, err)
		}
	}
	if err := s.SignUp(ctx, "onemore"); err != nil {
		t.Fatalf("SignUp onemore: %v", err)
	}
	if err := s.Follow(ctx, "bob", "onemore"); !trib.Is(err, trib.FollowingTooMany) {
		t.Fatalf("Follow past limit = %v, want FollowingTooMany", err)
	}
}

func TestHomeMergesFolloweesInCanonicalOrder(t *testing.T) {
	ctx := context.Background()
	s := newTestServer()
	users := []string{"bob", "alice0", "alice1", "alice2", "alice3"}
	for _, u := range users {
		if err := s.SignUp(ctx, u); err != nil {
			t.Fatalf("SignUp %s: %v", u, err)
		}
	}
	for _, f := range users[1:] {
		if err := s.Follow(ctx, "bob", f); err != nil {
			t.Fatalf("Follow(bob,%s): %v", f, err)
		}
	}

	for i, u := range users {
		for j := 0; j <= i; j++ {
			if err := s.Post(ctx, u, fmt.Sprintf("%s-%d", u, j), 0); err != nil {
				t.Fatalf("Post(%s): %v", u, err)
			}
		}
	}

	home, err := s.Home(ctx, "bob")
	if err != nil {
		t.Fatalf("Home: %v", err)
	}
	if len(home) != 15 {
		t.Fatalf("Home len = %d, want 15", len(home))
	}
	for i := 1; i < len(home); i++ {
		if home[i].Less(home[i-1]) {
			t.Fatalf("Home not sorted ascending at index %d", i)
		}
	}

	for _, u := range users {
		for j := 0; j < 20; j++ {
			if err := s.Post(ctx, u, fmt.Sprintf("%s-extra-%d", u, j), 0); err != nil {
				t.Fatalf("Post(%s) extra: %v", u, err)
			}
		}
	}
	home, err = s.Home(ctx, "bob")
	if err != nil {
		t.Fatalf("Home (second): %v", err)
	}
	if len(home) != trib.MaxTribFetch {
		t.Fatalf("Home len = %d, want %d", len(home), trib.MaxTribFetch)
	}
	for i := 1; i < len(home); i++ {
		if home[i].Less(home[i-1]) {
			t.Fatalf("Home not sorted ascending at index %d", i)
		}
	}
}

func TestPostBeforeSignUpIsUserDoesNotExist(t *testing.T) {
	ctx := context.Background()
	s := newTestServer()
	if err := s.Post(ctx, "nobody", "hi", 0); !trib.Is(err, trib.UserDoesNotExist) {
		t.Fatalf("Post before sign up = %v, want UserDoesNotExist", err)
	}
}

func TestInvalidUsernameRejected(t *testing.T) {
	ctx := context.Background()
	s := newTestServer()
	if err := s.SignUp(ctx, "Bob"); !trib.Is(err, trib.InvalidUsername) {
		t.Fatalf("SignUp(Bob) = %v, want InvalidUsername", err)
	}
	if err := s.SignUp(ctx, ""); !trib.Is(err, trib.InvalidUsername) {
		t.Fatalf("SignUp(empty) = %v, want InvalidUsername", err)
	}
}
