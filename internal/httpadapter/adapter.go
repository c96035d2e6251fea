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

// Package httpadapter is the thin external HTTP/JSON binding for
// internal/front.Server: one handler per service method, translating
// URL query parameters into Server calls and typed errors into HTTP
// status codes. Routes are registered by path only and accept any method.
package httpadapter

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"tribbler/internal/front"
	"tribbler/pkg/trib"
)

// Adapter exposes a front.Server over HTTP.
type Adapter struct {
	server *front.Server
}

// NewAdapter wraps server for serving over HTTP.
func NewAdapter(server *front.Server) *Adapter {
	return &Adapter{server: server}
}

// RegisterRoutes installs every Tribbler endpoint on mux, mirroring the
// teacher's ServeMux registration shape in api/server.go.
func (a *Adapter) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/sign_up", a.handleSignUp)
	mux.HandleFunc("/list_users", a.handleListUsers)
	mux.HandleFunc("/post", a.handlePost)
	mux.HandleFunc("/tribs", a.handleTribs)
	mux.HandleFunc("/follow", a.handleFollow)
	mux.HandleFunc("/unfollow", a.handleUnfollow)
	mux.HandleFunc("/is_following", a.handleIsFollowing)
	mux.HandleFunc("/following", a.handleFollowing)
	mux.HandleFunc("/home", a.handleHome)
}

// ListenAndServe starts the HTTP server on addr with the teacher's timeout
// defaults (api/server.go's ListenAndServe).
func (a *Adapter) ListenAndServe(addr string) error {
	mux := http.NewServeMux()
	a.RegisterRoutes(mux)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return httpServer.ListenAndServe()
}

// statusFor maps a typed trib.Error to an HTTP status code: 400 for
// validation errors, 409 for state conflicts, 502 for transport errors.
func statusFor(err error) int {
	switch {
	case trib.Is(err, trib.InvalidUsername), trib.Is(err, trib.TribTooLong), trib.Is(err, trib.WhoWhom):
		return http.StatusBadRequest
	case trib.Is(err, trib.UsernameTaken), trib.Is(err, trib.UserDoesNotExist),
		trib.Is(err, trib.AlreadyFollowing), trib.Is(err, trib.NotFollowing),
		trib.Is(err, trib.FollowingTooMany):
		return http.StatusConflict
	case trib.Is(err, trib.Transport):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), statusFor(err))
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (a *Adapter) handleSignUp(w http.ResponseWriter, r *http.Request) {
	user := r.URL.Query().Get("user")
	if err := a.server.SignUp(r.Context(), user); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *Adapter) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := a.server.ListUsers(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, users)
}

func (a *Adapter) handlePost(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	who := q.Get("who")
	message := q.Get("message")
	clockHint, _ := strconv.ParseUint(q.Get("clock"), 10, 64)
	if err := a.server.Post(r.Context(), who, message, clockHint); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *Adapter) handleTribs(w http.ResponseWriter, r *http.Request) {
	user := r.URL.Query().Get("user")
	tribs, err := a.server.Tribs(r.Context(), user)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, tribs)
}

func (a *Adapter) handleFollow(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if err := a.server.Follow(r.Context(), q.Get("who"), q.Get("whom")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *Adapter) handleUnfollow(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if err := a.server.Unfollow(r.Context(), q.Get("who"), q.Get("whom")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *Adapter) handleIsFollowing(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ok, err := a.server.IsFollowing(r.Context(), q.Get("who"), q.Get("whom"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, ok)
}

func (a *Adapter) handleFollowing(w http.ResponseWriter, r *http.Request) {
	who := r.URL.Query().Get("who")
	followees, err := a.server.Following(r.Context(), who)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, followees)
}

func (a *Adapter) handleHome(w http.ResponseWriter, r *http.Request) {
	user := r.URL.Query().Get("user")
	home, err := a.server.Home(r.Context(), user)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, home)
}
