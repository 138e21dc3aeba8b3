// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keygate Contributors

// Package web exposes the login, logout and identity endpoints over HTTP.
//
// Routes:
//
//	POST /login   {"email","password"} -> 204 and a session cookie
//	POST /logout  -> 204, cookie cleared
//	GET  /me      -> 200 {"id","email"}
//
// Every credential or session defect is answered with 401
// {"error":"unauthorized"}; the response never says which part failed.
package web
