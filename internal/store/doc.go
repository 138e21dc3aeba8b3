// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keygate Contributors

// Package store owns the PostgreSQL connection pool and the schema.
package store
