// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keygate Contributors

//go:build integration

package store_test

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/keygate/keygate/internal/auth"
	"github.com/keygate/keygate/internal/auth/postgres"
	"github.com/keygate/keygate/internal/store"
)

var _ = Describe("Migrator", Ordered, func() {
	var migrator *store.Migrator

	BeforeAll(func() {
		var err error
		migrator, err = store.NewMigrator(connStr)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() { _ = migrator.Close() })
		Expect(migrator.Down()).To(Succeed())
	})

	It("reports version 0 with everything pending on an empty schema", func() {
		version, dirty, err := migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(BeZero())
		Expect(dirty).To(BeFalse())

		pending, err := migrator.Pending()
		Expect(err).NotTo(HaveOccurred())
		Expect(pending).NotTo(BeEmpty())
	})

	It("applies, rolls back and re-applies", func() {
		Expect(migrator.Up()).To(Succeed())
		latest, dirty, err := migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(latest).To(BeNumerically(">", 0))
		Expect(dirty).To(BeFalse())

		Expect(migrator.Steps(-1)).To(Succeed())
		version, _, err := migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(Equal(latest - 1))

		Expect(migrator.Down()).To(Succeed())
		version, _, err = migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(BeZero())

		Expect(migrator.Up()).To(Succeed())
		Expect(migrator.Up()).To(Succeed(), "up to date is not an error")
	})
})

var _ = Describe("UserRepository", Ordered, func() {
	var (
		ctx  context.Context
		repo *postgres.UserRepository
	)

	BeforeAll(func() {
		ctx = context.Background()
		migrator, err := store.NewMigrator(connStr)
		Expect(err).NotTo(HaveOccurred())
		Expect(migrator.Up()).To(Succeed())
		Expect(migrator.Close()).To(Succeed())

		repo = postgres.NewUserRepository(pool)
	})

	BeforeEach(func() {
		_, err := pool.Exec(ctx, `DELETE FROM users`)
		Expect(err).NotTo(HaveOccurred())
	})

	newUser := func(email string) *auth.UserRecord {
		return &auth.UserRecord{
			ID:           ulid.Make(),
			Email:        email,
			PasswordHash: "$argon2id$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA",
			CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
		}
	}

	It("finds a created user regardless of email case", func() {
		user := newUser("Alice@Example.com")
		Expect(repo.Create(ctx, user)).To(Succeed())

		found, err := repo.FindByEmail(ctx, "alice@EXAMPLE.com")
		Expect(err).NotTo(HaveOccurred())
		Expect(found.ID).To(Equal(user.ID))
		Expect(found.Email).To(Equal("Alice@Example.com"))
		Expect(found.PasswordHash).To(Equal(user.PasswordHash))
		Expect(found.CreatedAt).To(BeTemporally("==", user.CreatedAt))
	})

	It("reports unknown emails as not found", func() {
		_, err := repo.FindByEmail(ctx, "ghost@example.com")
		Expect(err).To(MatchError(auth.ErrNotFound))
	})

	It("rejects a second account for the same email in another case", func() {
		Expect(repo.Create(ctx, newUser("bob@example.com"))).To(Succeed())

		err := repo.Create(ctx, newUser("BOB@example.com"))
		Expect(err).To(MatchError(auth.ErrEmailTaken))
	})

	It("prefers the most recently created row when duplicates exist", func() {
		// Rows inserted around the unique index, as legacy data might be.
		_, err := pool.Exec(ctx, `DROP INDEX users_email_lower_idx`)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() {
			_, _ = pool.Exec(ctx, `DELETE FROM users`)
			_, _ = pool.Exec(ctx, `CREATE UNIQUE INDEX users_email_lower_idx ON users (LOWER(email))`)
		})

		older := newUser("carol@example.com")
		older.CreatedAt = older.CreatedAt.Add(-time.Hour)
		newer := newUser("Carol@example.com")
		Expect(repo.Create(ctx, older)).To(Succeed())
		Expect(repo.Create(ctx, newer)).To(Succeed())

		for range 3 {
			found, err := repo.FindByEmail(ctx, "carol@example.com")
			Expect(err).NotTo(HaveOccurred())
			Expect(found.ID).To(Equal(newer.ID))
		}
	})

	It("fails with a lookup error, not not-found, when the query is cancelled", func() {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := repo.FindByEmail(cancelled, "alice@example.com")
		Expect(err).To(HaveOccurred())
		Expect(err).NotTo(MatchError(auth.ErrNotFound))
	})
})
