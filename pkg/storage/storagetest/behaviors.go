// Package storagetest holds the Ginkgo behaviors every storage.Driver must
// satisfy. Driver test suites call DescribeDriver with a constructor.
package storagetest

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/chatstream/pkg/chat"
	"github.com/papercomputeco/chatstream/pkg/storage"
)

// NewSession returns a session header with a fixed model and timestamps at
// microsecond precision, which every backend round-trips.
func NewSession(title string, updated time.Time) *chat.Session {
	s := chat.NewSession("echo")
	s.Title = title
	s.CreatedAt = updated.Truncate(time.Microsecond).UTC()
	s.UpdatedAt = s.CreatedAt
	return s
}

// NewMessage returns a finalized message.
func NewMessage(role chat.Role, content string) chat.Message {
	m := chat.NewAssistantMessage("echo")
	m.Role = role
	m.Content = content
	m.Streaming = false
	m.StartedAt = m.StartedAt.Truncate(time.Microsecond).UTC()
	m.Duration = 1500 * time.Millisecond
	return *m
}

// DescribeDriver registers the shared driver specs. newDriver is called
// before each test; the returned driver is closed after it.
func DescribeDriver(newDriver func() storage.Driver) {
	var (
		driver storage.Driver
		ctx    context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		driver = newDriver()
	})

	AfterEach(func() {
		if driver != nil {
			Expect(driver.Close()).To(Succeed())
		}
	})

	Describe("SaveSession and GetSession", func() {
		It("stores and retrieves a session header", func() {
			s := NewSession("hello", time.Now())
			Expect(driver.SaveSession(ctx, s)).To(Succeed())

			got, err := driver.GetSession(ctx, s.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.ID).To(Equal(s.ID))
			Expect(got.Title).To(Equal("hello"))
			Expect(got.Model).To(Equal("echo"))
			Expect(got.CreatedAt).To(BeTemporally("==", s.CreatedAt))
			Expect(got.Messages).To(BeEmpty())
		})

		It("updates title and model on save", func() {
			s := NewSession("", time.Now())
			Expect(driver.SaveSession(ctx, s)).To(Succeed())

			s.Title = "renamed"
			s.Model = "gpt-4o"
			Expect(driver.SaveSession(ctx, s)).To(Succeed())

			got, err := driver.GetSession(ctx, s.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Title).To(Equal("renamed"))
			Expect(got.Model).To(Equal("gpt-4o"))
		})

		It("returns NotFoundError for unknown sessions", func() {
			_, err := driver.GetSession(ctx, "missing")
			var notFound storage.NotFoundError
			Expect(errors.As(err, &notFound)).To(BeTrue())
			Expect(notFound.ID).To(Equal("missing"))
		})

		It("rejects nil sessions", func() {
			Expect(driver.SaveSession(ctx, nil)).NotTo(Succeed())
		})
	})

	Describe("AppendMessages", func() {
		It("keeps messages in append order", func() {
			s := NewSession("order", time.Now())
			Expect(driver.SaveSession(ctx, s)).To(Succeed())

			first := NewMessage(chat.RoleUser, "question")
			second := NewMessage(chat.RoleAssistant, "answer")
			second.Warnings = 2
			second.Error = "connection reset"
			third := NewMessage(chat.RoleUser, "follow up")

			Expect(driver.AppendMessages(ctx, s.ID, first, second)).To(Succeed())
			Expect(driver.AppendMessages(ctx, s.ID, third)).To(Succeed())

			got, err := driver.GetSession(ctx, s.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Messages).To(HaveLen(3))
			Expect(got.Messages[0].Content).To(Equal("question"))
			Expect(got.Messages[1].Role).To(Equal(chat.RoleAssistant))
			Expect(got.Messages[1].Warnings).To(Equal(2))
			Expect(got.Messages[1].Error).To(Equal("connection reset"))
			Expect(got.Messages[1].Duration).To(Equal(1500 * time.Millisecond))
			Expect(got.Messages[1].StartedAt).To(BeTemporally("==", second.StartedAt))
			Expect(got.Messages[2].Content).To(Equal("follow up"))
		})

		It("skips messages that are already stored", func() {
			s := NewSession("dedupe", time.Now())
			Expect(driver.SaveSession(ctx, s)).To(Succeed())

			m := NewMessage(chat.RoleUser, "once")
			Expect(driver.AppendMessages(ctx, s.ID, m)).To(Succeed())
			Expect(driver.AppendMessages(ctx, s.ID, m)).To(Succeed())

			got, err := driver.GetSession(ctx, s.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Messages).To(HaveLen(1))
		})

		It("fails for unknown sessions", func() {
			err := driver.AppendMessages(ctx, "missing", NewMessage(chat.RoleUser, "x"))
			Expect(errors.As(err, &storage.NotFoundError{})).To(BeTrue())
		})
	})

	Describe("ListSessions", func() {
		It("lists the most recently updated first without messages", func() {
			now := time.Now()
			older := NewSession("older", now.Add(-time.Hour))
			newer := NewSession("newer", now)
			Expect(driver.SaveSession(ctx, older)).To(Succeed())
			Expect(driver.SaveSession(ctx, newer)).To(Succeed())
			Expect(driver.AppendMessages(ctx, older.ID, NewMessage(chat.RoleUser, "x"))).To(Succeed())

			sessions, err := driver.ListSessions(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(sessions).To(HaveLen(2))
			Expect(sessions[0].Title).To(Equal("newer"))
			Expect(sessions[1].Title).To(Equal("older"))
			Expect(sessions[1].Messages).To(BeEmpty())
		})

		It("returns nothing for an empty store", func() {
			sessions, err := driver.ListSessions(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(sessions).To(BeEmpty())
		})
	})

	Describe("DeleteSession", func() {
		It("removes the session and its messages", func() {
			s := NewSession("gone", time.Now())
			Expect(driver.SaveSession(ctx, s)).To(Succeed())
			Expect(driver.AppendMessages(ctx, s.ID, NewMessage(chat.RoleUser, "x"))).To(Succeed())

			Expect(driver.DeleteSession(ctx, s.ID)).To(Succeed())

			_, err := driver.GetSession(ctx, s.ID)
			Expect(errors.As(err, &storage.NotFoundError{})).To(BeTrue())
		})

		It("returns NotFoundError for unknown sessions", func() {
			err := driver.DeleteSession(ctx, "missing")
			Expect(errors.As(err, &storage.NotFoundError{})).To(BeTrue())
		})
	})
}
