package chat_test

import (
	"context"
	"errors"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/chatstream/pkg/chat"
	"github.com/papercomputeco/chatstream/pkg/decoder"
	"github.com/papercomputeco/chatstream/pkg/storage/inmemory"
)

// scriptedStreamer replays fixed events and then returns err.
type scriptedStreamer struct {
	events []decoder.Event
	err    error
	reqs   []chat.Request
}

func (s *scriptedStreamer) Stream(_ context.Context, req chat.Request, sink chat.Sink) error {
	s.reqs = append(s.reqs, req)
	for _, ev := range s.events {
		if err := sink(ev); err != nil {
			return err
		}
	}
	return s.err
}

type recordedCall struct {
	session chat.Session
	msgs    []chat.Message
}

type fakeRecorder struct {
	mu    sync.Mutex
	calls []recordedCall
	full  bool
}

func (r *fakeRecorder) Record(s chat.Session, msgs []chat.Message) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.full {
		return false
	}
	r.calls = append(r.calls, recordedCall{session: s, msgs: msgs})
	return true
}

var _ = Describe("Conversation", func() {
	var (
		ctx      context.Context
		streamer *scriptedStreamer
	)

	BeforeEach(func() {
		ctx = context.Background()
		streamer = &scriptedStreamer{
			events: []decoder.Event{decoder.Content("Hi "), decoder.Content("there"), decoder.Done()},
		}
	})

	Describe("Send", func() {
		It("streams the reply into the active session and records the pair", func() {
			rec := &fakeRecorder{}
			conv := chat.NewConversation(streamer, "echo", chat.WithRecorder(rec))

			var updates []string
			reply, err := conv.Send(ctx, "hello", func(m *chat.Message) {
				updates = append(updates, m.Content)
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(reply.Content).To(Equal("Hi there"))
			Expect(reply.Streaming).To(BeFalse())
			Expect(updates).To(Equal([]string{"", "Hi ", "Hi there", "Hi there"}))
			Expect(streamer.reqs).To(Equal([]chat.Request{{Message: "hello", Model: "echo", Stream: true}}))

			s, ok := conv.Active()
			Expect(ok).To(BeTrue())
			Expect(s.Title).To(Equal("hello"))
			Expect(s.Messages).To(HaveLen(2))
			Expect(s.Messages[0].Role).To(Equal(chat.RoleUser))
			Expect(s.Messages[1].Content).To(Equal("Hi there"))

			Expect(rec.calls).To(HaveLen(1))
			Expect(rec.calls[0].session.ID).To(Equal(s.ID))
			Expect(rec.calls[0].session.Messages).To(BeEmpty())
			Expect(rec.calls[0].msgs).To(HaveLen(2))
		})

		It("keeps partial content and records the failure", func() {
			streamer.events = []decoder.Event{decoder.Content("par")}
			streamer.err = errors.New("connection reset")
			rec := &fakeRecorder{}
			conv := chat.NewConversation(streamer, "echo", chat.WithRecorder(rec))

			reply, err := conv.Send(ctx, "hello", nil)
			Expect(err).To(MatchError("connection reset"))
			Expect(reply.Content).To(Equal("par"))
			Expect(reply.Error).To(Equal("connection reset"))
			Expect(rec.calls[0].msgs[1].Error).To(Equal("connection reset"))
		})

		It("survives a full recorder queue", func() {
			conv := chat.NewConversation(streamer, "echo", chat.WithRecorder(&fakeRecorder{full: true}))
			_, err := conv.Send(ctx, "hello", nil)
			Expect(err).NotTo(HaveOccurred())
		})

		It("writes to the store inline without a recorder", func() {
			store := inmemory.NewDriver()
			conv := chat.NewConversation(streamer, "echo", chat.WithStore(store))

			_, err := conv.Send(ctx, "hello", nil)
			Expect(err).NotTo(HaveOccurred())

			sessions, err := conv.Sessions(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(sessions).To(HaveLen(1))

			stored, err := store.GetSession(ctx, sessions[0].ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Messages).To(HaveLen(2))
		})
	})

	Describe("sessions", func() {
		var (
			store *inmemory.Driver
			conv  *chat.Conversation
		)

		BeforeEach(func() {
			store = inmemory.NewDriver()
			conv = chat.NewConversation(streamer, "echo", chat.WithStore(store))
		})

		It("opens a stored session with its model", func() {
			_, err := conv.Send(ctx, "first", nil)
			Expect(err).NotTo(HaveOccurred())
			first, _ := conv.Active()

			conv.NewSession("gpt-4o")
			Expect(conv.Model()).To(Equal("gpt-4o"))

			opened, err := conv.Open(ctx, first.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(opened.Messages).To(HaveLen(2))
			Expect(conv.Model()).To(Equal("echo"))
		})

		It("applies model changes to the active session", func() {
			conv.NewSession("")
			conv.SetModel("llama3.2")

			s, _ := conv.Active()
			Expect(s.Model).To(Equal("llama3.2"))

			_, err := conv.Send(ctx, "hi", nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(streamer.reqs[0].Model).To(Equal("llama3.2"))
		})

		It("clears the active session when it is deleted", func() {
			_, err := conv.Send(ctx, "bye", nil)
			Expect(err).NotTo(HaveOccurred())
			s, _ := conv.Active()

			Expect(conv.Delete(ctx, s.ID)).To(Succeed())
			_, ok := conv.Active()
			Expect(ok).To(BeFalse())

			sessions, err := conv.Sessions(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(sessions).To(BeEmpty())
		})

		It("reports missing sessions", func() {
			_, err := conv.Open(ctx, "missing")
			Expect(err).To(HaveOccurred())
		})
	})
})
