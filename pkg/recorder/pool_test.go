package recorder

import (
	"context"
	"errors"
	"fmt"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/chatstream/pkg/chat"
	"github.com/papercomputeco/chatstream/pkg/eventstream"
	"github.com/papercomputeco/chatstream/pkg/logger"
	"github.com/papercomputeco/chatstream/pkg/storage/inmemory"
)

// capturePublisher records every published event.
type capturePublisher struct {
	mu     sync.Mutex
	events []*eventstream.MessageFinalizedEvent
	err    error
}

func (c *capturePublisher) PublishMessage(_ context.Context, event *eventstream.MessageFinalizedEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.events = append(c.events, event)
	return nil
}

func (c *capturePublisher) Close() error { return nil }

func exchange(question, answer string) []chat.Message {
	user := chat.NewUserMessage(question, "echo")
	reply := chat.NewAssistantMessage("echo")
	reply.Content = answer
	reply.Streaming = false
	return []chat.Message{*user, *reply}
}

// newTestPool creates a worker pool backed by an in-memory driver.
// Callers should "wp.Close()" to drain enqueued jobs before asserting storage state.
func newTestPool(pub eventstream.Publisher) (*Pool, *inmemory.Driver) {
	driver := inmemory.NewDriver()

	wp, err := NewPool(&Config{
		Driver:    driver,
		Publisher: pub,
		Logger:    logger.Nop(),
	})
	Expect(err).NotTo(HaveOccurred())

	return wp, driver
}

var _ = Describe("Recorder Pool", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	It("requires a driver", func() {
		_, err := NewPool(&Config{})
		Expect(err).To(HaveOccurred())
	})

	Describe("Enqueue", func() {
		It("returns true when the queue has capacity", func() {
			wp, _ := newTestPool(nil)
			s := chat.NewSession("echo")
			Expect(wp.Enqueue(Job{Session: *s, Messages: exchange("q", "a")})).To(BeTrue())
			wp.Close()
		})

		It("drops jobs when the queue is full", func() {
			driver := inmemory.NewDriver()
			wp := &Pool{
				config: &Config{Driver: driver},
				queues: []chan Job{make(chan Job, 1)},
				logger: logger.Nop(),
			}

			s := chat.NewSession("echo")
			Expect(wp.Enqueue(Job{Session: *s})).To(BeTrue())
			Expect(wp.Enqueue(Job{Session: *s})).To(BeFalse())
		})

		It("drops jobs after Close", func() {
			wp, _ := newTestPool(nil)
			wp.Close()
			wp.Close()

			s := chat.NewSession("echo")
			Expect(wp.Record(*s, exchange("q", "a"))).To(BeFalse())
		})
	})

	Describe("storage", func() {
		It("stores a session and keeps exchanges in order", func() {
			wp, driver := newTestPool(nil)
			s := chat.NewSession("echo")
			s.Title = "first"

			for i := range 20 {
				Expect(wp.Record(*s, exchange(fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i)))).To(BeTrue())
			}
			wp.Close()

			stored, err := driver.GetSession(ctx, s.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Title).To(Equal("first"))
			Expect(stored.Messages).To(HaveLen(40))
			for i := range 20 {
				Expect(stored.Messages[2*i].Content).To(Equal(fmt.Sprintf("q%d", i)))
				Expect(stored.Messages[2*i+1].Content).To(Equal(fmt.Sprintf("a%d", i)))
			}
		})

		It("stores many sessions across workers", func() {
			wp, driver := newTestPool(nil)
			for range 10 {
				s := chat.NewSession("echo")
				Expect(wp.Record(*s, exchange("q", "a"))).To(BeTrue())
			}
			wp.Close()

			Expect(driver.Count()).To(Equal(10))
		})
	})

	Describe("publishing", func() {
		It("publishes one event per assistant reply", func() {
			pub := &capturePublisher{}
			wp, _ := newTestPool(pub)

			s := chat.NewSession("echo")
			msgs := exchange("question", "answer")
			Expect(wp.Record(*s, msgs)).To(BeTrue())
			wp.Close()

			Expect(pub.events).To(HaveLen(1))
			event := pub.events[0]
			Expect(event.SessionID).To(Equal(s.ID))
			Expect(event.Prompt).NotTo(BeNil())
			Expect(event.Prompt.Content).To(Equal("question"))
			Expect(event.Message.Content).To(Equal("answer"))
		})

		It("keeps stored history when publishing fails", func() {
			pub := &capturePublisher{err: errors.New("broker down")}
			wp, driver := newTestPool(pub)

			s := chat.NewSession("echo")
			Expect(wp.Record(*s, exchange("q", "a"))).To(BeTrue())
			wp.Close()

			stored, err := driver.GetSession(ctx, s.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Messages).To(HaveLen(2))
		})
	})
})
