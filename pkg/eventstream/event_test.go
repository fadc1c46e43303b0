package eventstream_test

import (
	"encoding/json"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/chatstream/pkg/chat"
	"github.com/papercomputeco/chatstream/pkg/decoder"
	"github.com/papercomputeco/chatstream/pkg/eventstream"
)

var _ = Describe("Event", func() {
	It("marshals MessageFinalizedEvent with expected top-level keys", func() {
		prompt := chat.NewUserMessage("hello", "echo")
		reply := chat.NewAssistantMessage("echo")
		reply.Apply(decoder.Content("hi"))
		reply.Apply(decoder.Done())

		event := eventstream.NewMessageFinalizedEvent("sess-1", prompt, *reply)

		payload, err := json.Marshal(event)
		Expect(err).NotTo(HaveOccurred())

		var got map[string]any
		Expect(json.Unmarshal(payload, &got)).To(Succeed())

		Expect(got).To(HaveKey("schema_version"))
		Expect(got).To(HaveKey("event_type"))
		Expect(got).To(HaveKey("event_id"))
		Expect(got).To(HaveKey("emitted_at"))
		Expect(got).To(HaveKeyWithValue("session_id", "sess-1"))
		Expect(got).To(HaveKey("request_meta"))
		Expect(got).To(HaveKey("prompt"))
		Expect(got).To(HaveKey("message"))
	})

	It("copies the stream outcome into request meta", func() {
		reply := chat.NewAssistantMessage("gpt-4o")
		reply.Apply(decoder.ParseWarning("junk"))
		reply.Fail(errors.New("connection reset"))
		reply.Duration = 1500 * time.Millisecond

		event := eventstream.NewMessageFinalizedEvent("sess-1", nil, *reply)
		Expect(event.EventType).To(Equal(eventstream.EventTypeMessageFinalized))
		Expect(event.RequestMeta.Model).To(Equal("gpt-4o"))
		Expect(event.RequestMeta.DurationMs).To(Equal(int64(1500)))
		Expect(event.RequestMeta.CompletedAt).To(Equal(reply.StartedAt.Add(1500 * time.Millisecond)))
		Expect(event.RequestMeta.Warnings).To(Equal(1))
		Expect(event.RequestMeta.Error).To(Equal("connection reset"))
		Expect(event.Prompt).To(BeNil())
	})

	It("defines stable event constants", func() {
		Expect(eventstream.SchemaVersionV1).To(BeNumerically(">", 0))
		Expect(eventstream.EventTypeMessageFinalized).To(Equal("chatstream.message.finalized"))
	})

	It("provides ErrNilEvent for nil payload validation", func() {
		Expect(eventstream.ErrNilEvent).To(MatchError("nil message event"))
	})
})
