package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/chatstream/pkg/logger"
)

// decodeJSONLine parses a single JSON log record.
func decodeJSONLine(buf *bytes.Buffer) map[string]any {
	var parsed map[string]any
	Expect(json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &parsed)).To(Succeed())
	return parsed
}

var _ = Describe("Logger", func() {
	Describe("New", func() {
		It("writes text records with attributes", func() {
			var buf bytes.Buffer
			l := logger.New(logger.WithWriter(&buf))
			l.Info("stream started", "model", "gpt-4o")

			Expect(buf.String()).To(ContainSubstring("stream started"))
			Expect(buf.String()).To(ContainSubstring("model=gpt-4o"))
		})

		It("filters debug records unless debug is enabled", func() {
			var quiet, loud bytes.Buffer
			logger.New(logger.WithWriter(&quiet)).Debug("hidden")
			logger.New(logger.WithWriter(&loud), logger.WithDebug(true)).Debug("shown")

			Expect(quiet.String()).To(BeEmpty())
			Expect(loud.String()).To(ContainSubstring("shown"))
		})

		It("writes JSON records", func() {
			var buf bytes.Buffer
			l := logger.New(logger.WithWriter(&buf), logger.WithJSON(true))
			l.Info("message finalized", "warnings", 2)

			parsed := decodeJSONLine(&buf)
			Expect(parsed["msg"]).To(Equal("message finalized"))
			Expect(parsed["warnings"]).To(BeNumerically("==", 2))
		})

		It("writes pretty records", func() {
			var buf bytes.Buffer
			l := logger.New(logger.WithWriter(&buf), logger.WithPretty(true))
			l.Warn("unparsed line", "raw", "{oops")

			Expect(buf.String()).To(ContainSubstring("unparsed line"))
		})

		It("writes to every writer", func() {
			var a, b bytes.Buffer
			logger.New(logger.WithWriters(&a, &b)).Info("fanout")

			Expect(a.String()).To(ContainSubstring("fanout"))
			Expect(b.String()).To(ContainSubstring("fanout"))
		})

		It("keeps bound attributes and groups", func() {
			var buf bytes.Buffer
			l := logger.New(logger.WithWriter(&buf), logger.WithJSON(true))
			l.With("component", "decoder").WithGroup("line").Info("warning", "offset", 12)

			parsed := decodeJSONLine(&buf)
			Expect(parsed["component"]).To(Equal("decoder"))
			group, ok := parsed["line"].(map[string]any)
			Expect(ok).To(BeTrue())
			Expect(group["offset"]).To(BeNumerically("==", 12))
		})
	})

	Describe("Nop", func() {
		It("discards all output", func() {
			l := logger.Nop()
			Expect(l.Handler().Enabled(context.Background(), slog.LevelError)).To(BeFalse())
			Expect(func() { l.With("k", "v").Info("msg") }).NotTo(Panic())
		})
	})

	Describe("Multi", func() {
		It("dispatches to all loggers", func() {
			var text, structured bytes.Buffer
			multi := logger.Multi(
				logger.New(logger.WithWriter(&text)),
				logger.New(logger.WithWriter(&structured), logger.WithJSON(true)),
			)
			multi.With("session_id", "s1").Info("broadcast")

			Expect(text.String()).To(ContainSubstring("broadcast"))
			Expect(decodeJSONLine(&structured)["session_id"]).To(Equal("s1"))
		})

		It("is enabled when any logger is", func() {
			multi := logger.Multi(logger.Nop(), logger.New(logger.WithDebug(true), logger.WithWriter(&bytes.Buffer{})))
			Expect(multi.Handler().Enabled(context.Background(), slog.LevelDebug)).To(BeTrue())
		})
	})
})
