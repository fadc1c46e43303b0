package chatcmder_test

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	chatcmder "github.com/papercomputeco/chatstream/cmd/chatstream/chat"
)

var _ = Describe("NewChatCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := chatcmder.NewChatCmd()
		Expect(cmd.Use).To(Equal("chat"))
	})

	It("has the --model flag from the registry", func() {
		cmd := chatcmder.NewChatCmd()
		flag := cmd.Flags().Lookup("model")
		Expect(flag).NotTo(BeNil())
		Expect(flag.Shorthand).To(Equal("m"))
	})

	It("has --render and --new flags", func() {
		cmd := chatcmder.NewChatCmd()
		Expect(cmd.Flags().Lookup("render")).NotTo(BeNil())
		Expect(cmd.Flags().Lookup("new")).NotTo(BeNil())
	})
})

var _ = Describe("Chat session", func() {
	var (
		server *httptest.Server
		dir    string
	)

	BeforeEach(func() {
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.Copy(io.Discard, r.Body)
			_, _ = io.WriteString(w, "data: {\"choices\":[{\"delta\":{\"content\":\"Hello\"}}]}\n\n"+
				"data: not json\n\n"+
				"data: {\"choices\":[{\"delta\":{\"content\":\" world\"}}]}\n\n"+
				"data: [DONE]\n\n")
		}))
		DeferCleanup(server.Close)
		dir = GinkgoT().TempDir()
	})

	run := func(input string, args ...string) string {
		out := &bytes.Buffer{}
		cmd := chatcmder.NewChatCmd()
		cmd.Flags().String("config-dir", "", "")
		cmd.SetIn(strings.NewReader(input))
		cmd.SetOut(out)
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs(append([]string{"--config-dir", dir, "--target", server.URL, "--storage", "sqlite"}, args...))
		Expect(cmd.Execute()).To(Succeed())
		return out.String()
	}

	It("streams replies and reports skipped lines", func() {
		out := run("hi\n/exit\n")
		Expect(out).To(ContainSubstring("New conversation"))
		Expect(out).To(ContainSubstring("Hello world"))
		Expect(out).To(ContainSubstring("1 malformed line(s) skipped"))
	})

	It("switches models from the catalog", func() {
		out := run("/model echo\n/model nope\n")
		Expect(out).To(ContainSubstring("Model:"))
		Expect(out).To(ContainSubstring(`unknown model "nope"`))
	})

	It("reports unknown commands without exiting", func() {
		out := run("/bogus\nhi\n")
		Expect(out).To(ContainSubstring("unknown command /bogus"))
		Expect(out).To(ContainSubstring("Hello world"))
	})

	It("resumes the previous session", func() {
		run("hi\n")
		out := run("/exit\n")
		Expect(out).To(ContainSubstring("Resuming"))
		Expect(out).To(ContainSubstring("(2 messages)"))
	})

	It("starts fresh with --new", func() {
		run("hi\n")
		out := run("/exit\n", "--new")
		Expect(out).NotTo(ContainSubstring("Resuming"))
		Expect(out).To(ContainSubstring("New conversation"))
	})
})
