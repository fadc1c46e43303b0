package modelscmder_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	modelscmder "github.com/papercomputeco/chatstream/cmd/chatstream/models"
	"github.com/papercomputeco/chatstream/pkg/chat"
)

var _ = Describe("models command", func() {
	var (
		dir string
		out *bytes.Buffer
	)

	run := func(args ...string) error {
		cmd := modelscmder.NewModelsCmd()
		cmd.Flags().String("config-dir", "", "")
		cmd.SetOut(out)
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs(append([]string{"--config-dir", dir}, args...))
		return cmd.Execute()
	}

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		out = &bytes.Buffer{}
	})

	It("lists the default catalog", func() {
		Expect(run()).To(Succeed())
		Expect(out.String()).To(ContainSubstring("gpt-4o-mini"))
		Expect(out.String()).To(ContainSubstring("llama3.2"))
	})

	It("lists models from config.toml", func() {
		toml := "[client]\nmodel = \"mistral\"\n\n[[models]]\nid = \"mistral\"\nname = \"Mistral 7B\"\n"
		Expect(os.WriteFile(filepath.Join(dir, "config.toml"), []byte(toml), 0o600)).To(Succeed())

		Expect(run("--json")).To(Succeed())

		var models []chat.Model
		Expect(json.Unmarshal(out.Bytes(), &models)).To(Succeed())
		Expect(models).To(Equal([]chat.Model{{ID: "mistral", Name: "Mistral 7B"}}))
	})

	It("fetches the server catalog with --remote", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/models" {
				http.NotFound(w, r)
				return
			}
			_ = json.NewEncoder(w).Encode([]chat.Model{{ID: "remote-1", Name: "Remote"}})
		}))
		defer server.Close()

		Expect(run("--remote", "--target", server.URL)).To(Succeed())
		Expect(out.String()).To(ContainSubstring("remote-1"))
		Expect(out.String()).NotTo(ContainSubstring("gpt-4o-mini"))
	})

	It("reports unreachable servers", func() {
		server := httptest.NewServer(http.NotFoundHandler())
		server.Close()

		Expect(run("--remote", "--target", server.URL)).To(HaveOccurred())
	})
})
