package files_test

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/x402punks/punk-pinner/internal/files"
)

var _ = Describe("enumerator", func() {
	var dir string

	touch := func(name string) {
		Expect(os.WriteFile(filepath.Join(dir, name), []byte(name), 0o600)).To(Succeed())
	}

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
	})

	Context("CheckDirectory", func() {
		It("fails when the directory does not exist", func() {
			err := files.CheckDirectory(filepath.Join(dir, "missing"))
			Expect(err).ToNot(BeNil())

			var notFound *files.ErrDirectoryNotFound
			Expect(errors.As(err, &notFound)).To(BeTrue())
		})

		It("fails when the path is a regular file", func() {
			touch("a.png")
			err := files.CheckDirectory(filepath.Join(dir, "a.png"))

			var notFound *files.ErrDirectoryNotFound
			Expect(errors.As(err, &notFound)).To(BeTrue())
		})

		It("accepts a directory", func() {
			Expect(files.CheckDirectory(dir)).To(Succeed())
		})
	})

	Context("List", func() {
		It("returns an empty list for an empty directory", func() {
			paths, err := files.List(dir, files.Options{})
			Expect(err).To(BeNil())
			Expect(paths).To(BeEmpty())
		})

		It("lists regular files sorted by name and skips subdirectories", func() {
			touch("c.png")
			touch("a.png")
			touch("b.png")
			Expect(os.Mkdir(filepath.Join(dir, "nested"), 0o700)).To(Succeed())
			Expect(os.WriteFile(filepath.Join(dir, "nested", "d.png"), []byte("d"), 0o600)).To(Succeed())

			paths, err := files.List(dir, files.Options{})
			Expect(err).To(BeNil())
			Expect(paths).To(Equal([]string{
				filepath.Join(dir, "a.png"),
				filepath.Join(dir, "b.png"),
				filepath.Join(dir, "c.png"),
			}))
		})

		It("enumerates identically across runs", func() {
			for i := 0; i < 20; i++ {
				touch(fmt.Sprintf("x402Punk_%d.png", i))
			}
			first, err := files.List(dir, files.Options{})
			Expect(err).To(BeNil())
			second, err := files.List(dir, files.Options{})
			Expect(err).To(BeNil())
			Expect(second).To(Equal(first))
		})

		It("applies pattern, exclude, skip and limit", func() {
			for i := 0; i < 5; i++ {
				touch(fmt.Sprintf("x402Punk_%d.png", i))
			}
			touch("metadata.json")
			touch("other.png")

			paths, err := files.List(dir, files.Options{Pattern: "x402Punk_*.png", Skip: 1, Limit: 2})
			Expect(err).To(BeNil())
			Expect(paths).To(Equal([]string{
				filepath.Join(dir, "x402Punk_1.png"),
				filepath.Join(dir, "x402Punk_2.png"),
			}))

			paths, err = files.List(dir, files.Options{Exclude: []string{"metadata.json"}})
			Expect(err).To(BeNil())
			Expect(paths).To(HaveLen(6))
			Expect(paths).ToNot(ContainElement(filepath.Join(dir, "metadata.json")))
		})

		It("returns nothing when skip is larger than the listing", func() {
			touch("a.png")
			paths, err := files.List(dir, files.Options{Skip: 3})
			Expect(err).To(BeNil())
			Expect(paths).To(BeEmpty())
		})

		It("fails on a missing directory", func() {
			_, err := files.List(filepath.Join(dir, "missing"), files.Options{})

			var notFound *files.ErrDirectoryNotFound
			Expect(errors.As(err, &notFound)).To(BeTrue())
		})

		It("rejects a malformed pattern", func() {
			_, err := files.List(dir, files.Options{Pattern: "["})
			Expect(err).ToNot(BeNil())
		})
	})
})
