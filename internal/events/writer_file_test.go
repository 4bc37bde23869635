package events

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("file writer", func() {
	It("appends one event per line", func() {
		path := filepath.Join(GinkgoT().TempDir(), "events.jsonl")

		w, err := NewFileWriter(path)
		Expect(err).To(BeNil())
		p := NewEventProducer(w)
		Expect(p.Publish(context.TODO(), JobCreatedKind, JobEvent{JobID: "7", Status: "pending"})).To(Succeed())
		Expect(p.Publish(context.TODO(), JobCompletedKind, JobEvent{JobID: "7", Status: "completed", Total: 2, Completed: 2})).To(Succeed())
		Expect(p.Close()).To(Succeed())

		f, err := os.Open(path)
		Expect(err).To(BeNil())
		defer f.Close()

		var events []cloudevents.Event
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			var e cloudevents.Event
			Expect(json.Unmarshal(scanner.Bytes(), &e)).To(Succeed())
			events = append(events, e)
		}
		Expect(scanner.Err()).To(BeNil())

		Expect(events).To(HaveLen(2))
		Expect(events[0].Type()).To(Equal(JobCreatedKind))
		Expect(events[1].Type()).To(Equal(JobCompletedKind))
		Expect(events[1].Extensions()).To(HaveKeyWithValue("topic", defaultTopic))

		var payload JobEvent
		Expect(json.Unmarshal(events[1].Data(), &payload)).To(Succeed())
		Expect(payload.Completed).To(Equal(2))
	})

	It("fails on an unwritable path", func() {
		_, err := NewFileWriter(filepath.Join(GinkgoT().TempDir(), "missing", "events.jsonl"))
		Expect(err).ToNot(BeNil())
	})
})
