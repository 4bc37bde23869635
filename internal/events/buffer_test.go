package events

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("buffer", func() {
	It("keeps messages in insertion order", func() {
		buffer := newBuffer()

		Expect(buffer.PushBack(&message{Kind: JobCreatedKind, Data: []byte("msg1")})).To(Equal(1))
		Expect(buffer.PushBack(&message{Kind: JobRunningKind, Data: []byte("msg2")})).To(Equal(2))
		Expect(buffer.PushBack(&message{Kind: JobCompletedKind, Data: []byte("msg3")})).To(Equal(3))

		Expect(buffer.head.Data).To(Equal([]byte("msg1")))
		Expect(buffer.tail.Data).To(Equal([]byte("msg3")))
	})

	It("pops until empty", func() {
		buffer := newBuffer()
		buffer.PushBack(&message{Kind: JobCreatedKind, Data: []byte("msg1")})
		buffer.PushBack(&message{Kind: JobCreatedKind, Data: []byte("msg2")})

		m := buffer.Pop()
		Expect(m).NotTo(BeNil())
		Expect(m.Data).To(Equal([]byte("msg1")))
		Expect(buffer.Size()).To(Equal(1))

		m = buffer.Pop()
		Expect(m.Data).To(Equal([]byte("msg2")))
		Expect(buffer.Size()).To(Equal(0))
		Expect(buffer.head).To(BeNil())
		Expect(buffer.tail).To(BeNil())

		Expect(buffer.Pop()).To(BeNil())

		// the buffer is reusable once drained
		buffer.PushBack(&message{Kind: JobFailedKind, Data: []byte("msg3")})
		Expect(buffer.Pop().Data).To(Equal([]byte("msg3")))
	})
})
