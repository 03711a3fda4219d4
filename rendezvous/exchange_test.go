package rendezvous_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/wozlab/humanchat/pkg/oai"
	"github.com/wozlab/humanchat/rendezvous"
)

func conversation(n int) []oai.Message {
	msgs := make([]oai.Message, n)
	for i := range msgs {
		msgs[i] = oai.Message{Role: oai.RoleUser, Content: "hi"}
	}
	return msgs
}

var _ = Describe("Exchange", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	Describe("Begin and Await", func() {
		It("returns the resolved answer", func() {
			ex := rendezvous.New(rendezvous.PolicyReject, 1)
			pending, handle, err := ex.Begin(ctx, conversation(1))
			Expect(err).NotTo(HaveOccurred())

			handle.Resolve("hello there")

			answer, err := pending.Await(ctx, time.Second)
			Expect(err).NotTo(HaveOccurred())
			Expect(answer).To(Equal("hello there"))
		})

		It("gives pending and handle the same request id", func() {
			ex := rendezvous.New(rendezvous.PolicyReject, 1)
			pending, handle, err := ex.Begin(ctx, conversation(1))
			Expect(err).NotTo(HaveOccurred())
			Expect(handle.ID()).To(Equal(pending.ID()))
			Expect(pending.ID()).NotTo(BeEmpty())

			handle.Resolve("ok")
			_, err = pending.Await(ctx, time.Second)
			Expect(err).NotTo(HaveOccurred())
		})

		It("keeps the first answer when resolved twice", func() {
			ex := rendezvous.New(rendezvous.PolicyReject, 1)
			pending, handle, err := ex.Begin(ctx, conversation(1))
			Expect(err).NotTo(HaveOccurred())

			handle.Resolve("first")
			handle.Resolve("second")

			answer, err := pending.Await(ctx, time.Second)
			Expect(err).NotTo(HaveOccurred())
			Expect(answer).To(Equal("first"))
		})

		It("times out when no answer arrives", func() {
			ex := rendezvous.New(rendezvous.PolicyReject, 1)
			pending, _, err := ex.Begin(ctx, conversation(1))
			Expect(err).NotTo(HaveOccurred())

			_, err = pending.Await(ctx, 10*time.Millisecond)
			Expect(err).To(MatchError(rendezvous.ErrAnswerTimeout))
		})

		It("ignores a resolve that arrives after the timeout", func() {
			ex := rendezvous.New(rendezvous.PolicyReject, 1)
			pending, handle, err := ex.Begin(ctx, conversation(1))
			Expect(err).NotTo(HaveOccurred())

			_, err = pending.Await(ctx, 10*time.Millisecond)
			Expect(err).To(MatchError(rendezvous.ErrAnswerTimeout))

			// Stale resolve against the sealed cell.
			handle.Resolve("too late")

			// A fresh request in the freed slot is unaffected by it.
			pending2, handle2, err := ex.Begin(ctx, conversation(1))
			Expect(err).NotTo(HaveOccurred())
			handle2.Resolve("on time")

			answer, err := pending2.Await(ctx, time.Second)
			Expect(err).NotTo(HaveOccurred())
			Expect(answer).To(Equal("on time"))
		})

		It("returns the context error when the caller disconnects", func() {
			ex := rendezvous.New(rendezvous.PolicyReject, 1)
			cancellable, cancel := context.WithCancel(ctx)
			pending, handle, err := ex.Begin(cancellable, conversation(1))
			Expect(err).NotTo(HaveOccurred())

			cancel()
			_, err = pending.Await(cancellable, time.Second)
			Expect(err).To(MatchError(context.Canceled))

			// The cell is sealed; a later resolve is a no-op.
			handle.Resolve("nobody listening")
		})
	})

	Describe("PolicyReject", func() {
		It("fails a second request while one is in flight", func() {
			ex := rendezvous.New(rendezvous.PolicyReject, 1)
			pending, handle, err := ex.Begin(ctx, conversation(1))
			Expect(err).NotTo(HaveOccurred())

			_, _, err = ex.Begin(ctx, conversation(1))
			Expect(err).To(MatchError(rendezvous.ErrBusy))

			handle.Resolve("done")
			_, err = pending.Await(ctx, time.Second)
			Expect(err).NotTo(HaveOccurred())

			// The slot is free again.
			_, handle2, err := ex.Begin(ctx, conversation(1))
			Expect(err).NotTo(HaveOccurred())
			Expect(handle2).NotTo(BeNil())
		})

		It("admits up to the in-flight limit", func() {
			ex := rendezvous.New(rendezvous.PolicyReject, 2)
			_, _, err := ex.Begin(ctx, conversation(1))
			Expect(err).NotTo(HaveOccurred())
			_, _, err = ex.Begin(ctx, conversation(1))
			Expect(err).NotTo(HaveOccurred())

			_, _, err = ex.Begin(ctx, conversation(1))
			Expect(err).To(MatchError(rendezvous.ErrBusy))
		})
	})

	Describe("PolicyQueue", func() {
		It("admits a waiting request once the slot frees", func() {
			ex := rendezvous.New(rendezvous.PolicyQueue, 1)
			pending1, handle1, err := ex.Begin(ctx, conversation(1))
			Expect(err).NotTo(HaveOccurred())

			admitted := make(chan string, 1)
			go func() {
				defer GinkgoRecover()
				pending2, handle2, err := ex.Begin(ctx, conversation(1))
				Expect(err).NotTo(HaveOccurred())
				handle2.Resolve("queued answer")
				answer, err := pending2.Await(ctx, time.Second)
				Expect(err).NotTo(HaveOccurred())
				admitted <- answer
			}()

			// The second request cannot be admitted before the first ends.
			Consistently(admitted, 50*time.Millisecond).ShouldNot(Receive())

			handle1.Resolve("first answer")
			_, err = pending1.Await(ctx, time.Second)
			Expect(err).NotTo(HaveOccurred())

			Eventually(admitted, time.Second).Should(Receive(Equal("queued answer")))
		})

		It("stops waiting when the caller's context is cancelled", func() {
			ex := rendezvous.New(rendezvous.PolicyQueue, 1)
			_, _, err := ex.Begin(ctx, conversation(1))
			Expect(err).NotTo(HaveOccurred())

			cancellable, cancel := context.WithCancel(ctx)
			errs := make(chan error, 1)
			go func() {
				_, _, err := ex.Begin(cancellable, conversation(1))
				errs <- err
			}()

			cancel()
			Eventually(errs, time.Second).Should(Receive(MatchError(context.Canceled)))
		})
	})

	Describe("PolicyReplace", func() {
		It("supersedes the oldest pending request", func() {
			ex := rendezvous.New(rendezvous.PolicyReplace, 1)
			pending1, _, err := ex.Begin(ctx, conversation(1))
			Expect(err).NotTo(HaveOccurred())

			firstErr := make(chan error, 1)
			go func() {
				_, err := pending1.Await(ctx, time.Second)
				firstErr <- err
			}()

			pending2, handle2, err := ex.Begin(ctx, conversation(2))
			Expect(err).NotTo(HaveOccurred())
			Eventually(firstErr, time.Second).Should(Receive(MatchError(rendezvous.ErrSuperseded)))

			handle2.Resolve("newer answer")
			answer, err := pending2.Await(ctx, time.Second)
			Expect(err).NotTo(HaveOccurred())
			Expect(answer).To(Equal("newer answer"))
		})
	})

	Describe("Snapshot", func() {
		It("lists pending requests oldest first and empties after release", func() {
			ex := rendezvous.New(rendezvous.PolicyReject, 2)
			pending1, handle1, err := ex.Begin(ctx, conversation(3))
			Expect(err).NotTo(HaveOccurred())
			pending2, handle2, err := ex.Begin(ctx, conversation(5))
			Expect(err).NotTo(HaveOccurred())

			infos := ex.Snapshot()
			Expect(infos).To(HaveLen(2))
			Expect(infos[0].ID).To(Equal(pending1.ID()))
			Expect(infos[0].Messages).To(Equal(3))
			Expect(infos[1].ID).To(Equal(pending2.ID()))
			Expect(infos[1].Messages).To(Equal(5))

			handle1.Resolve("a")
			handle2.Resolve("b")
			_, err = pending1.Await(ctx, time.Second)
			Expect(err).NotTo(HaveOccurred())
			_, err = pending2.Await(ctx, time.Second)
			Expect(err).NotTo(HaveOccurred())

			Expect(ex.Snapshot()).To(BeEmpty())
		})
	})

	Describe("SetPolicy", func() {
		It("applies the new policy to subsequent requests", func() {
			ex := rendezvous.New(rendezvous.PolicyReject, 1)
			pending1, _, err := ex.Begin(ctx, conversation(1))
			Expect(err).NotTo(HaveOccurred())

			_, _, err = ex.Begin(ctx, conversation(1))
			Expect(err).To(MatchError(rendezvous.ErrBusy))

			ex.SetPolicy(rendezvous.PolicyReplace)

			firstErr := make(chan error, 1)
			go func() {
				_, err := pending1.Await(ctx, time.Second)
				firstErr <- err
			}()

			_, handle2, err := ex.Begin(ctx, conversation(1))
			Expect(err).NotTo(HaveOccurred())
			Expect(handle2).NotTo(BeNil())
			Eventually(firstErr, time.Second).Should(Receive(MatchError(rendezvous.ErrSuperseded)))
		})
	})

	Describe("ParsePolicy", func() {
		It("accepts the three known policies", func() {
			for _, s := range []string{"reject", "queue", "replace"} {
				p, err := rendezvous.ParsePolicy(s)
				Expect(err).NotTo(HaveOccurred())
				Expect(string(p)).To(Equal(s))
			}
		})

		It("rejects anything else", func() {
			_, err := rendezvous.ParsePolicy("drop")
			Expect(err).To(HaveOccurred())
		})
	})
})

var _ = Describe("Handle", func() {
	It("tolerates nil receivers", func() {
		var h *rendezvous.Handle
		Expect(h.ID()).To(BeEmpty())
		h.Resolve("ignored")
	})
})
