package pipeline_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/oooop/timing/pipeline"
)

var _ = Describe("TagPool", func() {
	var pool *pipeline.TagPool

	BeforeEach(func() {
		pool = pipeline.NewTagPool(4)
	})

	It("should start with every tag free", func() {
		Expect(pool.Size()).To(Equal(4))
		Expect(pool.Free()).To(Equal(4))
		Expect(pool.InFlight()).To(Equal(0))
	})

	It("should allocate tags in order", func() {
		for i := 0; i < 4; i++ {
			tag, ok := pool.TryAllocate()
			Expect(ok).To(BeTrue())
			Expect(tag).To(Equal(i))
		}
		Expect(pool.Available()).To(BeFalse())
	})

	It("should report exhaustion as backpressure from TryAllocate", func() {
		for i := 0; i < 4; i++ {
			pool.TryAllocate()
		}

		_, ok := pool.TryAllocate()
		Expect(ok).To(BeFalse())
	})

	It("should report exhaustion as a protocol violation from Allocate", func() {
		for i := 0; i < 4; i++ {
			_, err := pool.Allocate()
			Expect(err).NotTo(HaveOccurred())
		}

		_, err := pool.Allocate()
		Expect(err).To(MatchError(pipeline.ErrProtocolViolation))
	})

	It("should reuse released tags last", func() {
		a, _ := pool.TryAllocate()
		Expect(pool.Release(a)).To(Succeed())

		seen := []int{}
		for i := 0; i < 4; i++ {
			tag, _ := pool.TryAllocate()
			seen = append(seen, tag)
		}
		Expect(seen).To(Equal([]int{1, 2, 3, 0}))
	})

	It("should reject a double release", func() {
		tag, _ := pool.TryAllocate()
		Expect(pool.Release(tag)).To(Succeed())
		Expect(pool.Release(tag)).To(MatchError(pipeline.ErrProtocolViolation))
	})

	It("should reject releasing an unknown tag", func() {
		Expect(pool.Release(7)).To(MatchError(pipeline.ErrProtocolViolation))
		Expect(pool.Release(-1)).To(MatchError(pipeline.ErrProtocolViolation))
	})

	It("should never hand out an in-flight tag", func() {
		live := map[int]bool{}
		for round := 0; round < 50; round++ {
			if tag, ok := pool.TryAllocate(); ok {
				Expect(live[tag]).To(BeFalse())
				live[tag] = true
			}
			if round%3 == 2 {
				for tag := range live {
					Expect(pool.Release(tag)).To(Succeed())
					delete(live, tag)
					break
				}
			}
			Expect(pool.Free() + pool.InFlight()).To(Equal(pool.Size()))
			Expect(pool.InFlight()).To(Equal(len(live)))
		}
	})

	It("should free everything on Reset", func() {
		pool.TryAllocate()
		pool.TryAllocate()
		pool.Reset()

		Expect(pool.Free()).To(Equal(4))
		Expect(pool.IsInFlight(0)).To(BeFalse())
	})
})
