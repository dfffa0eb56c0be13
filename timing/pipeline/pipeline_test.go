package pipeline_test

import (
	"errors"
	"math/rand/v2"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/oooop/timing/pipeline"
)

const drainLimit = 20000

func newPipeline(cfg pipeline.Config, opts ...pipeline.PipelineOption) *pipeline.Pipeline {
	p, err := pipeline.NewPipeline(cfg, opts...)
	Expect(err).NotTo(HaveOccurred())
	return p
}

// allReady returns inputs with every consumer ready and nothing offered.
func allReady() pipeline.Inputs {
	return pipeline.Inputs{
		ReadReady:      true,
		WriteAddrReady: true,
		WriteDataReady: true,
		OutputReady:    true,
	}
}

var _ = Describe("Pipeline", func() {
	var cfg pipeline.Config

	BeforeEach(func() {
		cfg = pipeline.DefaultConfig()
	})

	Describe("scenarios", func() {
		It("should count up on one index with back-to-back increments", func() {
			p := newPipeline(cfg)
			store := newFakeStore(3, 3)
			d := newDriver(p, store)
			for i := 0; i < 5; i++ {
				d.submit(7, 0)
			}

			Expect(d.drain(drainLimit)).To(Succeed())

			Expect(d.values()).To(Equal([]uint64{1, 2, 3, 4, 5}))
			Expect(store.mem[7]).To(Equal(uint64(5)))
			Expect(p.Stats().Forwards).To(Equal(uint64(4)))
		})

		It("should update two indices whose reads complete out of order", func() {
			p := newPipeline(cfg)
			store := newFakeStore(0, 2)
			store.readLatency = func(tag int, _ uint64) int {
				if tag == 0 {
					return 6
				}
				return 2
			}
			store.mem[1] = 40
			store.mem[2] = 50

			d := newDriver(p, store)
			d.submit(1, 0)
			d.submit(2, 0)

			Expect(d.drain(drainLimit)).To(Succeed())

			Expect(d.results).To(HaveLen(2))
			Expect(d.results[0].Index).To(Equal(uint64(2)))
			Expect(d.results[0].Value).To(Equal(uint64(51)))
			Expect(d.results[1].Index).To(Equal(uint64(1)))
			Expect(d.results[1].Value).To(Equal(uint64(41)))
			Expect(p.Stats().Forwards).To(BeZero())
		})

		It("should forward an in-flight result when the read is slower than the pipeline", func() {
			p := newPipeline(cfg)
			store := newFakeStore(5, 2)
			store.mem[3] = 10

			d := newDriver(p, store)
			d.submit(3, 0)
			d.submit(3, 0)

			Expect(d.drain(drainLimit)).To(Succeed())

			Expect(d.values()).To(Equal([]uint64{11, 12}))
			Expect(p.Stats().Forwards).To(Equal(uint64(1)))
		})

		Context("with a store that exposes writes late", func() {
			var (
				p        *pipeline.Pipeline
				store    *fakeStore
				d        *driver
				firstAck int
			)

			BeforeEach(func() {
				cfg.WriteHistoryDepth = 3
				p = newPipeline(cfg)
				store = newFakeStore(1, 2)
				store.visibilityLag = cfg.WriteHistoryDepth
				store.mem[9] = 10
				d = newDriver(p, store)

				firstAck = -1
				d.onTick = func(cycle int, _ pipeline.Inputs, out pipeline.Outputs) {
					if out.AckAccepted && firstAck < 0 {
						firstAck = cycle
					}
				}
			})

			It("should forward from the write history while the store is stale", func() {
				store.hold = func(tag int, cycle int) bool {
					return tag == 1 &&
						(firstAck < 0 || cycle < firstAck+cfg.WriteHistoryDepth-1)
				}

				var ingestValue uint64
				d.onTick = func(cycle int, in pipeline.Inputs, out pipeline.Outputs) {
					if out.AckAccepted && firstAck < 0 {
						firstAck = cycle
					}
					if out.CompletionAccepted && in.Completion.Tag == 1 {
						ingestValue = in.Completion.Value
					}
				}

				d.submit(9, 0)
				d.submit(9, 0)

				Expect(d.drain(drainLimit)).To(Succeed())

				Expect(ingestValue).To(Equal(uint64(10)))
				Expect(d.values()).To(Equal([]uint64{11, 12}))
				Expect(p.Stats().HistoryForwards).To(Equal(uint64(1)))
			})

			It("should see both earlier updates when the third read lands after the history window", func() {
				writesBlocked := false
				d.onTick = func(cycle int, _ pipeline.Inputs, out pipeline.Outputs) {
					if out.AckAccepted && firstAck < 0 {
						firstAck = cycle
					}
					if out.Write.Valid && out.Write.Tag == 0 {
						writesBlocked = true
					}
				}
				d.writeReady = func(cycle int) bool {
					if !writesBlocked {
						return true
					}
					return firstAck >= 0 && cycle >= firstAck+cfg.WriteHistoryDepth+3
				}
				store.hold = func(tag int, cycle int) bool {
					return tag == 2 &&
						(firstAck < 0 || cycle < firstAck+cfg.WriteHistoryDepth)
				}

				d.submit(9, 0)
				d.submit(9, 0)
				d.submit(9, 0)

				Expect(d.drain(drainLimit)).To(Succeed())

				Expect(d.values()).To(Equal([]uint64{11, 12, 13}))
				Expect(store.mem[9]).To(Equal(uint64(13)))
			})
		})
	})

	Describe("admission", func() {
		It("should issue the read with the byte address", func() {
			p := newPipeline(cfg)
			in := allReady()
			in.Request = pipeline.Request{Valid: true, Index: 5, Aux: 0x1FF}

			out, err := p.Tick(in)
			Expect(err).NotTo(HaveOccurred())
			Expect(out.RequestAccepted).To(BeTrue())
			Expect(out.Read).To(Equal(pipeline.ReadRequest{
				Valid: true, Tag: 0, Index: 5, Address: 20,
			}))
			Expect(p.PendingReads()).To(Equal(1))
		})

		It("should not admit without a ready read channel", func() {
			p := newPipeline(cfg)
			in := allReady()
			in.ReadReady = false
			in.Request = pipeline.Request{Valid: true, Index: 5}

			out, err := p.Tick(in)
			Expect(err).NotTo(HaveOccurred())
			Expect(out.RequestAccepted).To(BeFalse())
			Expect(out.Read.Valid).To(BeFalse())
			Expect(p.InFlight()).To(Equal(0))
			Expect(p.Stats().AdmissionStalls).To(Equal(uint64(1)))
		})

		It("should apply backpressure when the tag pool is empty", func() {
			cfg.MaxOutstanding = 2
			p := newPipeline(cfg)
			store := newFakeStore(1, 1)
			store.hold = func(int, int) bool { return true }
			d := newDriver(p, store)
			for i := 0; i < 4; i++ {
				d.submit(uint64(i), 0)
			}

			for i := 0; i < 10; i++ {
				Expect(d.step()).To(Succeed())
			}

			Expect(p.InFlight()).To(Equal(2))
			Expect(p.FreeTags()).To(Equal(0))
			Expect(d.queue).To(HaveLen(2))
			Expect(p.Stats().TagStalls).To(Equal(uint64(8)))
		})

		It("should mask the aux payload and echo it", func() {
			cfg.AuxWidth = 4
			p := newPipeline(cfg, pipeline.WithOperation(pipeline.AddAux))
			d := newDriver(p, newFakeStore(2, 2))
			d.submit(1, 0x35)

			Expect(d.drain(drainLimit)).To(Succeed())

			Expect(d.results[0].Aux).To(Equal(uint64(5)))
			Expect(d.results[0].Value).To(Equal(uint64(5)))
		})

		It("should force aux to zero when aux is disabled", func() {
			cfg.AuxWidth = 0
			p := newPipeline(cfg, pipeline.WithOperation(pipeline.AddAux))
			d := newDriver(p, newFakeStore(2, 2))
			d.submit(1, 0x35)

			Expect(d.drain(drainLimit)).To(Succeed())

			Expect(d.results[0].Aux).To(BeZero())
			Expect(d.results[0].Value).To(BeZero())
		})

		It("should not reuse a tag in the tick that frees it", func() {
			cfg.MaxOutstanding = 1
			p := newPipeline(cfg)
			store := newFakeStore(1, 1)
			d := newDriver(p, store)
			d.submit(1, 0)
			d.submit(2, 0)

			retiredAt := -1
			admittedAt := []int{}
			d.onTick = func(cycle int, _ pipeline.Inputs, out pipeline.Outputs) {
				if out.Result.Valid && retiredAt < 0 {
					retiredAt = cycle
				}
				if out.RequestAccepted {
					admittedAt = append(admittedAt, cycle)
				}
			}

			Expect(d.drain(drainLimit)).To(Succeed())

			Expect(admittedAt).To(HaveLen(2))
			Expect(admittedAt[1]).To(Equal(retiredAt + 1))
		})
	})

	Describe("write dispatch", func() {
		// advanceToWriteBack admits one transaction for index 4 and moves it
		// into WRITE_BACK.
		advanceToWriteBack := func(p *pipeline.Pipeline) {
			in := allReady()
			in.Request = pipeline.Request{Valid: true, Index: 4}
			_, err := p.Tick(in)
			Expect(err).NotTo(HaveOccurred())

			in = allReady()
			in.Completion = pipeline.ReadCompletion{Valid: true, Tag: 0, Value: 8}
			out, err := p.Tick(in)
			Expect(err).NotTo(HaveOccurred())
			Expect(out.CompletionAccepted).To(BeTrue())

			for p.Slot(p.Layout().WriteBack).Valid == false {
				in = allReady()
				in.WriteAddrReady = false
				_, err = p.Tick(in)
				Expect(err).NotTo(HaveOccurred())
			}
		}

		It("should wait for both write channels", func() {
			p := newPipeline(cfg)
			advanceToWriteBack(p)

			in := allReady()
			in.WriteDataReady = false
			out, err := p.Tick(in)
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Write.Valid).To(BeFalse())

			in = allReady()
			in.WriteAddrReady = false
			out, err = p.Tick(in)
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Write.Valid).To(BeFalse())

			out, err = p.Tick(allReady())
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Write).To(Equal(pipeline.WriteRequest{
				Valid: true, Tag: 0, Index: 4, Address: 16, Value: 9,
			}))
			Expect(p.Stats().WriteStalls).To(Equal(uint64(2)))
		})

		It("should hold the transaction until its ack and the consumer are ready", func() {
			p := newPipeline(cfg)
			advanceToWriteBack(p)
			_, err := p.Tick(allReady())
			Expect(err).NotTo(HaveOccurred())

			out, err := p.Tick(allReady())
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Result.Valid).To(BeFalse())

			in := allReady()
			in.OutputReady = false
			in.Ack = pipeline.WriteAck{Valid: true, Tag: 0}
			out, err = p.Tick(in)
			Expect(err).NotTo(HaveOccurred())
			Expect(out.AckAccepted).To(BeFalse())
			Expect(out.Result.Valid).To(BeFalse())

			in.OutputReady = true
			out, err = p.Tick(in)
			Expect(err).NotTo(HaveOccurred())
			Expect(out.AckAccepted).To(BeTrue())
			Expect(out.Result).To(Equal(pipeline.Result{
				Valid: true, Tag: 0, Index: 4, Prior: 8, Value: 9, Proposed: 9,
			}))
			Expect(p.Idle()).To(BeTrue())
			Expect(p.History(0)).To(Equal(pipeline.HistoryEntry{Valid: true, Index: 4, Value: 9}))
			Expect(p.Stats().OutputStalls).To(Equal(uint64(1)))
		})

		It("should retire a cancelled transaction without a write or an ack", func() {
			p := newPipeline(cfg, pipeline.WithWriteCancel(
				pipeline.CancelWhen(func(uint64, uint64) bool { return true })))
			advanceToWriteBack(p)

			in := allReady()
			in.WriteAddrReady = false
			in.WriteDataReady = false
			out, err := p.Tick(in)
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Write.Valid).To(BeFalse())

			out, err = p.Tick(in)
			Expect(err).NotTo(HaveOccurred())
			Expect(out.AckAccepted).To(BeFalse())
			Expect(out.Result).To(Equal(pipeline.Result{
				Valid: true, Tag: 0, Index: 4, Prior: 8, Value: 8, Proposed: 9, Cancelled: true,
			}))
			Expect(p.Stats().WritesIssued).To(BeZero())
			Expect(p.Stats().Cancelled).To(Equal(uint64(1)))
			Expect(p.FreeTags()).To(Equal(cfg.MaxOutstanding))
		})

		It("should keep the store consistent when unchanged writes are skipped", func() {
			p := newPipeline(cfg,
				pipeline.WithOperation(pipeline.MaxAux),
				pipeline.WithWriteCancel(pipeline.CancelUnchanged))
			store := newFakeStore(4, 2)
			d := newDriver(p, store)
			for _, aux := range []uint64{5, 3, 9, 9, 2, 12} {
				d.submit(0, aux)
			}

			Expect(d.drain(drainLimit)).To(Succeed())

			Expect(d.values()).To(Equal([]uint64{5, 5, 9, 9, 9, 12}))
			Expect(p.Stats().Cancelled).To(Equal(uint64(3)))
			Expect(p.Stats().WritesIssued).To(Equal(uint64(3)))
			Expect(store.mem[0]).To(Equal(uint64(12)))
		})
	})

	Describe("protocol violations", func() {
		It("should reject a completion for an unallocated tag and stay stopped", func() {
			p := newPipeline(cfg)
			in := allReady()
			in.Completion = pipeline.ReadCompletion{Valid: true, Tag: 3}

			_, err := p.Tick(in)
			Expect(err).To(MatchError(pipeline.ErrProtocolViolation))
			Expect(p.Fault()).To(HaveOccurred())

			in = allReady()
			in.Request = pipeline.Request{Valid: true, Index: 1}
			out, err := p.Tick(in)
			Expect(err).To(MatchError(pipeline.ErrProtocolViolation))
			Expect(out.RequestAccepted).To(BeFalse())
			Expect(p.Stats().Cycles).To(BeZero())
		})

		It("should reject a completion for a tag whose read was already consumed", func() {
			p := newPipeline(cfg)
			d := newDriver(p, newFakeStore(1, 1))
			d.submit(2, 0)
			Expect(d.drain(drainLimit)).To(Succeed())

			in := allReady()
			in.Completion = pipeline.ReadCompletion{Valid: true, Tag: 0}
			_, err := p.Tick(in)
			Expect(err).To(MatchError(pipeline.ErrProtocolViolation))
		})

		It("should reject an ack with no outstanding write", func() {
			p := newPipeline(cfg)
			in := allReady()
			in.Ack = pipeline.WriteAck{Valid: true, Tag: 0}

			_, err := p.Tick(in)
			Expect(err).To(MatchError(pipeline.ErrProtocolViolation))
		})

		It("should reject an ack for a cancelled write", func() {
			p := newPipeline(cfg, pipeline.WithWriteCancel(
				pipeline.CancelWhen(func(uint64, uint64) bool { return true })))

			in := allReady()
			in.OutputReady = false
			in.Request = pipeline.Request{Valid: true, Index: 1}
			_, err := p.Tick(in)
			Expect(err).NotTo(HaveOccurred())

			in.Request = pipeline.Request{}
			in.Completion = pipeline.ReadCompletion{Valid: true, Tag: 0}
			_, err = p.Tick(in)
			Expect(err).NotTo(HaveOccurred())

			in.Completion = pipeline.ReadCompletion{}
			for !p.Slot(p.Layout().AwaitAck).Valid {
				_, err = p.Tick(in)
				Expect(err).NotTo(HaveOccurred())
			}

			in.Ack = pipeline.WriteAck{Valid: true, Tag: 0}
			_, err = p.Tick(in)
			Expect(err).To(MatchError(pipeline.ErrProtocolViolation))
		})

		It("should reject an index outside the state array", func() {
			cfg.ItemCount = 10
			p := newPipeline(cfg)
			in := allReady()
			in.Request = pipeline.Request{Valid: true, Index: 10}

			_, err := p.Tick(in)
			Expect(err).To(MatchError(pipeline.ErrIndexOutOfRange))
			Expect(errors.Is(err, pipeline.ErrProtocolViolation)).To(BeTrue())
		})

		It("should accept ticks again after Reset", func() {
			p := newPipeline(cfg)
			in := allReady()
			in.Ack = pipeline.WriteAck{Valid: true, Tag: 0}
			_, err := p.Tick(in)
			Expect(err).To(HaveOccurred())

			p.Reset()

			_, err = p.Tick(allReady())
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Fault()).NotTo(HaveOccurred())
		})
	})

	Describe("replay", func() {
		It("should reproduce the same outputs from a snapshot", func() {
			cfg.MaxOutstanding = 4
			p := newPipeline(cfg, pipeline.WithOperation(pipeline.Affine(3)))
			rng := rand.New(rand.NewPCG(7, 11))
			store := newFakeStore(0, 2)
			store.readLatency = func(int, uint64) int { return 1 + rng.IntN(6) }
			d := newDriver(p, store)
			for i := 0; i < 40; i++ {
				d.submit(uint64(rng.IntN(3)), uint64(rng.IntN(256)))
			}

			for i := 0; i < 20; i++ {
				Expect(d.step()).To(Succeed())
			}

			snap := p.Snapshot()
			var inputs []pipeline.Inputs
			var outputs []pipeline.Outputs
			d.onTick = func(_ int, in pipeline.Inputs, out pipeline.Outputs) {
				inputs = append(inputs, in)
				outputs = append(outputs, out)
			}
			for i := 0; i < 60; i++ {
				Expect(d.step()).To(Succeed())
			}
			stats := p.Stats()

			p.Restore(snap)
			for i, in := range inputs {
				out, err := p.Tick(in)
				Expect(err).NotTo(HaveOccurred())
				Expect(out).To(Equal(outputs[i]), "tick %d", i)
			}
			Expect(p.Stats()).To(Equal(stats))
		})
	})

	Describe("properties", func() {
		type workload struct {
			cfg       pipeline.Config
			op        pipeline.Operation
			cancel    pipeline.CancelPredicate
			indices   int
			requests  int
			maxRead   int
			writeLat  int
			lag       int
			readyOdds int
		}

		// run drives a random workload and checks the engine invariants on
		// every tick. It returns the driver and the initial store contents.
		run := func(seed uint64, w workload) (*driver, map[uint64]uint64) {
			rng := rand.New(rand.NewPCG(seed, seed*31+1))

			opts := []pipeline.PipelineOption{pipeline.WithOperation(w.op)}
			if w.cancel != nil {
				opts = append(opts, pipeline.WithWriteCancel(w.cancel))
			}
			p := newPipeline(w.cfg, opts...)

			store := newFakeStore(0, w.writeLat)
			store.visibilityLag = w.lag
			store.readLatency = func(int, uint64) int { return 1 + rng.IntN(w.maxRead) }

			initial := map[uint64]uint64{}
			for i := 0; i < w.indices; i++ {
				v := rng.Uint64() & w.cfg.StateMask()
				initial[uint64(i)] = v
				store.mem[uint64(i)] = v
			}

			d := newDriver(p, store)
			for i := 0; i < w.requests; i++ {
				d.submit(uint64(rng.IntN(w.indices)), rng.Uint64())
			}

			odds := func(int) bool { return rng.IntN(w.readyOdds) != 0 }
			d.readReady = odds
			d.writeReady = odds
			d.outputReady = odds

			live := map[int]bool{}
			d.onTick = func(_ int, _ pipeline.Inputs, out pipeline.Outputs) {
				if out.Read.Valid {
					Expect(live[out.Read.Tag]).To(BeFalse(), "tag %d reused", out.Read.Tag)
					live[out.Read.Tag] = true
				}
				if out.Result.Valid {
					delete(live, out.Result.Tag)
				}
				Expect(p.InFlight()).To(BeNumerically("<=", w.cfg.MaxOutstanding))
				Expect(p.InFlight() + p.FreeTags()).To(Equal(w.cfg.MaxOutstanding))
				Expect(p.InFlight()).To(Equal(len(live)))
			}

			Expect(d.drain(drainLimit)).To(Succeed())
			Expect(d.results).To(HaveLen(w.requests))

			stats := p.Stats()
			Expect(stats.MultiSourceHazards).To(BeNumerically("<=", stats.Forwards))
			if w.cfg.MaxOutstanding == 1 && w.cfg.WriteHistoryDepth == 0 {
				Expect(stats.Forwards).To(BeZero())
			}

			return d, initial
		}

		It("should apply same-index updates as a left fold in pipeline order", func() {
			for seed := uint64(1); seed <= 40; seed++ {
				c := pipeline.DefaultConfig()
				rng := rand.New(rand.NewPCG(seed, 3))
				c.StateWidth = 16
				c.MaxOutstanding = 1 + rng.IntN(8)
				c.StateLoadStages = 1 + rng.IntN(3)
				c.WriteHistoryDepth = rng.IntN(5)

				w := workload{
					cfg:       c,
					op:        pipeline.Affine(3),
					indices:   1 + rng.IntN(4),
					requests:  60,
					maxRead:   1 + rng.IntN(10),
					writeLat:  1 + rng.IntN(4),
					lag:       rng.IntN(c.WriteHistoryDepth + 1),
					readyOdds: 2 + rng.IntN(6),
				}
				if seed%3 == 0 {
					w.cancel = pipeline.CancelWhen(func(_, value uint64) bool { return value%5 == 0 })
				}

				d, initial := run(seed, w)
				final := expectLeftFold(d.results, initial, w.op, c.StateMask())
				for index, v := range final {
					Expect(d.store.mem[index]).To(Equal(v), "seed %d index %d", seed, index)
				}
			}
		})

		It("should leave the store unchanged with the identity operation", func() {
			for seed := uint64(1); seed <= 10; seed++ {
				w := workload{
					cfg:       pipeline.DefaultConfig(),
					op:        pipeline.Identity,
					indices:   2,
					requests:  40,
					maxRead:   8,
					writeLat:  3,
					lag:       2,
					readyOdds: 3,
				}

				d, initial := run(seed, w)
				for _, r := range d.results {
					Expect(r.Value).To(Equal(initial[r.Index]))
				}
				for index, v := range initial {
					Expect(d.store.mem[index]).To(Equal(v))
				}
			}
		})

		It("should serialize fully with a single tag", func() {
			c := pipeline.DefaultConfig()
			c.MaxOutstanding = 1
			w := workload{
				cfg:       c,
				op:        pipeline.Increment,
				indices:   1,
				requests:  20,
				maxRead:   4,
				writeLat:  2,
				lag:       1,
				readyOdds: 4,
			}

			d, initial := run(99, w)
			expectLeftFold(d.results, initial, w.op, c.StateMask())
			Expect(d.p.Stats().MaxInFlight).To(Equal(1))
			Expect(d.results[19].Value).To(Equal((initial[0] + 20) & c.StateMask()))
		})

		Context("with every request admitted on consecutive ticks", func() {
			const requests = 100

			stream := func(index func(i int) uint64) *driver {
				cfg.MaxOutstanding = 16
				p := newPipeline(cfg)
				d := newDriver(p, newFakeStore(3, 1))
				for i := 0; i < requests; i++ {
					d.submit(index(i), 0)
				}

				Expect(d.drain(drainLimit)).To(Succeed())
				Expect(p.Stats().Retired).To(Equal(uint64(requests)))
				Expect(p.Stats().AdmissionStalls).To(BeZero())

				return d
			}

			It("should take no longer on one index than on distinct indices", func() {
				same := stream(func(int) uint64 { return 0 })
				distinct := stream(func(i int) uint64 { return uint64(i) })

				Expect(same.values()[requests-1]).To(Equal(uint64(requests)))
				Expect(same.cycle).To(BeNumerically("<=", requests+10))
				Expect(same.cycle).To(Equal(distinct.cycle))
			})

			It("should pick one source when several hold the index", func() {
				same := stream(func(int) uint64 { return 0 })
				stats := same.p.Stats()
				Expect(stats.Forwards).To(BeNumerically(">", 0))
				Expect(stats.MultiSourceHazards).To(BeNumerically(">", 0))
				Expect(stats.MultiSourceHazards).To(BeNumerically("<=", stats.Forwards))

				expectLeftFold(same.results, map[uint64]uint64{}, pipeline.Increment, cfg.StateMask())
			})

			It("should not forward between distinct indices", func() {
				distinct := stream(func(i int) uint64 { return uint64(i) })
				stats := distinct.p.Stats()
				Expect(stats.Forwards).To(BeZero())
				Expect(stats.MultiSourceHazards).To(BeZero())
			})
		})
	})
})
