package benchmarks

import (
	"math/rand/v2"

	"github.com/sarchlab/oooop/emu"
	"github.com/sarchlab/oooop/timing/pipeline"
)

// GetWorkloads returns the standard set of workloads. Each one stresses a
// different collision pattern.
func GetWorkloads() []Benchmark {
	return []Benchmark{
		singleIndex(),
		uniformRandom(),
		hotSpot(),
		strided(),
		bursts(),
		affineOrdering(),
		maxWithCancel(),
	}
}

// GetCoreWorkloads returns a minimal set for quick validation: no
// collisions, all collisions and a mix.
func GetCoreWorkloads() []Benchmark {
	return []Benchmark{
		singleIndex(),
		uniformRandom(),
		hotSpot(),
	}
}

// SingleIndex returns n updates of index.
func SingleIndex(n int, index uint64) []emu.Request {
	reqs := make([]emu.Request, n)
	for i := range reqs {
		reqs[i] = emu.Request{Index: index}
	}
	return reqs
}

// Uniform returns n updates spread uniformly over items.
func Uniform(n int, items uint64, seed uint64) []emu.Request {
	rng := rand.New(rand.NewPCG(seed, seed+1))
	reqs := make([]emu.Request, n)
	for i := range reqs {
		reqs[i] = emu.Request{Index: rng.Uint64N(items), Aux: rng.Uint64()}
	}
	return reqs
}

// HotSpot returns n updates where percent of them hit one of hot indices
// and the rest are spread over items.
func HotSpot(n int, items, hot uint64, percent int, seed uint64) []emu.Request {
	rng := rand.New(rand.NewPCG(seed, seed+1))
	hot = min(hot, items)
	reqs := make([]emu.Request, n)
	for i := range reqs {
		index := rng.Uint64N(items)
		if rng.IntN(100) < percent {
			index = rng.Uint64N(hot)
		}
		reqs[i] = emu.Request{Index: index, Aux: rng.Uint64()}
	}
	return reqs
}

// Strided returns n updates walking items with the given stride.
func Strided(n int, items, stride uint64) []emu.Request {
	reqs := make([]emu.Request, n)
	for i := range reqs {
		reqs[i] = emu.Request{Index: (uint64(i) * stride) % items}
	}
	return reqs
}

// Bursts returns n updates in runs of length burst, each run on one random
// index.
func Bursts(n, burst int, items uint64, seed uint64) []emu.Request {
	rng := rand.New(rand.NewPCG(seed, seed+1))
	reqs := make([]emu.Request, 0, n)
	for len(reqs) < n {
		index := rng.Uint64N(items)
		for j := 0; j < burst && len(reqs) < n; j++ {
			reqs = append(reqs, emu.Request{Index: index, Aux: uint64(j)})
		}
	}
	return reqs
}

func singleIndex() Benchmark {
	return Benchmark{
		Name:        "single_index",
		Description: "1000 increments of one item - every transaction forwards",
		Generate: func(uint64) []emu.Request {
			return SingleIndex(1000, 0)
		},
	}
}

func uniformRandom() Benchmark {
	return Benchmark{
		Name:        "uniform",
		Description: "4000 increments spread over all items - few collisions",
		Generate: func(items uint64) []emu.Request {
			return Uniform(4000, items, 1)
		},
	}
}

func hotSpot() Benchmark {
	return Benchmark{
		Name:        "hot_spot",
		Description: "4000 aux additions, 80% on 8 items - histogram-like",
		Operation:   pipeline.AddAux,
		Generate: func(items uint64) []emu.Request {
			return HotSpot(4000, items, 8, 80, 2)
		},
	}
}

func strided() Benchmark {
	return Benchmark{
		Name:        "strided",
		Description: "4000 increments with stride 3 over 16 items - periodic reuse",
		Generate: func(items uint64) []emu.Request {
			return Strided(4000, min(items, 16), 3)
		},
	}
}

func bursts() Benchmark {
	return Benchmark{
		Name:        "bursts",
		Description: "4000 increments in runs of 8 on one item - back-to-back hazards",
		Generate: func(items uint64) []emu.Request {
			return Bursts(4000, 8, items, 3)
		},
	}
}

func affineOrdering() Benchmark {
	return Benchmark{
		Name:        "affine_ordering",
		Description: "2000 non-commutative updates on 4 items - detects reordering",
		Operation:   pipeline.Affine(3),
		Setup: func(memory *emu.Memory) {
			for i := uint64(0); i < 4; i++ {
				memory.Write(i, i+1)
			}
		},
		Generate: func(items uint64) []emu.Request {
			return Uniform(2000, min(items, 4), 4)
		},
	}
}

func maxWithCancel() Benchmark {
	return Benchmark{
		Name:        "max_cancel",
		Description: "4000 running maxima on 32 items - most writes are cancelled",
		Operation:   pipeline.MaxAux,
		Cancel:      pipeline.CancelUnchanged,
		Generate: func(items uint64) []emu.Request {
			return Uniform(4000, min(items, 32), 5)
		},
	}
}
