package util

import (
	"runtime"

	"github.com/qrcs-corp/cexcore/cerr"
)

// ParallelOptions controls whether and how a CipherMode partitions a bulk
// transform across worker goroutines. One instance is owned per mode
// instance; there is no global pool (design note §9).
type ParallelOptions struct {
	// IsParallel enables worker-goroutine fan-out for transforms whose
	// input is at least ParallelBlockSize bytes.
	IsParallel bool

	// MaxDegree is the number of worker goroutines. Zero selects
	// runtime.NumCPU().
	MaxDegree int

	// BlockSize is the cipher's block size in bytes (16 for every cipher
	// in this module); ParallelBlockSize must be a multiple of it.
	BlockSize int

	// ParallelBlockSize is the minimum input length, in bytes, that
	// triggers parallel partitioning. Zero disables partitioning;
	// DefaultParallelOptions sets it to at least 64 KiB.
	ParallelBlockSize int
}

// simdLanes models the inner-loop batching width a worker uses per
// scheduling quantum; it does not change correctness, only how large a
// contiguous segment each worker claims before reporting back.
const simdLanes = 4

// DefaultParallelOptions returns the default parallel configuration for the
// given block size.
func DefaultParallelOptions(blockSize int) ParallelOptions {
	degree := runtime.NumCPU()
	if degree < 1 {
		degree = 1
	}
	return ParallelOptions{
		IsParallel:        true,
		MaxDegree:         degree,
		BlockSize:         blockSize,
		ParallelBlockSize: minimumParallelSize(blockSize, degree),
	}
}

func minimumParallelSize(blockSize, degree int) int {
	min := degree * blockSize * simdLanes
	// Raise the threshold to at least 64 KiB (a block multiple) so small
	// core counts still get a reasonably sized parallel threshold.
	const target = 64 * 1024
	if min < target {
		return target - (target % blockSize)
	}
	return min - (min % blockSize)
}

// Validate checks the options for internal consistency.
func (p *ParallelOptions) Validate() error {
	if p.BlockSize <= 0 {
		return cerr.New(cerr.KindInvalidParam, "util.ParallelOptions", "block size must be positive")
	}
	if p.MaxDegree < 0 {
		return cerr.New(cerr.KindInvalidParam, "util.ParallelOptions", "max degree cannot be negative")
	}
	if p.ParallelBlockSize < 0 {
		return cerr.New(cerr.KindInvalidParam, "util.ParallelOptions", "parallel block size cannot be negative")
	}
	if p.ParallelBlockSize%p.BlockSize != 0 {
		return cerr.New(cerr.KindInvalidParam, "util.ParallelOptions", "parallel block size must be a multiple of the cipher block size")
	}
	return nil
}

// Degree returns the effective worker count: MaxDegree if set, else
// runtime.NumCPU(), clamped to at least 1.
func (p *ParallelOptions) Degree() int {
	if p.MaxDegree > 0 {
		return p.MaxDegree
	}
	n := runtime.NumCPU()
	if n < 1 {
		return 1
	}
	return n
}

// ShouldParallelize reports whether a transform of the given length should
// be partitioned across workers under these options.
func (p *ParallelOptions) ShouldParallelize(length int) bool {
	return p.IsParallel && p.ParallelBlockSize > 0 && length >= p.ParallelBlockSize && p.Degree() > 1
}

// Segment describes one worker's contiguous share of a bulk transform, in
// blocks. BlockOffset and NumBlocks are both measured in the caller's
// units (cipher blocks, or CFB register segments) so a
// worker can recompute its counter/IV state purely from its segment
// position, per §4.2's parallel partitioning contract.
type Segment struct {
	BlockOffset int
	NumBlocks   int
}

// Partition splits totalBlocks across degree workers into contiguous,
// non-overlapping segments covering every block exactly once, preserving
// input order (segment i always precedes segment i+1 in the input).
func Partition(totalBlocks, degree int) []Segment {
	if degree < 1 {
		degree = 1
	}
	if degree > totalBlocks {
		degree = totalBlocks
	}
	if degree < 1 {
		return nil
	}
	base := totalBlocks / degree
	rem := totalBlocks % degree
	segs := make([]Segment, 0, degree)
	offset := 0
	for i := 0; i < degree; i++ {
		n := base
		if i < rem {
			n++
		}
		if n == 0 {
			continue
		}
		segs = append(segs, Segment{BlockOffset: offset, NumBlocks: n})
		offset += n
	}
	return segs
}
