package generator

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"
)

// Message IDs are 63-bit integers: milliseconds since the epoch, then the
// node ID, then a per-millisecond sequence.
const (
	nodeBits = 10
	seqBits  = 12

	maxNode = 1<<nodeBits - 1
	seqMask = 1<<seqBits - 1

	nodeShift = seqBits
	timeShift = seqBits + nodeBits

	// DefaultEpoch is 2024-01-01T00:00:00Z in unix milliseconds.
	DefaultEpoch int64 = 1704067200000
)

// MessageIDGenerator issues time-ordered message IDs. IDs from one generator
// strictly increase.
type MessageIDGenerator struct {
	mu     sync.Mutex
	epoch  time.Time
	node   int64
	lastMs int64
	seq    int64
	now    func() time.Time
}

// NewSnowflakeGenerator creates a message ID generator for node (0..1023)
// counting from epochMs, in unix milliseconds.
func NewSnowflakeGenerator(node int64, epochMs int64) (*MessageIDGenerator, error) {
	if node < 0 || node > maxNode {
		return nil, fmt.Errorf("message id node must be between 0 and %d, got %d", maxNode, node)
	}
	return &MessageIDGenerator{
		epoch: time.UnixMilli(epochMs),
		node:  node,
		now:   time.Now,
	}, nil
}

func (g *MessageIDGenerator) Generate() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	ms := g.elapsed()
	switch {
	case ms < 0:
		return "", errors.New("clock is before the message id epoch")
	case ms < g.lastMs:
		return "", fmt.Errorf("clock moved backwards by %dms", g.lastMs-ms)
	case ms == g.lastMs:
		g.seq = (g.seq + 1) & seqMask
		if g.seq == 0 {
			for ms <= g.lastMs {
				ms = g.elapsed()
			}
		}
	default:
		g.seq = 0
	}
	g.lastMs = ms

	return strconv.FormatInt(ms<<timeShift|g.node<<nodeShift|g.seq, 10), nil
}

func (g *MessageIDGenerator) Validate(id string) error {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid message id %q: %w", id, err)
	}
	if n < 0 {
		return fmt.Errorf("invalid message id %q: negative", id)
	}
	if g.Time(n).After(g.now()) {
		return fmt.Errorf("invalid message id %q: issued in the future", id)
	}
	return nil
}

// Time returns the wall-clock millisecond encoded in id.
func (g *MessageIDGenerator) Time(id int64) time.Time {
	return g.epoch.Add(time.Duration(id>>timeShift) * time.Millisecond)
}

func (g *MessageIDGenerator) elapsed() int64 {
	return g.now().Sub(g.epoch).Milliseconds()
}
