// Package miner implements the proof of work search as a message driven
// component. A search runs on its own goroutine and can be cancelled or
// queried for its hash rate while it is running.
package miner

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"runtime"
	"sync/atomic"

	"github.com/btnlabs/blockchain/foundation/blockchain/digest"
)

// YieldEvery is the number of attempts between cancellation checks.
const YieldEvery = 1000

// maxSeed bounds the random starting nonce of a search.
const maxSeed = 1_000_000

// ErrCancelled is returned when a search is stopped before a solution.
var ErrCancelled = errors.New("mining cancelled")

// Set of message types understood and produced by the miner.
const (
	TypeStart        = "start"
	TypeStop         = "stop"
	TypeGetHashCount = "getHashCount"
	TypeSolution     = "solution"
	TypeHashCount    = "hashCount"
)

// Status represents the state of the miner.
type Status int32

// Set of miner states.
const (
	Idle Status = iota
	Searching
	Found
	Cancelled
)

// String implements the Stringer interface.
func (s Status) String() string {
	switch s {
	case Searching:
		return "searching"
	case Found:
		return "found"
	case Cancelled:
		return "cancelled"
	default:
		return "idle"
	}
}

// =============================================================================

// Message is an inbound request to the miner.
type Message struct {
	Type       string `json:"type"`
	BlockData  string `json:"blockData,omitempty"`
	Difficulty uint16 `json:"difficulty,omitempty"`

	reply chan HashCount
}

// Solution is sent by the miner when a nonce satisfying the difficulty
// is found.
type Solution struct {
	Type      string `json:"type"`
	Nonce     uint64 `json:"nonce"`
	Hash      string `json:"hash"`
	HashCount uint64 `json:"hashCount"`
}

// HashCount reports the attempts made since the last query.
type HashCount struct {
	Type  string `json:"type"`
	Count uint64 `json:"count"`
}

// found is used by a search goroutine to report to the control loop.
type found struct {
	session  uint64
	solution Solution
}

// =============================================================================

// Miner manages a single proof of work search at a time.
type Miner struct {
	inbox      chan Message
	found      chan found
	solutions  chan Solution
	hashCounts chan HashCount
	shut       chan struct{}
	done       chan struct{}
	status     atomic.Int32
	hashCount  atomic.Uint64
	evHandler  func(v string, args ...any)
}

// New constructs a miner and starts its control goroutine.
func New(evHandler func(v string, args ...any)) *Miner {
	if evHandler == nil {
		evHandler = func(string, ...any) {}
	}

	m := Miner{
		inbox:      make(chan Message, 16),
		found:      make(chan found),
		solutions:  make(chan Solution),
		hashCounts: make(chan HashCount, 1),
		shut:       make(chan struct{}),
		done:       make(chan struct{}),
		evHandler:  evHandler,
	}

	go m.run()

	return &m
}

// Send delivers a message to the miner.
func (m *Miner) Send(msg Message) {
	select {
	case m.inbox <- msg:
	case <-m.shut:
	}
}

// Start begins a search for the block data, replacing any search in
// progress.
func (m *Miner) Start(blockData string, difficulty uint16) {
	m.Send(Message{Type: TypeStart, BlockData: blockData, Difficulty: difficulty})
}

// Stop cancels the search in progress. No solution for it is delivered
// after the stop is observed.
func (m *Miner) Stop() {
	m.Send(Message{Type: TypeStop})
}

// GetHashCount returns the attempts made since the previous call and resets
// the counter.
func (m *Miner) GetHashCount() uint64 {
	reply := make(chan HashCount, 1)
	m.Send(Message{Type: TypeGetHashCount, reply: reply})

	select {
	case hc := <-reply:
		return hc.Count
	case <-m.done:
		return 0
	}
}

// Solutions returns the channel solutions are delivered on.
func (m *Miner) Solutions() <-chan Solution {
	return m.solutions
}

// HashCounts returns the channel hash count replies are delivered on for
// getHashCount messages sent through Send. Replies that are not read are
// merged into the next one.
func (m *Miner) HashCounts() <-chan HashCount {
	return m.hashCounts
}

// Status returns the current state of the miner.
func (m *Miner) Status() Status {
	return Status(m.status.Load())
}

// Shutdown terminates the control goroutine and any search in progress.
func (m *Miner) Shutdown() {
	select {
	case <-m.shut:
		return
	default:
		close(m.shut)
	}
	<-m.done
}

// =============================================================================

// run is the control loop. It owns the search session and is the only
// goroutine that delivers solutions.
func (m *Miner) run() {
	m.evHandler("miner: run: G started")
	defer func() {
		close(m.done)
		m.evHandler("miner: run: G completed")
	}()

	var (
		session uint64
		cancel  context.CancelFunc = func() {}
		pending Solution
		out     chan Solution
	)

	stop := func(status Status) {
		cancel()
		session++
		out = nil
		m.status.Store(int32(status))
	}

	for {
		select {
		case msg := <-m.inbox:
			switch msg.Type {
			case TypeStart:
				stop(Searching)
				m.hashCount.Store(0)

				var ctx context.Context
				ctx, cancel = context.WithCancel(context.Background())
				go m.search(ctx, session, msg.BlockData, msg.Difficulty)

				m.evHandler("miner: run: start: session[%d] difficulty[%d]", session, msg.Difficulty)

			case TypeStop:
				if m.Status() == Searching || out != nil {
					stop(Cancelled)
					m.evHandler("miner: run: stop: session cancelled")
				}

			case TypeGetHashCount:
				hc := HashCount{Type: TypeHashCount, Count: m.hashCount.Swap(0)}
				if msg.reply != nil {
					msg.reply <- hc
					continue
				}

				// An unread reply is folded into this one so the attempts
				// it carried are not dropped.
				select {
				case prev := <-m.hashCounts:
					hc.Count += prev.Count
				default:
				}
				m.hashCounts <- hc
			}

		case f := <-m.found:
			if f.session != session || m.Status() != Searching {
				continue
			}
			m.status.Store(int32(Found))
			pending = f.solution
			out = m.solutions
			m.evHandler("miner: run: solution: nonce[%d] hash[%s]", pending.Nonce, pending.Hash)

		case out <- pending:
			out = nil

		case <-m.shut:
			cancel()
			return
		}
	}
}

// search performs the work for one session and reports a solution to
// the control loop.
func (m *Miner) search(ctx context.Context, session uint64, blockData string, difficulty uint16) {
	sol, err := solve(ctx, blockData, difficulty, func(n uint64) { m.hashCount.Add(n) })
	if err != nil {
		return
	}

	select {
	case m.found <- found{session: session, solution: sol}:
	case <-ctx.Done():
	}
}

// =============================================================================

// Solve performs a search synchronously until a solution is found or the
// context is cancelled.
func Solve(ctx context.Context, blockData string, difficulty uint16) (Solution, error) {
	return solve(ctx, blockData, difficulty, func(uint64) {})
}

func solve(ctx context.Context, blockData string, difficulty uint16, onBatch func(n uint64)) (Solution, error) {

	// Choose a random starting point for the nonce. After this, the nonce
	// will be incremented by 1 until a solution is found.
	nBig, err := rand.Int(rand.Reader, big.NewInt(maxSeed))
	if err != nil {
		return Solution{}, err
	}
	nonce := nBig.Uint64()

	var attempts, batch uint64
	for {
		attempts++
		batch++

		hash := digest.PowHash(blockData, nonce)
		if digest.IsHashSolved(difficulty, hash) {
			onBatch(batch)
			return Solution{Type: TypeSolution, Nonce: nonce, Hash: hash, HashCount: attempts}, nil
		}
		nonce++

		if batch == YieldEvery {
			onBatch(batch)
			batch = 0

			if ctx.Err() != nil {
				return Solution{}, ErrCancelled
			}
			runtime.Gosched()
		}
	}
}
