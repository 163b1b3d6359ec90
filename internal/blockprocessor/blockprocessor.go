// Package blockprocessor implements the ledger-write-through collaborator
// the bootstrap service pushes blocks into. It
// owns the only path that mutates the ledger: callers enqueue blocks with
// Add, and learn the outcome asynchronously from the batch_processed event
// stream, never from Add's return value - mirroring how Tendermint's
// mempool/consensus pipeline separates "accepted for processing" from
// "executed", and built on the same BaseService lifecycle every long-running
// component in this module uses.
package blockprocessor

import (
	"context"
	"sync"

	"github.com/gonano/nanogo/internal/chain"
	"github.com/gonano/nanogo/internal/ledger"
	"github.com/gonano/nanogo/libs/log"
	"github.com/gonano/nanogo/libs/service"
)

// Source identifies who handed a block to the processor, so results can be
// routed back to the right subsystem.
type Source uint8

const (
	SourceUnknown Source = iota
	SourceBootstrap
	SourceLive
)

// Status is the fixed set of outcomes the design requires the inspector
// to switch on exhaustively.
type Status uint8

const (
	StatusProgress Status = iota
	StatusOld
	StatusFork
	StatusGapPrevious
	StatusGapSource
	StatusBadSignature
	StatusInsufficientWork
)

func (s Status) String() string {
	switch s {
	case StatusProgress:
		return "progress"
	case StatusOld:
		return "old"
	case StatusFork:
		return "fork"
	case StatusGapPrevious:
		return "gap_previous"
	case StatusGapSource:
		return "gap_source"
	case StatusBadSignature:
		return "bad_signature"
	case StatusInsufficientWork:
		return "insufficient_work"
	default:
		return "unknown"
	}
}

// Result pairs a processed block with its outcome and the Source that
// handed it to the processor.
type Result struct {
	Block  *chain.Block
	Status Status
	Source Source
}

// queueItem is what Add hands to the worker loop.
type queueItem struct {
	block  *chain.Block
	source Source
}

const resultSubscriberBuffer = 256

// Processor is the BlockProcessor collaborator: a bounded queue drained by
// one worker goroutine that applies blocks to the ledger and fans each
// outcome out to subscribers.
type Processor struct {
	service.BaseService
	logger log.Logger

	ledger ledger.Writable

	queue chan queueItem

	subMu sync.Mutex
	subs  []chan Result
}

// New returns a Processor with the given queue capacity, the hard bound
// past which Add fails. The bootstrap service's BlockProcessorThreshold is
// a separate, usually lower, mark compared against QueueSize.
func New(logger log.Logger, lgr ledger.Writable, queueCapacity int) *Processor {
	p := &Processor{
		logger: logger,
		ledger: lgr,
		queue:  make(chan queueItem, queueCapacity),
	}
	p.BaseService = *service.NewBaseService(logger, "BlockProcessor", p)
	return p
}

// OnStart launches the single worker goroutine.
func (p *Processor) OnStart(ctx context.Context) error {
	go p.worker(ctx)
	return nil
}

// OnStop closes every subscriber channel so readers observe shutdown.
func (p *Processor) OnStop() {
	p.subMu.Lock()
	defer p.subMu.Unlock()
	for _, ch := range p.subs {
		close(ch)
	}
	p.subs = nil
}

// QueueSize reports how many blocks are waiting to be applied. The
// bootstrap service's wait_blockprocessor suspends new requests while this
// is at or above its configured high-water mark.
func (p *Processor) QueueSize() int {
	return len(p.queue)
}

// Add enqueues block for asynchronous processing. It returns false, without
// blocking, if the queue is full - callers (the bootstrap service) are
// expected to have already checked QueueSize against their backpressure
// threshold, so a full queue here indicates a race rather than the normal
// path.
func (p *Processor) Add(block *chain.Block, source Source) bool {
	select {
	case p.queue <- queueItem{block: block, source: source}:
		return true
	default:
		return false
	}
}

// Subscribe returns a channel of results; it is closed when the processor
// stops. Buffered so a slow consumer (the inspector) can't stall the
// worker; a full subscriber buffer drops the oldest pending result rather
// than block ledger writes.
func (p *Processor) Subscribe() <-chan Result {
	ch := make(chan Result, resultSubscriberBuffer)
	p.subMu.Lock()
	p.subs = append(p.subs, ch)
	p.subMu.Unlock()
	return ch
}

func (p *Processor) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case item := <-p.queue:
			status := p.apply(item.block)
			p.publish(Result{Block: item.block, Status: status, Source: item.source})
		}
	}
}

func (p *Processor) apply(block *chain.Block) Status {
	tx := p.ledger.NewReadTx()
	defer tx.Discard()

	if block.Previous.IsZero() {
		if p.ledger.AccountExists(block.Account) {
			return StatusFork
		}
		if _, ok := p.ledger.BlockGet(tx, block.Source()); !block.Source().IsZero() && !ok {
			return StatusGapSource
		}
		p.ledger.Apply(block, true)
		return StatusProgress
	}

	prev, ok := p.ledger.BlockGet(tx, block.Previous)
	if !ok {
		return StatusGapPrevious
	}
	if info, ok := p.ledger.AccountGet(tx, block.Account); ok && info.Head != block.Previous {
		if info.Head == block.Hash() {
			return StatusOld
		}
		return StatusFork
	}
	if prev.Account != block.Account {
		return StatusFork
	}
	if !block.Source().IsZero() {
		if _, ok := p.ledger.BlockGet(tx, block.Source()); !ok {
			return StatusGapSource
		}
	}

	p.ledger.Apply(block, true)
	return StatusProgress
}

func (p *Processor) publish(r Result) {
	p.subMu.Lock()
	defer p.subMu.Unlock()
	for _, ch := range p.subs {
		select {
		case ch <- r:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- r:
			default:
			}
		}
	}
}
