package bootstrap

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/gonano/nanogo/internal/blockprocessor"
	"github.com/gonano/nanogo/internal/chain"
	"github.com/gonano/nanogo/internal/ledger"
	"github.com/gonano/nanogo/internal/p2p"
	"github.com/gonano/nanogo/libs/backoff"
	"github.com/gonano/nanogo/libs/log"
	"github.com/gonano/nanogo/libs/service"
)

// cleanupInterval is how often the cleanup thread sweeps tag expiry, peer
// timeout decay, and throttle resizing. It is not part of Config: only
// sync_dependencies_interval is exposed as a tunable, treating the
// cleanup cadence itself as an implementation constant.
const cleanupInterval = time.Second

// Service is C7: the account-chain bootstrap service loop. It owns no
// state of its own beyond wiring C1-C6, C8, and its collaborators
// together behind one shared mutex: a single mutex guards C3, C4, C5, C6,
// and the stopped flag. C1 (peers) keeps its own
// internal mutex and is called with the shared mutex both held and
// released, since its locking is independent.
type Service struct {
	service.BaseService

	logger  log.Logger
	cfg     Config
	metrics *Metrics

	mu   sync.Mutex
	cond *sync.Cond

	stopped bool

	ledger    ledger.Ledger
	processor *blockprocessor.Processor
	network   p2p.Network

	peers        *Peers
	throttle     *Throttle
	accounts     *Accounts
	dbScan       *DatabaseScan
	frontierScan *FrontierScan
	tags         *Tags
	inspector    *Inspector

	limiterGeneral  *rate.Limiter
	limiterDatabase *rate.Limiter
	limiterFrontier *rate.Limiter

	wg sync.WaitGroup
}

// New wires every collaborator into a Service ready to Start. lgr and
// processor must already be set up against the same ledger; the bootstrap
// service only reads from lgr and only writes by handing blocks to
// processor.
func New(logger log.Logger, cfg Config, lgr ledger.Ledger, processor *blockprocessor.Processor, network p2p.Network, metrics *Metrics) *Service {
	if metrics == nil {
		metrics = NopMetrics()
	}
	s := &Service{
		logger:    logger,
		cfg:       cfg,
		metrics:   metrics,
		ledger:    lgr,
		processor: processor,
		network:   network,

		peers:        NewPeers(cfg.ChannelLimit),
		throttle:     NewThrottle(cfg.ThrottleCoefficient),
		accounts:     NewAccounts(cfg.accountSetsConfig()),
		dbScan:       NewDatabaseScan(lgr, cfg.Cooldown),
		frontierScan: NewFrontierScan(cfg.FrontierScan),
		tags:         NewTags(),

		limiterGeneral:  rate.NewLimiter(rate.Limit(cfg.RateLimit), int(cfg.RateLimit)+1),
		limiterDatabase: rate.NewLimiter(rate.Limit(cfg.DatabaseRateLimit), int(cfg.DatabaseRateLimit)+1),
		limiterFrontier: rate.NewLimiter(rate.Limit(cfg.FrontierRateLimit), int(cfg.FrontierRateLimit)+1),
	}
	s.cond = sync.NewCond(&s.mu)
	s.inspector = NewInspector(&s.mu, s.accounts)
	s.BaseService = *service.NewBaseService(logger, "BootstrapAscending", s)
	return s
}

// OnStart launches the five producer/sweep threads, the response-handler
// worker pool, and the inspector's block-processor subscription.
func (s *Service) OnStart(ctx context.Context) error {
	if !s.cfg.Enable {
		s.logger.Info("bootstrap ascending disabled, not starting")
		return nil
	}

	s.wg.Add(6)
	go s.priorityThread(ctx)
	go s.databaseThread(ctx)
	go s.dependenciesThread(ctx)
	go s.frontiersThread(ctx)
	go s.cleanupThread(ctx)
	go s.inspectorThread(ctx)

	for i := 0; i < s.cfg.ResponseWorkers; i++ {
		s.wg.Add(1)
		go s.responseWorker(ctx)
	}

	return nil
}

// OnStop signals every thread to exit and blocks until they do.
func (s *Service) OnStop() {
	s.mu.Lock()
	s.stopped = true
	s.cond.Broadcast()
	s.mu.Unlock()

	s.wg.Wait()
}

func (s *Service) inspectorThread(ctx context.Context) {
	defer s.wg.Done()
	s.inspector.Run(ctx, s.processor.Subscribe())
}

// priorityThread drives the priority-set producer: the highest-value
// source, since every account in it has already shown signs of activity
//.
func (s *Service) priorityThread(ctx context.Context) {
	defer s.wg.Done()

	waitProc := backoff.New(s.cond, 0, 0)
	waitChan := backoff.New(s.cond, 0, 0)
	waitAcct := backoff.New(s.cond, 0, 0)

	for {
		s.mu.Lock()
		if !s.waitBlockProcessor(waitProc) {
			s.mu.Unlock()
			return
		}
		channel, ok := s.waitChannel(waitChan, s.limiterGeneral)
		if !ok {
			s.mu.Unlock()
			return
		}
		account, priority, ok := s.waitPriorityAccount(waitAcct)
		if !ok {
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		count := pullCount(priority, s.cfg.PriorityMax, s.cfg.MaxPullCount)
		s.sendRequest(channel, SourcePriority, RequestBlocksByAccount, account, account, chain.Hash{}, count, 0)
	}
}

// databaseThread drives C4: revisiting accounts the local ledger already
// knows about, throttled off once responses stop yielding anything new
//.
func (s *Service) databaseThread(ctx context.Context) {
	defer s.wg.Done()

	waitProc := backoff.New(s.cond, 0, 0)
	waitChan := backoff.New(s.cond, 0, 0)
	waitAcct := backoff.New(s.cond, 0, 0)

	for {
		s.mu.Lock()
		if !s.waitBlockProcessor(waitProc) {
			s.mu.Unlock()
			return
		}
		if s.throttle.ShouldThrottle() {
			if !waitThrottleClear(waitAcct, s) {
				s.mu.Unlock()
				return
			}
		}
		channel, ok := s.waitChannel(waitChan, s.limiterDatabase)
		if !ok {
			s.mu.Unlock()
			return
		}
		account, ok := s.waitDatabaseAccount(waitAcct)
		if !ok {
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		s.sendRequest(channel, SourceDatabase, RequestBlocksByAccount, account, account, chain.Hash{}, s.cfg.MaxPullCount, 0)
	}
}

// dependenciesThread drives C3's blocking set: accounts stalled on a
// missing block get an account_info_by_hash request for the dependency
// hash, so the next priority pull knows where their chain actually starts
//.
func (s *Service) dependenciesThread(ctx context.Context) {
	defer s.wg.Done()

	waitProc := backoff.New(s.cond, 0, 0)
	waitChan := backoff.New(s.cond, 0, 0)
	waitDep := backoff.New(s.cond, 0, 0)

	for {
		s.mu.Lock()
		if !s.waitBlockProcessor(waitProc) {
			s.mu.Unlock()
			return
		}
		channel, ok := s.waitChannel(waitChan, s.limiterGeneral)
		if !ok {
			s.mu.Unlock()
			return
		}
		dependency, ok := s.waitBlockingDependency(waitDep)
		if !ok {
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		s.sendRequest(channel, SourceDependencies, RequestAccountInfoByHash, dependency, chain.Account{}, dependency, 1, 0)
	}
}

// frontiersThread drives C5: sweeping the account-id space head by head to
// discover accounts the local ledger has never heard of.
func (s *Service) frontiersThread(ctx context.Context) {
	defer s.wg.Done()

	waitProc := backoff.New(s.cond, 0, 0)
	waitChan := backoff.New(s.cond, 0, 0)
	waitHead := backoff.New(s.cond, 0, 0)

	for {
		s.mu.Lock()
		if !s.waitBlockProcessor(waitProc) {
			s.mu.Unlock()
			return
		}
		channel, ok := s.waitChannel(waitChan, s.limiterFrontier)
		if !ok {
			s.mu.Unlock()
			return
		}
		headIndex, start, ok := s.waitFrontierHead(waitHead)
		if !ok {
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		s.sendRequest(channel, SourceFrontiers, RequestFrontiers, start, chain.Account{}, chain.Hash{}, uint32(s.cfg.FrontierScan.HeadParallelism), headIndex)
	}
}

// cleanupThread is the fixed-interval sweep: tag expiry, peer timeout
// decay, throttle resizing against the ledger's current block count, and
// the sync_dependencies pass that re-promotes blocking entries whose
// dependency has since been confirmed.
func (s *Service) cleanupThread(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	lastSync := time.Time{}

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.mu.Lock()
			if s.stopped {
				s.mu.Unlock()
				return
			}

			expired := s.tags.Expire(now)
			for _, tag := range expired {
				s.accounts.PriorityDown(tag.Account)
			}
			if len(expired) > 0 {
				s.metrics.TagsExpired.Add(float64(len(expired)))
			}

			s.accounts.Decay()
			s.throttle.Resize(s.ledger.BlockCount())

			if now.Sub(lastSync) >= s.cfg.SyncDependenciesInterval {
				s.syncDependenciesLocked()
				lastSync = now
			}

			s.metrics.PrioritySetSize.Set(float64(s.accounts.PriorityLen()))
			s.metrics.BlockingSetSize.Set(float64(s.accounts.BlockingLen()))
			var bySource [SourceFrontiers + 1]int
			for _, tag := range s.tags.byID {
				bySource[tag.Source]++
			}
			for src, n := range bySource {
				s.metrics.OutstandingBySource.With("source", Source(src).String()).Set(float64(n))
			}

			s.cond.Broadcast()
			s.mu.Unlock()

			s.peers.Sync(s.network.Channels())
			s.peers.Timeout()
		}
	}
}

// syncDependenciesLocked re-promotes blocking entries whose dependency now
// exists in the ledger as a confirmed block. Called with s.mu held.
func (s *Service) syncDependenciesLocked() {
	tx := s.ledger.NewReadTx()
	defer tx.Discard()
	s.accounts.SyncDependencies(func(h chain.Hash) bool {
		return s.ledger.ConfirmedBlockExists(tx, h)
	})
}

// responseWorker drains the network's inbound envelope fan-in, matching
// each asc_pull_ack back to its tag and applying C8's verify/inspect
// pipeline.
func (s *Service) responseWorker(ctx context.Context) {
	defer s.wg.Done()

	receive := s.network.Receive()
	for {
		select {
		case <-ctx.Done():
			return
		case env, ok := <-receive:
			if !ok {
				return
			}
			ack, ok := env.Message.(*AscPullAck)
			if !ok {
				continue
			}
			s.handleResponse(ack, env.From)
		}
	}
}

func (s *Service) handleResponse(ack *AscPullAck, from p2p.ChannelID) {
	s.mu.Lock()
	tag, ok := s.tags.EraseByID(ack.ID)
	s.mu.Unlock()
	if !ok {
		// Unknown id: a double-delivery, or the tag already expired and was
		// reaped by the cleanup thread. Drop silently.
		return
	}
	s.peers.Received(from)

	switch tag.Type {
	case RequestBlocksByHash, RequestBlocksByAccount:
		s.handleBlocks(ack, tag)
	case RequestAccountInfoByHash:
		s.handleAccountInfo(ack, tag)
	case RequestFrontiers:
		s.handleFrontiers(ack, tag)
	}
}

func (s *Service) handleBlocks(ack *AscPullAck, tag *Tag) {
	result := VerifyBlocks(ack.Blocks, tag)
	switch result {
	case VerifyOK:
		if tag.Source == SourceDatabase {
			useful := false
			tx := s.ledger.NewReadTx()
			for _, b := range ack.Blocks.Blocks {
				if _, known := s.ledger.BlockGet(tx, b.Hash()); !known {
					useful = true
					break
				}
			}
			tx.Discard()
			s.throttle.Add(useful)
		}
		for _, b := range ack.Blocks.Blocks {
			s.processor.Add(b, blockprocessor.SourceBootstrap)
		}
	case VerifyNothingNew:
		s.mu.Lock()
		s.accounts.PriorityDown(tag.Account)
		s.cond.Broadcast()
		s.mu.Unlock()
		if tag.Source == SourceDatabase {
			s.throttle.Add(false)
		}
	case VerifyInvalid:
		s.metrics.TagsInvalid.Add(1)
		s.mu.Lock()
		s.accounts.PriorityDown(tag.Account)
		s.cond.Broadcast()
		s.mu.Unlock()
		if tag.Source == SourceDatabase {
			s.throttle.Add(false)
		}
	}
}

func (s *Service) handleAccountInfo(ack *AscPullAck, tag *Tag) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ack.Empty {
		s.accounts.PriorityDown(tag.Account)
		s.cond.Broadcast()
		return
	}
	// The responder names the account that actually owns the hash we asked
	// about; a subsequent priority pull picks it up from here.
	s.accounts.PrioritySet(ack.AccountInfo.Account, s.cfg.PriorityInitial)
	s.cond.Broadcast()
}

func (s *Service) handleFrontiers(ack *AscPullAck, tag *Tag) {
	result := VerifyFrontiers(ack.Frontiers, tag)

	s.mu.Lock()
	defer s.mu.Unlock()

	switch result {
	case VerifyOK:
		accepted, ok := s.frontierScan.Process(tag.HeadIndex, ack.Frontiers.Entries)
		if ok {
			for _, e := range accepted {
				s.accounts.PrioritySet(e.Account, s.cfg.PriorityInitial)
			}
		}
	case VerifyNothingNew:
		s.frontierScan.Process(tag.HeadIndex, nil)
	case VerifyInvalid:
		s.metrics.TagsInvalid.Add(1)
		s.frontierScan.Process(tag.HeadIndex, nil)
	}
	s.cond.Broadcast()
}

// sendRequest builds and inserts a tag, then sends the wire request with
// the shared mutex released: the design forbids holding it across a
// channel send. A transient send failure drops the tag silently rather
// than retrying inline - the account or head it was for is simply picked
// again on a later iteration.
func (s *Service) sendRequest(channel p2p.Channel, source Source, reqType RequestType, start chain.Hash, account chain.Account, hash chain.Hash, count uint32, headIndex int) {
	s.mu.Lock()
	id := s.tags.NewID()
	now := time.Now()
	tag := &Tag{
		ID:        id,
		Type:      reqType,
		Source:    source,
		Start:     start,
		Account:   account,
		Hash:      hash,
		Count:     count,
		Created:   now,
		Cutoff:    now.Add(s.cfg.RequestTimeout),
		Channel:   channel.ID(),
		HeadIndex: headIndex,
	}
	s.tags.Insert(tag)
	s.cond.Broadcast()
	s.mu.Unlock()

	s.peers.TrySend(channel.ID())

	sent := channel.Send(&AscPullReq{ID: id, Type: reqType, Start: start, Count: count})
	if !sent {
		s.mu.Lock()
		s.tags.EraseByID(id)
		s.cond.Broadcast()
		s.mu.Unlock()
		return
	}
	s.metrics.TagsSent.Add(1)
}

// waitBlockProcessor suspends while the block processor's queue is at or
// above its backpressure threshold, per the design.
func (s *Service) waitBlockProcessor(w *backoff.Waiter) bool {
	return w.Wait(
		func() bool { return s.processor.QueueSize() < s.cfg.BlockProcessorThreshold },
		func() bool { return s.stopped },
	)
}

// waitChannel suspends until a channel is available under limiter's rate
// and C1's per-channel cap.
func (s *Service) waitChannel(w *backoff.Waiter, limiter *rate.Limiter) (p2p.Channel, bool) {
	var channel p2p.Channel
	ok := w.Wait(
		func() bool {
			if !limiter.Allow() {
				return false
			}
			c, ok := s.peers.PickChannel()
			if !ok {
				return false
			}
			channel = c
			return true
		},
		func() bool { return s.stopped },
	)
	return channel, ok
}

// waitPriorityAccount suspends until C3 has a priority-set account whose
// cooldown has elapsed and which has no priority-source tag already in
// flight.
func (s *Service) waitPriorityAccount(w *backoff.Waiter) (chain.Account, float64, bool) {
	var account chain.Account
	var priority float64
	ok := w.Wait(
		func() bool {
			a, p, _, found := s.accounts.NextPriority(func(acc chain.Account) bool {
				return s.tags.CountByAccount(acc, SourcePriority) == 0
			})
			if !found {
				return false
			}
			account, priority = a, p
			return true
		},
		func() bool { return s.stopped },
	)
	return account, priority, ok
}

// waitDatabaseAccount suspends until C4's cursor yields an account with no
// database-source tag already in flight for it.
func (s *Service) waitDatabaseAccount(w *backoff.Waiter) (chain.Account, bool) {
	var account chain.Account
	ok := w.Wait(
		func() bool {
			tx := s.ledger.NewReadTx()
			defer tx.Discard()
			a, found := s.dbScan.Next(tx)
			if !found {
				return false
			}
			if s.tags.CountByAccount(a, SourceDatabase) > 0 {
				return false
			}
			account = a
			return true
		},
		func() bool { return s.stopped },
	)
	return account, ok
}

// waitBlockingDependency suspends until C3 has a blocking entry whose
// dependency has no dependencies-source tag already in flight.
func (s *Service) waitBlockingDependency(w *backoff.Waiter) (chain.Hash, bool) {
	var dependency chain.Hash
	ok := w.Wait(
		func() bool {
			d, found := s.accounts.NextBlocking()
			if !found {
				return false
			}
			if s.tags.CountByHash(d, SourceDependencies) > 0 {
				return false
			}
			dependency = d
			return true
		},
		func() bool { return s.stopped },
	)
	return dependency, ok
}

// waitFrontierHead suspends until C5 has an idle head ready for another
// request.
func (s *Service) waitFrontierHead(w *backoff.Waiter) (int, chain.Account, bool) {
	var headIndex int
	var start chain.Account
	ok := w.Wait(
		func() bool {
			idx, s0, found := s.frontierScan.Next()
			if !found {
				return false
			}
			headIndex, start = idx, s0
			return true
		},
		func() bool { return s.stopped },
	)
	return headIndex, start, ok
}

// waitThrottleClear suspends the database thread while the throttle window
// says the source is unproductive, clearing as soon as Resize or a fresh
// Add tips it back open.
func waitThrottleClear(w *backoff.Waiter, s *Service) bool {
	return w.Wait(
		func() bool { return !s.throttle.ShouldThrottle() },
		func() bool { return s.stopped },
	)
}

// pullCount scales the requested block count with an account's priority:
// a higher priority (more recent activity) earns a larger batch, capped at
// max. The result is clamped to at least 1, so a priority that has decayed
// well below PriorityInitial still requests one block.
func pullCount(priority, priorityMax float64, max uint32) uint32 {
	if priorityMax <= 0 {
		return max
	}
	scaled := uint32((priority / priorityMax) * float64(max))
	if scaled < 1 {
		scaled = 1
	}
	if scaled > max {
		scaled = max
	}
	return scaled
}
