package main

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/supernova-labs/supernova/blockchain"
	"github.com/supernova-labs/supernova/chaincfg"
	"github.com/supernova-labs/supernova/chainhash"
	"github.com/supernova-labs/supernova/checkpoint"
	"github.com/supernova-labs/supernova/lightning/channel"
	"github.com/supernova-labs/supernova/lightning/onion"
	"github.com/supernova-labs/supernova/lightning/router"
	"github.com/supernova-labs/supernova/lightning/watchtower"
	"github.com/supernova-labs/supernova/mempool"
	"github.com/supernova-labs/supernova/quantum"
	"github.com/supernova-labs/supernova/shutdown"
	"github.com/supernova-labs/supernova/txindex"
	"github.com/supernova-labs/supernova/utxo"
	"github.com/supernova-labs/supernova/validate"
	"github.com/supernova-labs/supernova/wire"
)

// recentTimestampWindow bounds how many preceding block timestamps
// node keeps around for the validator's median-time-past check
// (spec.md §4.9); it mirrors validate.Config.MedianTimeSpan.
const recentTimestampWindow = 11

// node is the single process-wide wiring point named by spec.md §9's
// "Global state" design note: it owns the chain state, UTXO engine,
// mempool, and checkpoint manager singletons, plus the Lightning
// collaborators and the shutdown coordinator that tears all of it down.
// No other type in this program constructs any of these singletons.
type node struct {
	cfg    *config
	params *chaincfg.Params

	utxoEngine  *utxo.Engine
	indexer     *txindex.Indexer
	mempool     *mempool.Pool
	checkpoints *checkpoint.Manager
	chain       *blockchain.ChainState

	validateCfg validate.Config

	localKey    *secp256k1.PrivateKey
	onionRouter *onion.Router
	netGraph    *router.NetworkGraph
	pathFinder  *router.Router
	watchtower  *watchtower.Watchtower

	channelsMu sync.Mutex
	channels   map[chainhash.Hash]*channel.Channel

	headerMu    sync.Mutex
	heights     map[chainhash.Hash]uint64
	timestamps  []uint64 // most-recent-last, bounded to recentTimestampWindow

	shutdownCoord *shutdown.Coordinator
}

// newNode constructs every process-wide singleton from cfg and wires the
// shutdown coordinator's six hooks to them, per spec.md §4.13's ordering.
func newNode(cfg *config) (*node, error) {
	params := chaincfg.MainNetParams()
	if cfg.Network == "regtest" {
		params = chaincfg.RegTestParams()
	}

	mode := quantum.ModeMigration
	if cfg.QuantumMode == "strict" {
		mode = quantum.ModeStrict
	}
	// Falcon and SPHINCS+ remain placeholder-only (§9 Open Questions), so
	// the policy allows only the schemes this program can actually
	// verify: both classical schemes, Dilithium, and their Hybrid
	// composition.
	policy := quantum.NewAlgorithmPolicy(mode, []quantum.Scheme{
		quantum.SchemeSecp256k1ECDSA,
		quantum.SchemeEd25519,
		quantum.SchemeDilithium,
		quantum.SchemeHybrid,
	}, nil)

	utxoEngine, err := utxo.Open(filepath.Join(cfg.DataDir, "utxo"))
	if err != nil {
		return nil, err
	}
	indexer := txindex.New()
	pool := mempool.New(mempool.Config{
		MaxSize:                  cfg.MempoolMaxSize,
		MinFeeRate:               cfg.MinFeeRate,
		MaxAgeSeconds:            uint64(72 * time.Hour / time.Second),
		EnableRBF:                true,
		MinRBFFeeIncreasePercent: 10,
		RecentlyEvictedSize:      uint64(cfg.MempoolMaxSize),
	}, mempool.ZeroScorer{})
	checkpoints := checkpoint.New(checkpoint.Config{
		StrictMode:             false,
		AutoCheckpointEnabled:  true,
		AutoCheckpointDepth:    100,
		AutoCheckpointInterval: 1000,
	})

	chain, err := blockchain.New(blockchain.Config{
		Policy:        blockchain.PolicyMostWork,
		MaxForkLength: cfg.MaxForkLength,
	}, params.GenesisBlock, utxoEngine, indexer, pool, checkpoints)
	if err != nil {
		return nil, err
	}

	sigCache, err := quantum.NewSigCache(cfg.SigCacheMaxEntries)
	if err != nil {
		return nil, err
	}

	validateCfg := validate.Config{
		CoinbaseMaturity: cfg.CoinbaseMaturity,
		MedianTimeSpan:   recentTimestampWindow,
		SubsidyAt:        params.CalcBlockSubsidy,
		Policy:           policy,
		SigCache:         sigCache,
	}

	localKey, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, err
	}

	n := &node{
		cfg:         cfg,
		params:      params,
		utxoEngine:  utxoEngine,
		indexer:     indexer,
		mempool:     pool,
		checkpoints: checkpoints,
		chain:       chain,
		validateCfg: validateCfg,
		localKey:    localKey,
		onionRouter: onion.NewRouter(localKey),
		netGraph:    router.NewNetworkGraph(),
		watchtower:  watchtower.New(),
		channels:    make(map[chainhash.Hash]*channel.Channel),
		heights:     make(map[chainhash.Hash]uint64),
	}

	var localNodeID router.NodeID
	copy(localNodeID[:], localKey.PubKey().SerializeCompressed())
	n.netGraph.AddNode(localNodeID)
	n.pathFinder = router.NewRouter(localNodeID, n.netGraph)

	genesisHash := params.GenesisBlock.Header.Hash()
	n.heights[genesisHash] = 0
	n.timestamps = append(n.timestamps, params.GenesisBlock.Header.Timestamp)

	n.shutdownCoord = shutdown.New(shutdown.DefaultConfig(filepath.Join(cfg.DataDir, "shutdown_status.json")), shutdown.Hooks{
		StopAcceptingConnections:   func() error { return nil },
		FinishInFlightTransactions: func() error { return nil },
		DrainLightningChannels:     n.drainLightningChannels,
		FlushUTXOSet:               n.utxoEngine.Close,
		CloseNetwork:               func() error { return nil },
		PersistMetrics:             func() error { return nil },
	})
	return n, nil
}

// drainLightningChannels force-closes every still-open channel so its
// settlement transaction reaches the mempool before the UTXO set is
// flushed, per spec.md §4.13's "drain Lightning HTLCs / close channels
// cooperatively" phase.
func (n *node) drainLightningChannels() error {
	n.channelsMu.Lock()
	defer n.channelsMu.Unlock()

	for id, ch := range n.channels {
		if state := ch.State(); state == channel.Closed || state == channel.ForceClosed {
			continue
		}
		commitment, err := ch.ForceClose()
		if err != nil {
			log.Warnf("shutdown: force-closing channel %s: %s", id, err)
			continue
		}
		if err := n.mempool.AddTransaction(commitment.Tx, 0, true); err != nil {
			log.Warnf("shutdown: admitting settlement transaction for channel %s: %s", id, err)
		}
	}
	return nil
}

// IngestBlock runs the full C9 -> C7 pipeline spec.md §9 describes: full
// block validation against the current UTXO snapshot, then tip update
// (possibly triggering a reorg). ChainState.AcceptBlock never calls the
// validator itself, so this ordering is the caller's responsibility.
func (n *node) IngestBlock(block *wire.Block) error {
	n.headerMu.Lock()
	parentHash := block.Header.PrevHash
	parentHeight, known := n.heights[parentHash]
	recent := append([]uint64(nil), n.timestamps...)
	n.headerMu.Unlock()
	if !known {
		return errUnknownParent(parentHash)
	}
	height := parentHeight + 1

	if err := validate.ValidateBlock(block, height, recent, n.hashKnown, n.utxoEngine, n.validateCfg); err != nil {
		return err
	}
	if err := n.chain.AcceptBlock(block); err != nil {
		return err
	}

	hash := block.Header.Hash()
	n.headerMu.Lock()
	n.heights[hash] = height
	n.timestamps = append(n.timestamps, block.Header.Timestamp)
	if len(n.timestamps) > recentTimestampWindow {
		n.timestamps = n.timestamps[len(n.timestamps)-recentTimestampWindow:]
	}
	n.headerMu.Unlock()
	return nil
}

func (n *node) hashKnown(h chainhash.Hash) bool {
	n.headerMu.Lock()
	defer n.headerMu.Unlock()
	_, ok := n.heights[h]
	return ok
}

// OpenChannel constructs a new channel under cfg and registers it so
// drainLightningChannels (and, eventually, an RPC/transport layer
// outside this spec's scope) can find it by ChannelID.
func (n *node) OpenChannel(cfg channel.Config, localBalance, remoteBalance uint64) *channel.Channel {
	ch := channel.New(cfg, localBalance, remoteBalance)
	n.channelsMu.Lock()
	n.channels[cfg.ChannelID] = ch
	n.channelsMu.Unlock()
	return ch
}

// ProcessOnionPacket peels one layer off an incoming onion packet using
// the node's local key, returning the payload for this hop and (unless
// this is the final hop) the packet to relay onward.
func (n *node) ProcessOnionPacket(packet *onion.Packet, associatedData []byte) (*onion.ProcessResult, error) {
	return n.onionRouter.Process(packet, associatedData)
}

// FindRoute delegates to the path-finder over the node's network graph.
func (n *node) FindRoute(destination router.NodeID, amountMsat uint64, hints []router.RouteHint) (*router.PaymentPath, error) {
	return n.pathFinder.FindRoute(destination, amountMsat, hints)
}

// ObserveTransaction feeds a newly-seen transaction to the watchtower and
// admits any decrypted breach remedy into the mempool for broadcast.
func (n *node) ObserveTransaction(tx *wire.Transaction) ([]watchtower.BreachRemedy, error) {
	remedies, err := n.watchtower.ObserveTransaction(tx)
	if err != nil {
		return nil, err
	}
	for _, remedy := range remedies {
		if err := n.mempool.AddTransaction(remedy.RemedyTx, 0, true); err != nil {
			log.Warnf("watchtower: admitting breach remedy for channel %s: %s", remedy.ChannelID, err)
		}
	}
	return remedies, nil
}

// IngestTransaction runs the C9 -> C5 pipeline: transaction-level
// validation against the current UTXO snapshot, then mempool admission
// at the derived fee rate.
func (n *node) IngestTransaction(tx *wire.Transaction, lightningBoost bool) error {
	height := n.chain.Tip().Height + 1

	fee, err := validate.ValidateTransaction(tx, height, n.utxoEngine, n.validateCfg)
	if err != nil {
		return err
	}

	size := uint64(1)
	if sz, err := tx.SerializeSize(); err == nil && sz > 0 {
		size = uint64(sz)
	}
	feeRate := fee / size

	return n.mempool.AddTransaction(tx, feeRate, lightningBoost)
}
