package metrics

import (
	"github.com/btnlabs/blockchain/foundation/blockchain/deployer"
	"github.com/btnlabs/blockchain/foundation/blockchain/miner"
	"github.com/btnlabs/blockchain/foundation/blockchain/peer"
	"github.com/prometheus/client_golang/prometheus"
)

// ChainSource is the behavior needed to read the node's chain metrics.
type ChainSource interface {
	RetrieveStatus() peer.PeerStatus
	QueryMempoolLength() int
	RetrieveDeployedContracts() []deployer.Record
	RetrieveMinerStatus() miner.Status
}

// ChainCollector reports the state of the node on every scrape.
type ChainCollector struct {
	src ChainSource

	height     *prometheus.Desc
	length     *prometheus.Desc
	mempool    *prometheus.Desc
	contracts  *prometheus.Desc
	deployed   *prometheus.Desc
	unconfirm  *prometheus.Desc
	peers      *prometheus.Desc
	minerState *prometheus.Desc
}

// NewChainCollector constructs a collector over the specified source.
func NewChainCollector(src ChainSource) *ChainCollector {
	return &ChainCollector{
		src:        src,
		height:     prometheus.NewDesc("btn_chain_height", "Number of the latest block.", nil, nil),
		length:     prometheus.NewDesc("btn_chain_length", "Number of blocks in the chain including genesis.", nil, nil),
		mempool:    prometheus.NewDesc("btn_mempool_ops", "Operations waiting to be mined.", nil, nil),
		contracts:  prometheus.NewDesc("btn_contracts_registered", "Contracts in the registry.", nil, nil),
		deployed:   prometheus.NewDesc("btn_contracts_deployed", "Deployment records that did not fail.", nil, nil),
		unconfirm:  prometheus.NewDesc("btn_contracts_unconfirmed", "Deployed contracts whose deploy op is not mined yet.", nil, nil),
		peers:      prometheus.NewDesc("btn_known_peers", "Known peers.", nil, nil),
		minerState: prometheus.NewDesc("btn_miner_status", "Miner state by name, 1 for the current one.", []string{"status"}, nil),
	}
}

// Describe implements the prometheus.Collector interface.
func (c *ChainCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.height
	ch <- c.length
	ch <- c.mempool
	ch <- c.contracts
	ch <- c.deployed
	ch <- c.unconfirm
	ch <- c.peers
	ch <- c.minerState
}

// Collect implements the prometheus.Collector interface.
func (c *ChainCollector) Collect(ch chan<- prometheus.Metric) {
	status := c.src.RetrieveStatus()
	recs := c.src.RetrieveDeployedContracts()

	var deployed, unconfirmed int
	for _, rec := range recs {
		if rec.Status == deployer.StatusFailed {
			continue
		}
		deployed++
		if rec.BlockNumber == nil {
			unconfirmed++
		}
	}

	ch <- prometheus.MustNewConstMetric(c.height, prometheus.GaugeValue, float64(status.LatestBlockNumber))
	ch <- prometheus.MustNewConstMetric(c.length, prometheus.GaugeValue, float64(status.ChainLength))
	ch <- prometheus.MustNewConstMetric(c.mempool, prometheus.GaugeValue, float64(c.src.QueryMempoolLength()))
	ch <- prometheus.MustNewConstMetric(c.contracts, prometheus.GaugeValue, float64(status.Contracts))
	ch <- prometheus.MustNewConstMetric(c.deployed, prometheus.GaugeValue, float64(deployed))
	ch <- prometheus.MustNewConstMetric(c.unconfirm, prometheus.GaugeValue, float64(unconfirmed))
	ch <- prometheus.MustNewConstMetric(c.peers, prometheus.GaugeValue, float64(len(status.KnownPeers)))

	current := c.src.RetrieveMinerStatus()
	for _, st := range []miner.Status{miner.Idle, miner.Searching, miner.Found, miner.Cancelled} {
		var v float64
		if st == current {
			v = 1
		}
		ch <- prometheus.MustNewConstMetric(c.minerState, prometheus.GaugeValue, v, st.String())
	}
}

// NewRegistry returns a registry holding the chain collector.
func NewRegistry(src ChainSource) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(NewChainCollector(src))
	return reg
}
