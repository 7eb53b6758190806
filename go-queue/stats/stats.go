// Package stats exports queue figures as prometheus metrics.
package stats

import (
	"github.com/prometheus/client_golang/prometheus"
)

// QueueSource is the part of the file queue the collector reads at scrape
// time.
type QueueSource interface {
	Size() int64
	Len() int
}

type Stats interface {
	prometheus.Collector
	RecordMatch(matched int)
	RecordPFSRun(selected int)
	RecordDupeCheck(result string)
}

type stats struct {
	queue QueueSource

	sizeDesc  *prometheus.Desc
	itemsDesc *prometheus.Desc

	matchRuns    prometheus.Counter
	matchedItems prometheus.Counter
	pfsRuns      prometheus.Counter
	pfsSelected  prometheus.Counter
	dupeChecks   *prometheus.CounterVec
}

func NewStats(queue QueueSource) Stats {
	return &stats{
		queue: queue,
		sizeDesc: prometheus.NewDesc(
			"dcqueue_queue_size_bytes",
			"Bytes still pending in the download queue.",
			nil, nil),
		itemsDesc: prometheus.NewDesc(
			"dcqueue_queue_items",
			"Number of queued files.",
			nil, nil),
		matchRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dcqueue_listing_matches_total",
			Help: "File listings matched against the queue.",
		}),
		matchedItems: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dcqueue_listing_matched_items_total",
			Help: "Queued files found in matched listings.",
		}),
		pfsRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dcqueue_pfs_runs_total",
			Help: "Partial source selections run.",
		}),
		pfsSelected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dcqueue_pfs_selected_sources_total",
			Help: "Partial sources selected for a status query.",
		}),
		dupeChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dcqueue_dupe_checks_total",
			Help: "Duplicate checks by result.",
		}, []string{"result"}),
	}
}

func (s *stats) RecordMatch(matched int) {
	s.matchRuns.Inc()
	s.matchedItems.Add(float64(matched))
}

func (s *stats) RecordPFSRun(selected int) {
	s.pfsRuns.Inc()
	s.pfsSelected.Add(float64(selected))
}

func (s *stats) RecordDupeCheck(result string) {
	s.dupeChecks.WithLabelValues(result).Inc()
}

func (s *stats) Describe(ch chan<- *prometheus.Desc) {
	ch <- s.sizeDesc
	ch <- s.itemsDesc
	s.matchRuns.Describe(ch)
	s.matchedItems.Describe(ch)
	s.pfsRuns.Describe(ch)
	s.pfsSelected.Describe(ch)
	s.dupeChecks.Describe(ch)
}

func (s *stats) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(s.sizeDesc, prometheus.GaugeValue, float64(s.queue.Size()))
	ch <- prometheus.MustNewConstMetric(s.itemsDesc, prometheus.GaugeValue, float64(s.queue.Len()))
	s.matchRuns.Collect(ch)
	s.matchedItems.Collect(ch)
	s.pfsRuns.Collect(ch)
	s.pfsSelected.Collect(ch)
	s.dupeChecks.Collect(ch)
}
