package stats

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockQueue struct {
	mock.Mock
}

func (m *mockQueue) Size() int64 {
	args := m.Called()
	return args.Get(0).(int64)
}

func (m *mockQueue) Len() int {
	args := m.Called()
	return args.Int(0)
}

func TestQueueGauges(t *testing.T) {
	q := &mockQueue{}
	q.On("Size").Return(int64(1000))
	q.On("Len").Return(3)

	s := NewStats(q)
	expected := `
# HELP dcqueue_queue_items Number of queued files.
# TYPE dcqueue_queue_items gauge
dcqueue_queue_items 3
# HELP dcqueue_queue_size_bytes Bytes still pending in the download queue.
# TYPE dcqueue_queue_size_bytes gauge
dcqueue_queue_size_bytes 1000
`
	err := testutil.CollectAndCompare(s, strings.NewReader(expected),
		"dcqueue_queue_size_bytes", "dcqueue_queue_items")
	assert.NoError(t, err)
	q.AssertExpectations(t)
}

func TestCounters(t *testing.T) {
	q := &mockQueue{}
	q.On("Size").Return(int64(0))
	q.On("Len").Return(0)

	s := NewStats(q)
	s.RecordMatch(2)
	s.RecordMatch(0)
	s.RecordPFSRun(10)
	s.RecordDupeCheck("queued")
	s.RecordDupeCheck("queued")
	s.RecordDupeCheck("none")

	expected := `
# HELP dcqueue_listing_matches_total File listings matched against the queue.
# TYPE dcqueue_listing_matches_total counter
dcqueue_listing_matches_total 2
# HELP dcqueue_listing_matched_items_total Queued files found in matched listings.
# TYPE dcqueue_listing_matched_items_total counter
dcqueue_listing_matched_items_total 2
# HELP dcqueue_pfs_selected_sources_total Partial sources selected for a status query.
# TYPE dcqueue_pfs_selected_sources_total counter
dcqueue_pfs_selected_sources_total 10
# HELP dcqueue_dupe_checks_total Duplicate checks by result.
# TYPE dcqueue_dupe_checks_total counter
dcqueue_dupe_checks_total{result="none"} 1
dcqueue_dupe_checks_total{result="queued"} 2
`
	err := testutil.CollectAndCompare(s, strings.NewReader(expected),
		"dcqueue_listing_matches_total",
		"dcqueue_listing_matched_items_total",
		"dcqueue_pfs_selected_sources_total",
		"dcqueue_dupe_checks_total")
	assert.NoError(t, err)
}

func TestRegister(t *testing.T) {
	q := &mockQueue{}
	q.On("Size").Return(int64(5))
	q.On("Len").Return(1)

	reg := prometheus.NewRegistry()
	require.NoError(t, reg.Register(NewStats(q)))

	families, err := reg.Gather()
	require.NoError(t, err)
	// the labelled dupe counter has no series until first use
	assert.Len(t, families, 6)
}
