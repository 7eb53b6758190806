package queue

import (
	"sort"
	"time"
)

var (
	// Files below this size are not worth partial sharing
	PARTIAL_SHARE_MIN_SIZE int64 = 20 * 1024 * 1024
	// Sources with this many unanswered queries are left alone
	MAX_PENDING_QUERIES = 10
	MAX_PFS_SOURCES     = 10
)

// PFSSource is a partial source due for a status query, with the item it
// was found on.
type PFSSource struct {
	Source    *Source
	Item      *QueueItem
	nextQuery time.Time
}

// FindPFSSources returns up to maxResults partial sources whose next query
// time has passed, the most overdue first. Bad sources qualify too unless
// they served content that did not match the TTH. maxResults <= 0 means
// MAX_PFS_SOURCES. Updating the query time of the returned sources is the
// caller's business.
func (fq *fileQueue) FindPFSSources(now time.Time, maxResults int) []PFSSource {
	fq.RLock()
	defer fq.RUnlock()

	if maxResults <= 0 {
		maxResults = MAX_PFS_SOURCES
	}

	buffer := []PFSSource{}
	for _, qi := range fq.pathQueue {
		if qi.size < PARTIAL_SHARE_MIN_SIZE {
			continue
		}

		qi.RLock()
		for _, s := range qi.sources {
			if s.dueForQuery(now) {
				buffer = append(buffer, PFSSource{Source: s, Item: qi, nextQuery: s.Partial.NextQueryTime})
			}
		}
		for _, s := range qi.badSources {
			if !s.Flags.IsSet(SOURCE_TTH_INCONSISTENCY) && s.dueForQuery(now) {
				buffer = append(buffer, PFSSource{Source: s, Item: qi, nextQuery: s.Partial.NextQueryTime})
			}
		}
		qi.RUnlock()
	}

	// oldest query time first
	sort.Slice(buffer, func(i, j int) bool {
		return buffer[i].nextQuery.Before(buffer[j].nextQuery)
	})
	if len(buffer) > maxResults {
		buffer = buffer[:maxResults]
	}
	return buffer
}
