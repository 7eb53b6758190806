package queue

import (
	"github.com/Charana123/dcqueue/go-queue/hash"
	"github.com/Charana123/dcqueue/go-queue/listing"
	mapset "github.com/deckarep/golang-set"
)

type DupeType int

const (
	DUPE_NONE DupeType = iota
	DUPE_QUEUE_FULL
	DUPE_FINISHED_FULL
)

func (d DupeType) String() string {
	switch d {
	case DUPE_QUEUE_FULL:
		return "queued"
	case DUPE_FINISHED_FULL:
		return "finished"
	default:
		return "none"
	}
}

// TTHAdder receives TTH values, typically a hash.HashBloom.
type TTHAdder interface {
	Add(tth hash.TTHValue)
}

// StringItem pairs a queued item with a path hint. The listing matcher
// leaves Path empty.
type StringItem struct {
	Path string
	Item *QueueItem
}

// GetBloom adds the TTH of every item that belongs to a bundle.
func (fq *fileQueue) GetBloom(bloom TTHAdder) {
	fq.RLock()
	defer fq.RUnlock()

	for tth, items := range fq.tthIndex {
		for _, qi := range items {
			if qi.HasBundle() {
				bloom.Add(tth)
			}
		}
	}
}

// GetQueuedFile returns one of the items queued with tth. Which one is
// unspecified when there are several.
func (fq *fileQueue) GetQueuedFile(tth hash.TTHValue) *QueueItem {
	fq.RLock()
	defer fq.RUnlock()

	if items := fq.tthIndex[tth]; len(items) > 0 {
		return items[0]
	}
	return nil
}

func (fq *fileQueue) IsFileQueued(tth hash.TTHValue) DupeType {
	fq.RLock()
	defer fq.RUnlock()

	items := fq.tthIndex[tth]
	if len(items) == 0 {
		return DUPE_NONE
	}
	if items[0].IsFinished() {
		return DUPE_FINISHED_FULL
	}
	return DUPE_QUEUE_FULL
}

// MatchListing returns the unfinished queued items that a remote listing
// can supply, each at most once. Files must agree on both TTH and size.
func (fq *fileQueue) MatchListing(dl *listing.DirectoryListing) []StringItem {
	fq.RLock()
	defer fq.RUnlock()

	ql := []StringItem{}
	fq.matchDir(dl.GetRoot(), &ql, mapset.NewThreadUnsafeSet())
	return ql
}

func (fq *fileQueue) matchDir(dir *listing.Directory, ql *[]StringItem, matched mapset.Set) {
	for _, d := range dir.Directories {
		// merged search results are not a real directory of this user
		if !d.Adls {
			fq.matchDir(d, ql, matched)
		}
	}

	for _, f := range dir.Files {
		for _, qi := range fq.tthIndex[f.TTH] {
			if qi.IsFinished() || qi.size != f.Size {
				continue
			}
			if matched.Add(qi) {
				*ql = append(*ql, StringItem{Item: qi})
			}
		}
	}
}
