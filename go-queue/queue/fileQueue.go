package queue

import (
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/Charana123/dcqueue/go-queue/hash"
	"github.com/Charana123/dcqueue/go-queue/listing"
	"github.com/Charana123/dcqueue/go-queue/logging"
	mapset "github.com/deckarep/golang-set"
	"go.uber.org/zap"
)

// FileQueue owns every queued file and indexes it by target path, TTH and
// token. All three indices change together.
type FileQueue interface {
	Add(target string, size int64, flags Flags, prio Priority, tempTarget string, added time.Time, tth hash.TTHValue) (qi *QueueItem, inserted bool)
	AddItem(qi *QueueItem) (existing *QueueItem, inserted bool)
	Remove(qi *QueueItem)
	Move(qi *QueueItem, target string) error
	SetFinished(qi *QueueItem, finished bool)
	SetBundle(qi *QueueItem, bundle BundleToken)

	FindFile(target string) *QueueItem
	FindToken(token QueueToken) *QueueItem
	FindFiles(tth hash.TTHValue) []*QueueItem
	GetQueuedFile(tth hash.TTHValue) *QueueItem
	IsFileQueued(tth hash.TTHValue) DupeType
	GetBloom(bloom TTHAdder)
	MatchListing(dl *listing.DirectoryListing) []StringItem
	FindPFSSources(now time.Time, maxResults int) []PFSSource

	Size() int64
	Len() int
	Items() []*QueueItem
	Users() mapset.Set
}

type fileQueue struct {
	sync.RWMutex
	pathQueue  map[string]*QueueItem
	tthIndex   map[hash.TTHValue][]*QueueItem
	tokenQueue map[QueueToken]*QueueItem
	queueSize  int64
}

func NewFileQueue() FileQueue {
	return &fileQueue{
		pathQueue:  make(map[string]*QueueItem),
		tthIndex:   make(map[hash.TTHValue][]*QueueItem),
		tokenQueue: make(map[QueueToken]*QueueItem),
	}
}

func inconsistent(format string, args ...interface{}) {
	err := fmt.Errorf("%w: %s", ErrInconsistent, fmt.Sprintf(format, args...))
	logging.Error("file queue invariant broken", zap.Error(err))
	panic(err)
}

func (fq *fileQueue) Add(
	target string,
	size int64,
	flags Flags,
	prio Priority,
	tempTarget string,
	added time.Time,
	tth hash.TTHValue) (*QueueItem, bool) {

	qi := NewQueueItem(target, size, prio, flags, added, tth, tempTarget)
	return fq.AddItem(qi)
}

// AddItem registers qi. If another item already owns the target, nothing
// changes and that item is returned with inserted false.
func (fq *fileQueue) AddItem(qi *QueueItem) (*QueueItem, bool) {
	fq.Lock()
	defer fq.Unlock()

	if existing, ok := fq.pathQueue[qi.target]; ok {
		logging.Debug("target already queued",
			zap.String("target", qi.target),
			zap.Uint32("token", uint32(existing.token)))
		return existing, false
	}
	if other, ok := fq.tokenQueue[qi.token]; ok {
		inconsistent("token %d of %s already used by %s", qi.token, qi.target, other.target)
	}

	fq.pathQueue[qi.target] = qi
	fq.tthIndex[qi.tth] = append(fq.tthIndex[qi.tth], qi)
	fq.tokenQueue[qi.token] = qi
	if qi.countsTowardQueue() {
		fq.queueSize += qi.size
	}
	return qi, true
}

// Remove deregisters qi from every index. qi must have been obtained from
// this queue; anything else is a programming error and panics.
func (fq *fileQueue) Remove(qi *QueueItem) {
	fq.Lock()
	defer fq.Unlock()

	if fq.pathQueue[qi.target] != qi {
		inconsistent("%s is not in the path index", qi.target)
	}
	if fq.tokenQueue[qi.token] != qi {
		inconsistent("token %d of %s is not in the token index", qi.token, qi.target)
	}
	bucket := fq.tthIndex[qi.tth]
	pos := -1
	for i, other := range bucket {
		if other == qi {
			pos = i
			break
		}
	}
	if pos < 0 {
		inconsistent("%s is not in the tth index under %s", qi.target, qi.tth)
	}
	newSize := fq.queueSize
	if qi.countsTowardQueue() {
		newSize -= qi.size
	}
	if newSize < 0 {
		inconsistent("queue size %d after removing %s", newSize, qi.target)
	}

	delete(fq.pathQueue, qi.target)
	if len(bucket) == 1 {
		delete(fq.tthIndex, qi.tth)
	} else {
		fq.tthIndex[qi.tth] = append(bucket[:pos:pos], bucket[pos+1:]...)
	}
	delete(fq.tokenQueue, qi.token)
	fq.queueSize = newSize
}

// Move changes the target of a queued item. The TTH and token indices and
// the size total are not affected.
func (fq *fileQueue) Move(qi *QueueItem, target string) error {
	fq.Lock()
	defer fq.Unlock()

	target = filepath.Clean(target)
	if fq.pathQueue[qi.target] != qi {
		return fmt.Errorf("%w: %s", ErrNotQueued, qi.target)
	}
	if target == qi.target {
		return nil
	}
	if existing, ok := fq.pathQueue[target]; ok {
		logging.Debug("move target taken",
			zap.String("from", qi.target),
			zap.String("to", target),
			zap.Uint32("token", uint32(existing.token)))
		return fmt.Errorf("%w: %s", ErrTargetExists, target)
	}

	delete(fq.pathQueue, qi.target)
	qi.target = target
	fq.pathQueue[qi.target] = qi
	return nil
}

// SetFinished flags qi finished or not and keeps the size total in step.
func (fq *fileQueue) SetFinished(qi *QueueItem, finished bool) {
	fq.Lock()
	defer fq.Unlock()

	fq.update(qi, func() {
		if finished {
			qi.flags.Set(FLAG_FINISHED)
		} else {
			qi.flags.Unset(FLAG_FINISHED)
		}
	})
}

// SetBundle attaches qi to a bundle, or detaches it with NO_BUNDLE.
func (fq *fileQueue) SetBundle(qi *QueueItem, bundle BundleToken) {
	fq.Lock()
	defer fq.Unlock()

	fq.update(qi, func() {
		qi.bundle = bundle
	})
}

func (fq *fileQueue) update(qi *QueueItem, change func()) {
	if fq.tokenQueue[qi.token] != qi {
		inconsistent("%s is not queued", qi.target)
	}
	before := qi.countsTowardQueue()
	change()
	after := qi.countsTowardQueue()
	switch {
	case before && !after:
		fq.queueSize -= qi.size
	case !before && after:
		fq.queueSize += qi.size
	}
	if fq.queueSize < 0 {
		inconsistent("queue size %d after updating %s", fq.queueSize, qi.target)
	}
}

func (fq *fileQueue) FindFile(target string) *QueueItem {
	fq.RLock()
	defer fq.RUnlock()

	return fq.pathQueue[filepath.Clean(target)]
}

func (fq *fileQueue) FindToken(token QueueToken) *QueueItem {
	fq.RLock()
	defer fq.RUnlock()

	return fq.tokenQueue[token]
}

func (fq *fileQueue) FindFiles(tth hash.TTHValue) []*QueueItem {
	fq.RLock()
	defer fq.RUnlock()

	return append([]*QueueItem{}, fq.tthIndex[tth]...)
}

// Size returns the bytes still pending in the queue.
func (fq *fileQueue) Size() int64 {
	fq.RLock()
	defer fq.RUnlock()

	return fq.queueSize
}

func (fq *fileQueue) Len() int {
	fq.RLock()
	defer fq.RUnlock()

	return len(fq.pathQueue)
}

// Items returns every queued item ordered by target.
func (fq *fileQueue) Items() []*QueueItem {
	fq.RLock()
	defer fq.RUnlock()

	items := make([]*QueueItem, 0, len(fq.pathQueue))
	for _, qi := range fq.pathQueue {
		items = append(items, qi)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].target < items[j].target
	})
	return items
}

// Users returns the CIDs of every user that is a good source of some item.
func (fq *fileQueue) Users() mapset.Set {
	fq.RLock()
	defer fq.RUnlock()

	users := mapset.NewSet()
	for _, qi := range fq.pathQueue {
		qi.RLock()
		for _, s := range qi.sources {
			users.Add(s.User.CID)
		}
		qi.RUnlock()
	}
	return users
}
