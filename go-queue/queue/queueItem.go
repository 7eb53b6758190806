package queue

import (
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Charana123/dcqueue/go-queue/hash"
)

type QueueToken uint32

// BundleToken refers to a bundle owned elsewhere. The zero value means the
// item belongs to no bundle.
type BundleToken uint32

const NO_BUNDLE BundleToken = 0

var lastToken atomic.Uint32

// NextToken returns a token not handed out before in this process.
func NextToken() QueueToken {
	return QueueToken(lastToken.Add(1))
}

// ReserveToken keeps NextToken from ever returning token or anything below
// it. Restored items call this so generated tokens cannot collide with them.
func ReserveToken(token QueueToken) {
	for {
		last := lastToken.Load()
		if last >= uint32(token) || lastToken.CompareAndSwap(last, uint32(token)) {
			return
		}
	}
}

// QueueItem is a file queued for download. Target, flags and bundle only
// change through the FileQueue that owns the item; the embedded lock guards
// the source lists, which download code updates directly.
type QueueItem struct {
	sync.RWMutex
	target     string
	tempTarget string
	size       int64
	tth        hash.TTHValue
	token      QueueToken
	priority   Priority
	added      time.Time
	flags      Flags
	bundle     BundleToken
	sources    []*Source
	badSources []*Source
}

func NewQueueItem(
	target string,
	size int64,
	priority Priority,
	flags Flags,
	added time.Time,
	tth hash.TTHValue,
	tempTarget string) *QueueItem {

	return NewQueueItemWithToken(NextToken(), target, size, priority, flags, added, tth, tempTarget)
}

// NewQueueItemWithToken is NewQueueItem for callers restoring items whose
// token was assigned earlier.
func NewQueueItemWithToken(
	token QueueToken,
	target string,
	size int64,
	priority Priority,
	flags Flags,
	added time.Time,
	tth hash.TTHValue,
	tempTarget string) *QueueItem {

	if size < 0 {
		panic(fmt.Sprintf("negative size %d for %s", size, target))
	}
	ReserveToken(token)
	return &QueueItem{
		target:     filepath.Clean(target),
		tempTarget: tempTarget,
		size:       size,
		tth:        tth,
		token:      token,
		priority:   priority,
		added:      added,
		flags:      flags,
	}
}

func (qi *QueueItem) GetTarget() string { return qi.target }
func (qi *QueueItem) GetTempTarget() string { return qi.tempTarget }
func (qi *QueueItem) GetSize() int64 { return qi.size }
func (qi *QueueItem) GetTTH() hash.TTHValue { return qi.tth }
func (qi *QueueItem) GetToken() QueueToken { return qi.token }
func (qi *QueueItem) GetPriority() Priority { return qi.priority }
func (qi *QueueItem) GetAdded() time.Time { return qi.added }
func (qi *QueueItem) GetFlags() Flags { return qi.flags }
func (qi *QueueItem) GetBundle() BundleToken { return qi.bundle }
func (qi *QueueItem) IsSet(flag Flags) bool { return qi.flags.IsSet(flag) }
func (qi *QueueItem) IsFinished() bool { return qi.flags.IsSet(FLAG_FINISHED) }
func (qi *QueueItem) HasBundle() bool { return qi.bundle != NO_BUNDLE }

// countsTowardQueue decides whether the item's bytes are part of the
// queue size total. A finished item still in a bundle is accounted for by
// the bundle.
func (qi *QueueItem) countsTowardQueue() bool {
	if qi.flags.IsSet(FLAG_USER_LIST) || qi.flags.IsSet(FLAG_CLIENT_VIEW) {
		return false
	}
	return !qi.IsFinished() || !qi.HasBundle()
}

func (qi *QueueItem) String() string {
	return fmt.Sprintf("%s (%d bytes, %s)", qi.target, qi.size, qi.tth)
}

// GetSources returns a copy of the good source list.
func (qi *QueueItem) GetSources() []*Source {
	qi.RLock()
	defer qi.RUnlock()

	return append([]*Source(nil), qi.sources...)
}

// GetBadSources returns a copy of the blacklisted source list.
func (qi *QueueItem) GetBadSources() []*Source {
	qi.RLock()
	defer qi.RUnlock()

	return append([]*Source(nil), qi.badSources...)
}

func (qi *QueueItem) IsSource(user HintedUser) bool {
	qi.RLock()
	defer qi.RUnlock()

	return indexOf(qi.sources, user) >= 0
}

func (qi *QueueItem) IsBadSource(user HintedUser) bool {
	qi.RLock()
	defer qi.RUnlock()

	return indexOf(qi.badSources, user) >= 0
}

// AddSource adds a good source. A user on the bad list is moved back,
// keeping its partial info but dropping the reasons it was blacklisted.
func (qi *QueueItem) AddSource(src *Source) error {
	qi.Lock()
	defer qi.Unlock()

	if indexOf(qi.sources, src.User) >= 0 {
		return fmt.Errorf("%w: %s", ErrSourceExists, src.User.CID)
	}
	if i := indexOf(qi.badSources, src.User); i >= 0 {
		bad := qi.badSources[i]
		qi.badSources = append(qi.badSources[:i], qi.badSources[i+1:]...)
		if src.Partial == nil {
			src.Partial = bad.Partial
		}
		src.Flags.Unset(SOURCE_MASK)
	}
	qi.sources = append(qi.sources, src)
	return nil
}

// BlacklistSource moves a good source to the bad list, recording reason.
// A user that is already bad only gets the reason added.
func (qi *QueueItem) BlacklistSource(user HintedUser, reason Flags) bool {
	qi.Lock()
	defer qi.Unlock()

	if i := indexOf(qi.badSources, user); i >= 0 {
		qi.badSources[i].Flags.Set(reason)
		return true
	}
	i := indexOf(qi.sources, user)
	if i < 0 {
		return false
	}
	src := qi.sources[i]
	qi.sources = append(qi.sources[:i], qi.sources[i+1:]...)
	src.Flags.Set(reason)
	qi.badSources = append(qi.badSources, src)
	return true
}

// RemoveSource forgets the user from both lists.
func (qi *QueueItem) RemoveSource(user HintedUser) bool {
	qi.Lock()
	defer qi.Unlock()

	removed := false
	if i := indexOf(qi.sources, user); i >= 0 {
		qi.sources = append(qi.sources[:i], qi.sources[i+1:]...)
		removed = true
	}
	if i := indexOf(qi.badSources, user); i >= 0 {
		qi.badSources = append(qi.badSources[:i], qi.badSources[i+1:]...)
		removed = true
	}
	return removed
}

func indexOf(sources []*Source, user HintedUser) int {
	for i, s := range sources {
		if s.User.CID == user.CID {
			return i
		}
	}
	return -1
}
