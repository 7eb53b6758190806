package queue

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/Charana123/dcqueue/go-queue/hash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tthOf(b byte) hash.TTHValue {
	var tth hash.TTHValue
	for i := range tth {
		tth[i] = b
	}
	return tth
}

var added = time.Unix(1500000000, 0)

func addFile(t *testing.T, fq FileQueue, target string, size int64, tth hash.TTHValue, flags Flags) *QueueItem {
	qi, inserted := fq.Add(target, size, flags, NORMAL, target+".dctmp", added, tth)
	require.True(t, inserted, "insert %s", target)
	return qi
}

func TestDuplicateTarget(t *testing.T) {
	fq := NewFileQueue()

	a := NewQueueItemWithToken(1001, "/x", 1000, NORMAL, FLAG_NORMAL, added, tthOf(1), "")
	got, inserted := fq.AddItem(a)
	assert.True(t, inserted)
	assert.Same(t, a, got)

	b := NewQueueItemWithToken(1002, "/x", 2000, NORMAL, FLAG_NORMAL, added, tthOf(2), "")
	got, inserted = fq.AddItem(b)
	assert.False(t, inserted)
	assert.Same(t, a, got)

	assert.Equal(t, int64(1000), fq.Size())
	assert.Equal(t, 1, fq.Len())
	assert.Nil(t, fq.FindToken(1002))
	assert.Empty(t, fq.FindFiles(tthOf(2)))

	fq.Remove(a)
	assert.Equal(t, int64(0), fq.Size())
	assert.Nil(t, fq.FindFile("/x"))
	assert.Nil(t, fq.FindToken(1001))
	assert.Empty(t, fq.FindFiles(tthOf(1)))
}

func TestAddBuildsItem(t *testing.T) {
	fq := NewFileQueue()

	qi, inserted := fq.Add("/downloads/./a.bin", 10, FLAG_PRIVATE, HIGH, "/tmp/a.bin.dctmp", added, tthOf(1))
	require.True(t, inserted)
	assert.Equal(t, "/downloads/a.bin", qi.GetTarget())
	assert.Equal(t, "/tmp/a.bin.dctmp", qi.GetTempTarget())
	assert.Equal(t, HIGH, qi.GetPriority())
	assert.Equal(t, added, qi.GetAdded())
	assert.True(t, qi.IsSet(FLAG_PRIVATE))
	assert.NotZero(t, qi.GetToken())

	assert.Same(t, qi, fq.FindFile("/downloads/a.bin"))
	assert.Same(t, qi, fq.FindFile("/downloads//a.bin"))
	assert.Same(t, qi, fq.FindToken(qi.GetToken()))

	again, inserted := fq.Add("/downloads/a.bin", 99, FLAG_NORMAL, LOW, "", added, tthOf(2))
	assert.False(t, inserted)
	assert.Same(t, qi, again)
}

func TestSizeExemptItems(t *testing.T) {
	fq := NewFileQueue()

	list := addFile(t, fq, "/lists/alice.xml.bz2", 500, tthOf(1), FLAG_USER_LIST)
	view := addFile(t, fq, "/view/readme.txt", 50, tthOf(2), FLAG_CLIENT_VIEW|FLAG_TEXT)
	normal := addFile(t, fq, "/files/a.bin", 1000, tthOf(3), FLAG_NORMAL)
	finished := addFile(t, fq, "/files/b.bin", 300, tthOf(4), FLAG_FINISHED)
	assert.Equal(t, int64(1300), fq.Size())

	fq.Remove(list)
	fq.Remove(view)
	assert.Equal(t, int64(1300), fq.Size())
	fq.Remove(finished)
	assert.Equal(t, int64(1000), fq.Size())
	fq.Remove(normal)
	assert.Equal(t, int64(0), fq.Size())
}

func TestFinishedInBundle(t *testing.T) {
	fq := NewFileQueue()

	qi := addFile(t, fq, "/bundle/a.bin", 700, tthOf(1), FLAG_NORMAL)
	other := addFile(t, fq, "/bundle/b.bin", 300, tthOf(2), FLAG_NORMAL)
	fq.SetBundle(qi, 7)
	fq.SetBundle(other, 7)
	assert.Equal(t, int64(1000), fq.Size())

	fq.SetFinished(qi, true)
	assert.True(t, qi.IsFinished())
	assert.Equal(t, int64(300), fq.Size())

	// finished items of a bundle were already taken off the total
	fq.Remove(qi)
	assert.Equal(t, int64(300), fq.Size())

	fq.SetFinished(other, true)
	assert.Equal(t, int64(0), fq.Size())
	fq.SetBundle(other, NO_BUNDLE)
	assert.Equal(t, int64(300), fq.Size())
	fq.SetFinished(other, false)
	assert.Equal(t, int64(300), fq.Size())
	fq.Remove(other)
	assert.Equal(t, int64(0), fq.Size())
}

func TestSharedTTH(t *testing.T) {
	fq := NewFileQueue()

	file := addFile(t, fq, "/files/a.bin", 100, tthOf(1), FLAG_NORMAL)
	view := addFile(t, fq, "/view/a.bin", 100, tthOf(1), FLAG_CLIENT_VIEW)
	assert.ElementsMatch(t, []*QueueItem{file, view}, fq.FindFiles(tthOf(1)))

	fq.Remove(view)
	assert.Equal(t, []*QueueItem{file}, fq.FindFiles(tthOf(1)))
	assert.Same(t, file, fq.GetQueuedFile(tthOf(1)))
}

func TestMove(t *testing.T) {
	fq := NewFileQueue()

	qi := addFile(t, fq, "/files/a.bin", 100, tthOf(1), FLAG_NORMAL)
	taken := addFile(t, fq, "/files/b.bin", 50, tthOf(2), FLAG_NORMAL)

	require.NoError(t, fq.Move(qi, "/archive/a.bin"))
	assert.Equal(t, "/archive/a.bin", qi.GetTarget())
	assert.Nil(t, fq.FindFile("/files/a.bin"))
	assert.Same(t, qi, fq.FindFile("/archive/a.bin"))
	assert.Same(t, qi, fq.FindToken(qi.GetToken()))
	assert.Equal(t, []*QueueItem{qi}, fq.FindFiles(tthOf(1)))
	assert.Equal(t, int64(150), fq.Size())

	assert.NoError(t, fq.Move(qi, "/archive/a.bin"))

	err := fq.Move(qi, "/files/b.bin")
	assert.ErrorIs(t, err, ErrTargetExists)
	assert.Equal(t, "/archive/a.bin", qi.GetTarget())
	assert.Same(t, taken, fq.FindFile("/files/b.bin"))

	fq.Remove(qi)
	assert.ErrorIs(t, fq.Move(qi, "/elsewhere"), ErrNotQueued)
}

func TestRemoveUnknownPanics(t *testing.T) {
	fq := NewFileQueue()
	qi := addFile(t, fq, "/files/a.bin", 100, tthOf(1), FLAG_NORMAL)
	stranger := NewQueueItem("/files/b.bin", 100, NORMAL, FLAG_NORMAL, added, tthOf(1), "")

	assert.Panics(t, func() { fq.Remove(stranger) })

	fq.Remove(qi)
	assert.Panics(t, func() { fq.Remove(qi) })
	assert.Equal(t, int64(0), fq.Size())
}

func TestTokenCollisionPanics(t *testing.T) {
	fq := NewFileQueue()
	_, inserted := fq.AddItem(NewQueueItemWithToken(5, "/a", 1, NORMAL, FLAG_NORMAL, added, tthOf(1), ""))
	require.True(t, inserted)

	assert.Panics(t, func() {
		fq.AddItem(NewQueueItemWithToken(5, "/b", 1, NORMAL, FLAG_NORMAL, added, tthOf(2), ""))
	})
	assert.Nil(t, fq.FindFile("/b"))
	assert.Equal(t, int64(1), fq.Size())
}

func TestRestoredTokenNotReissued(t *testing.T) {
	fq := NewFileQueue()
	restored := NextToken() + 1
	_, inserted := fq.AddItem(NewQueueItemWithToken(restored, "/restored", 1, NORMAL, FLAG_NORMAL, added, tthOf(1), ""))
	require.True(t, inserted)

	var fresh *QueueItem
	require.NotPanics(t, func() {
		fresh = addFile(t, fq, "/fresh", 1, tthOf(2), FLAG_NORMAL)
	})
	assert.Greater(t, fresh.GetToken(), restored)
	assert.Equal(t, 2, fq.Len())

	// a token far ahead of the counter moves it along too
	ahead := restored + 1000
	NewQueueItemWithToken(ahead, "/ahead", 1, NORMAL, FLAG_NORMAL, added, tthOf(3), "")
	assert.Greater(t, NextToken(), ahead)
}

func TestUsers(t *testing.T) {
	fq := NewFileQueue()
	a := addFile(t, fq, "/a", 1, tthOf(1), FLAG_NORMAL)
	b := addFile(t, fq, "/b", 1, tthOf(2), FLAG_NORMAL)
	require.NoError(t, a.AddSource(NewSource(HintedUser{CID: "alice"}, SOURCE_NONE)))
	require.NoError(t, b.AddSource(NewSource(HintedUser{CID: "alice"}, SOURCE_NONE)))
	require.NoError(t, b.AddSource(NewSource(HintedUser{CID: "bob"}, SOURCE_NONE)))
	b.BlacklistSource(HintedUser{CID: "bob"}, SOURCE_SLOW_SOURCE)

	users := fq.Users()
	assert.Equal(t, 1, users.Cardinality())
	assert.True(t, users.Contains("alice"))
}

// checkIndices verifies that every live item is reachable through all
// three indices and that the size total matches the live items.
func checkIndices(t *testing.T, fq FileQueue, live map[*QueueItem]bool) {
	var expected int64
	for qi := range live {
		require.Same(t, qi, fq.FindFile(qi.GetTarget()))
		require.Same(t, qi, fq.FindToken(qi.GetToken()))
		require.Contains(t, fq.FindFiles(qi.GetTTH()), qi)
		if qi.countsTowardQueue() {
			expected += qi.GetSize()
		}
	}
	require.Equal(t, len(live), fq.Len())
	require.Equal(t, expected, fq.Size())
	require.GreaterOrEqual(t, fq.Size(), int64(0))
}

func TestIndicesStayInSync(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	fq := NewFileQueue()
	live := map[*QueueItem]bool{}
	removed := []*QueueItem{}
	flagChoices := []Flags{FLAG_NORMAL, FLAG_NORMAL, FLAG_USER_LIST, FLAG_CLIENT_VIEW, FLAG_FINISHED}

	pick := func() *QueueItem {
		for qi := range live {
			return qi
		}
		return nil
	}

	for step := 0; step < 2000; step++ {
		switch op := rnd.Intn(6); {
		case op <= 1:
			target := fmt.Sprintf("/q/%d", rnd.Intn(50))
			qi, inserted := fq.Add(target, rnd.Int63n(10000), flagChoices[rnd.Intn(len(flagChoices))], NORMAL, "", added, tthOf(byte(rnd.Intn(8))))
			if inserted {
				live[qi] = true
			}
		case op == 2:
			if qi := pick(); qi != nil {
				fq.Remove(qi)
				delete(live, qi)
				removed = append(removed, qi)
			}
		case op == 3:
			if qi := pick(); qi != nil {
				fq.Move(qi, fmt.Sprintf("/q/%d", rnd.Intn(50)))
			}
		case op == 4:
			if qi := pick(); qi != nil {
				fq.SetFinished(qi, rnd.Intn(2) == 0)
			}
		case op == 5:
			if qi := pick(); qi != nil {
				fq.SetBundle(qi, BundleToken(rnd.Intn(3)))
			}
		}
		checkIndices(t, fq, live)
	}

	for _, qi := range removed {
		assert.Nil(t, fq.FindToken(qi.GetToken()))
		assert.NotContains(t, fq.FindFiles(qi.GetTTH()), qi)
	}
	for qi := range live {
		fq.Remove(qi)
	}
	assert.Equal(t, int64(0), fq.Size())
	assert.Equal(t, 0, fq.Len())
}
