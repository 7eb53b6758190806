package manifest

import (
	"fmt"
	"math"
	"time"

	"github.com/Charana123/dcqueue/go-queue/hash"
	"github.com/Charana123/dcqueue/go-queue/listing"
	"github.com/Charana123/dcqueue/go-queue/logging"
	"github.com/Charana123/dcqueue/go-queue/queue"
	"go.uber.org/zap"
)

// Populate adds every manifest item to fq and returns how many were new.
// Items whose target is already queued are skipped. Nothing is added when
// any item fails to validate.
func (q *Queue) Populate(fq queue.FileQueue) (int, error) {
	for i := range q.Items {
		if err := q.Items[i].checkRanges(); err != nil {
			return 0, fmt.Errorf("item %d (%s): %w", i, q.Items[i].Target, err)
		}
	}
	// generated tokens must not land on one restored later in the manifest
	for _, it := range q.Items {
		if it.Token > 0 {
			queue.ReserveToken(queue.QueueToken(it.Token))
		}
	}

	items := make([]*queue.QueueItem, 0, len(q.Items))
	tokens := map[queue.QueueToken]bool{}
	for i := range q.Items {
		qi, err := q.Items[i].build()
		if err != nil {
			return 0, fmt.Errorf("item %d (%s): %w", i, q.Items[i].Target, err)
		}
		if tokens[qi.GetToken()] || fq.FindToken(qi.GetToken()) != nil {
			return 0, fmt.Errorf("item %d (%s): %w: token %d reused", i, q.Items[i].Target, ErrMalformed, qi.GetToken())
		}
		tokens[qi.GetToken()] = true
		items = append(items, qi)
	}

	added := 0
	for i, qi := range items {
		if _, inserted := fq.AddItem(qi); !inserted {
			logging.Warn("skipping duplicate target", zap.String("target", qi.GetTarget()))
			continue
		}
		if b := q.Items[i].Bundle; b > 0 {
			fq.SetBundle(qi, queue.BundleToken(b))
		}
		added++
	}
	return added, nil
}

func inRange(name string, v int64, max uint64) error {
	if v < 0 || uint64(v) > max {
		return fmt.Errorf("%w: %s %d outside 0..%d", ErrMalformed, name, v, max)
	}
	return nil
}

// checkRanges rejects integers that would wrap when narrowed to their
// queue types.
func (it *Item) checkRanges() error {
	if err := inRange("token", it.Token, math.MaxUint32); err != nil {
		return err
	}
	if err := inRange("bundle", it.Bundle, math.MaxUint32); err != nil {
		return err
	}
	if err := inRange("flags", it.Flags, math.MaxUint32); err != nil {
		return err
	}
	for _, sources := range [][]Source{it.Sources, it.BadSources} {
		for _, s := range sources {
			if err := inRange("source flags", s.Flags, math.MaxUint32); err != nil {
				return err
			}
			if err := inRange("pending", s.Partial.Pending, math.MaxUint8); err != nil {
				return err
			}
			for _, p := range s.Partial.Parts {
				if err := inRange("part", p, math.MaxUint16); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (it *Item) build() (*queue.QueueItem, error) {
	if it.Target == "" {
		return nil, fmt.Errorf("%w: missing target", ErrMalformed)
	}
	if it.Size < 0 {
		return nil, fmt.Errorf("%w: negative size %d", ErrMalformed, it.Size)
	}
	tth, err := hash.ParseTTH(it.TTH)
	if err != nil {
		return nil, err
	}
	prio := queue.DEFAULT
	if it.Priority != "" {
		if prio, err = queue.ParsePriority(it.Priority); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
	}

	var qi *queue.QueueItem
	flags := queue.Flags(it.Flags)
	added := time.Unix(it.Added, 0)
	if it.Token > 0 {
		qi = queue.NewQueueItemWithToken(queue.QueueToken(it.Token), it.Target, it.Size, prio, flags, added, tth, it.TempTarget)
	} else {
		qi = queue.NewQueueItem(it.Target, it.Size, prio, flags, added, tth, it.TempTarget)
	}

	for _, s := range it.Sources {
		if err := qi.AddSource(s.build()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
	}
	for _, s := range it.BadSources {
		src := s.build()
		if err := qi.AddSource(src); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		qi.BlacklistSource(src.User, src.Flags)
	}
	return qi, nil
}

func (s *Source) build() *queue.Source {
	src := queue.NewSource(queue.HintedUser{CID: s.CID, Hub: s.Hub}, queue.Flags(s.Flags))
	if src.Flags.IsSet(queue.SOURCE_PARTIAL) {
		parts := make([]uint16, 0, len(s.Partial.Parts))
		for _, p := range s.Partial.Parts {
			parts = append(parts, uint16(p))
		}
		src.Partial = &queue.PartialSource{
			MyNick:            s.Partial.Nick,
			HubIpPort:         s.Partial.HubIpPort,
			Ip:                s.Partial.Ip,
			UdpPort:           s.Partial.UdpPort,
			Parts:             parts,
			NextQueryTime:     time.Unix(s.Partial.NextQuery, 0),
			PendingQueryCount: uint8(s.Partial.Pending),
		}
	}
	return src
}

// Build turns the manifest into a listing tree.
func (l *Listing) Build() (*listing.DirectoryListing, error) {
	dl := listing.NewDirectoryListing(l.User, l.Hub)
	root := dl.GetRoot()
	root.Name = l.Root.Name
	root.Adls = l.Root.Adls != 0
	if err := l.Root.fill(root); err != nil {
		return nil, err
	}
	return dl, nil
}

func (d *Dir) fill(dir *listing.Directory) error {
	for i := range d.Dirs {
		sub := &d.Dirs[i]
		if err := sub.fill(dir.AddDirectory(listing.NewDirectory(sub.Name, sub.Adls != 0))); err != nil {
			return err
		}
	}
	for _, f := range d.Files {
		tth, err := hash.ParseTTH(f.TTH)
		if err != nil {
			return fmt.Errorf("%s%s: %w", dir.Path(), f.Name, err)
		}
		dir.AddFile(f.Name, f.Size, tth)
	}
	return nil
}
