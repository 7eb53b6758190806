package queue

import "time"

// HintedUser is a remote user together with the hub it was seen on.
type HintedUser struct {
	CID string
	Hub string
}

// PartialSource holds what is known about a source that shares the file
// while still downloading it. Queries are sent out of band over UDP.
type PartialSource struct {
	MyNick    string
	HubIpPort string
	Ip        string
	UdpPort   string
	// Parts are start/end segment pairs the source has announced
	Parts             []uint16
	NextQueryTime     time.Time
	PendingQueryCount uint8
}

type Source struct {
	User    HintedUser
	Flags   Flags
	Partial *PartialSource
}

func NewSource(user HintedUser, flags Flags) *Source {
	return &Source{
		User:  user,
		Flags: flags,
	}
}

// NewPartialSource returns a source carrying the partial file sharing flag.
func NewPartialSource(user HintedUser, ps *PartialSource) *Source {
	return &Source{
		User:    user,
		Flags:   SOURCE_PARTIAL,
		Partial: ps,
	}
}

// dueForQuery reports whether a partial status query may be sent now.
func (s *Source) dueForQuery(now time.Time) bool {
	if !s.Flags.IsSet(SOURCE_PARTIAL) || s.Partial == nil {
		return false
	}
	ps := s.Partial
	return !ps.NextQueryTime.After(now) &&
		int(ps.PendingQueryCount) < MAX_PENDING_QUERIES &&
		ps.UdpPort != ""
}
