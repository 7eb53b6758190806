package queue

import "fmt"

type Flags uint32

func (f Flags) IsSet(mask Flags) bool {
	return f&mask != 0
}

func (f Flags) IsAllSet(mask Flags) bool {
	return f&mask == mask
}

func (f *Flags) Set(mask Flags) {
	*f |= mask
}

func (f *Flags) Unset(mask Flags) {
	*f &^= mask
}

// Queue item flags
const (
	FLAG_NORMAL Flags = 0
	// Remote file list download
	FLAG_USER_LIST Flags = 1 << (iota - 1)
	// File list or text file fetched for viewing only
	FLAG_CLIENT_VIEW
	FLAG_OPEN
	FLAG_PARTIAL_LIST
	FLAG_TEXT
	// Match the downloaded file list against the queue
	FLAG_MATCH_QUEUE
	FLAG_RECURSIVE_LIST
	FLAG_PRIVATE
	FLAG_FINISHED
)

// Source flags
const (
	SOURCE_NONE               Flags = 0
	SOURCE_FILE_NOT_AVAILABLE Flags = 1 << (iota - 1)
	SOURCE_PASSIVE
	SOURCE_REMOVED
	SOURCE_NO_TTHF
	SOURCE_BAD_TREE
	SOURCE_SLOW_SOURCE
	SOURCE_NO_TREE
	SOURCE_NO_NEED_PARTS
	// Source shares the file while still downloading it
	SOURCE_PARTIAL
	// Source served content that did not match the TTH
	SOURCE_TTH_INCONSISTENCY
	SOURCE_UNTRUSTED

	// Reasons that move a source to the bad list
	SOURCE_MASK = SOURCE_FILE_NOT_AVAILABLE | SOURCE_PASSIVE | SOURCE_REMOVED |
		SOURCE_BAD_TREE | SOURCE_SLOW_SOURCE | SOURCE_NO_TREE |
		SOURCE_TTH_INCONSISTENCY | SOURCE_UNTRUSTED
)

type Priority int8

const (
	DEFAULT Priority = iota - 1
	PAUSED_FORCE
	PAUSED
	LOWEST
	LOW
	NORMAL
	HIGH
	HIGHEST
)

var priorityNames = map[Priority]string{
	DEFAULT:      "default",
	PAUSED_FORCE: "paused-force",
	PAUSED:       "paused",
	LOWEST:       "lowest",
	LOW:          "low",
	NORMAL:       "normal",
	HIGH:         "high",
	HIGHEST:      "highest",
}

func (p Priority) String() string {
	if name, ok := priorityNames[p]; ok {
		return name
	}
	return fmt.Sprintf("priority(%d)", int8(p))
}

// ParsePriority is the inverse of Priority.String.
func ParsePriority(name string) (Priority, error) {
	for p, n := range priorityNames {
		if n == name {
			return p, nil
		}
	}
	return DEFAULT, fmt.Errorf("unknown priority %q", name)
}
