// Package manifest reads bencoded descriptions of a download queue and of
// a remote file listing. The command line tools use them as input.
package manifest

import (
	"errors"
	"fmt"
	"io"

	bencode "github.com/jackpal/bencode-go"
	"github.com/spf13/afero"
)

var ErrMalformed = errors.New("malformed manifest")

// AppFS is the filesystem manifests are read from.
var AppFS = afero.NewOsFs()

type Queue struct {
	Items []Item `bencode:"items"`
}

type Item struct {
	Target     string   `bencode:"target"`
	TempTarget string   `bencode:"temp target"`
	Size       int64    `bencode:"size"`
	TTH        string   `bencode:"tth"`
	Token      int64    `bencode:"token"`
	Priority   string   `bencode:"priority"`
	Flags      int64    `bencode:"flags"`
	Added      int64    `bencode:"added"`
	Bundle     int64    `bencode:"bundle"`
	Sources    []Source `bencode:"sources"`
	BadSources []Source `bencode:"bad sources"`
}

type Source struct {
	CID     string  `bencode:"cid"`
	Hub     string  `bencode:"hub"`
	Flags   int64   `bencode:"flags"`
	Partial Partial `bencode:"partial"`
}

type Partial struct {
	Nick      string  `bencode:"nick"`
	HubIpPort string  `bencode:"hub ip port"`
	Ip        string  `bencode:"ip"`
	UdpPort   string  `bencode:"udp port"`
	Parts     []int64 `bencode:"parts"`
	NextQuery int64   `bencode:"next query"`
	Pending   int64   `bencode:"pending"`
}

type Listing struct {
	User string `bencode:"user"`
	Hub  string `bencode:"hub"`
	Root Dir    `bencode:"root"`
}

type Dir struct {
	Name  string `bencode:"name"`
	Adls  int64  `bencode:"adls"`
	Dirs  []Dir  `bencode:"dirs"`
	Files []File `bencode:"files"`
}

type File struct {
	Name string `bencode:"name"`
	Size int64  `bencode:"size"`
	TTH  string `bencode:"tth"`
}

func DecodeQueue(r io.Reader) (*Queue, error) {
	q := &Queue{}
	if err := bencode.Unmarshal(r, q); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return q, nil
}

func DecodeListing(r io.Reader) (*Listing, error) {
	l := &Listing{}
	if err := bencode.Unmarshal(r, l); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return l, nil
}

func LoadQueue(fs afero.Fs, path string) (*Queue, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open queue manifest: %w", err)
	}
	defer f.Close()

	q, err := DecodeQueue(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return q, nil
}

func LoadListing(fs afero.Fs, path string) (*Listing, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open listing manifest: %w", err)
	}
	defer f.Close()

	l, err := DecodeListing(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return l, nil
}
