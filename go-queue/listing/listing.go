// Package listing holds the shared-file tree of a remote user as received
// from a file list download. The tree is read only once built.
package listing

import (
	"strings"

	"github.com/Charana123/dcqueue/go-queue/hash"
)

type File struct {
	Name   string
	Size   int64
	TTH    hash.TTHValue
	parent *Directory
}

type Directory struct {
	Name        string
	Directories []*Directory
	Files       []*File
	// Adls marks a synthetic node merging results from several sources
	// rather than a directory that exists on the remote side.
	Adls   bool
	parent *Directory
}

type DirectoryListing struct {
	User string
	Hub  string
	root *Directory
}

func NewDirectoryListing(user, hub string) *DirectoryListing {
	return &DirectoryListing{
		User: user,
		Hub:  hub,
		root: &Directory{},
	}
}

func (dl *DirectoryListing) GetRoot() *Directory {
	return dl.root
}

func NewDirectory(name string, adls bool) *Directory {
	return &Directory{
		Name: name,
		Adls: adls,
	}
}

// AddDirectory links a child into the tree and returns it.
func (d *Directory) AddDirectory(child *Directory) *Directory {
	child.parent = d
	d.Directories = append(d.Directories, child)
	return child
}

func (d *Directory) AddFile(name string, size int64, tth hash.TTHValue) *File {
	f := &File{
		Name:   name,
		Size:   size,
		TTH:    tth,
		parent: d,
	}
	d.Files = append(d.Files, f)
	return f
}

func (d *Directory) GetParent() *Directory {
	return d.parent
}

// Path returns the slash separated path from the listing root, with a
// trailing separator. The root itself has an empty path.
func (d *Directory) Path() string {
	if d.parent == nil {
		return ""
	}
	return d.parent.Path() + d.Name + "/"
}

func (d *Directory) TotalSize() int64 {
	var size int64
	for _, f := range d.Files {
		size += f.Size
	}
	for _, sub := range d.Directories {
		size += sub.TotalSize()
	}
	return size
}

func (d *Directory) FileCount() int {
	count := len(d.Files)
	for _, sub := range d.Directories {
		count += sub.FileCount()
	}
	return count
}

// FindFiles returns every file in the subtree with the given TTH.
func (d *Directory) FindFiles(tth hash.TTHValue) []*File {
	found := []*File{}
	for _, f := range d.Files {
		if f.TTH == tth {
			found = append(found, f)
		}
	}
	for _, sub := range d.Directories {
		found = append(found, sub.FindFiles(tth)...)
	}
	return found
}

// Find resolves a path relative to d, with or without a trailing separator.
func (d *Directory) Find(path string) *Directory {
	path = strings.Trim(path, "/")
	if path == "" {
		return d
	}
	name, rest, _ := strings.Cut(path, "/")
	for _, sub := range d.Directories {
		if strings.EqualFold(sub.Name, name) {
			return sub.Find(rest)
		}
	}
	return nil
}

func (f *File) GetParent() *Directory {
	return f.parent
}

func (f *File) Path() string {
	if f.parent == nil {
		return f.Name
	}
	return f.parent.Path() + f.Name
}
