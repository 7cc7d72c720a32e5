// Package asar reads and writes the host application's packaged archive
// format: a pickled JSON header describing a file tree, followed by the
// concatenated file contents.
//
// Layout:
//
//	uint32 4 | uint32 headerPickleSize | uint32 payloadSize | uint32 jsonLen | json | padding | data...
//
// All integers are little endian. File offsets in the header are decimal
// strings relative to the start of the data section.
package asar

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strconv"
	"strings"
)

var (
	// ErrEntryNotFound means the requested entry is not in the archive.
	ErrEntryNotFound = errors.New("archive entry not found")

	// ErrInvalidArchive means the header could not be decoded.
	ErrInvalidArchive = errors.New("invalid archive")
)

// maxHeaderSize bounds the JSON header so a corrupt size field cannot make us
// allocate gigabytes.
const maxHeaderSize = 64 << 20

// Reader extracts single entries from archives on disk.
type Reader interface {
	ExtractFile(archivePath, name string) ([]byte, error)
}

// FileReader implements Reader on the local filesystem.
type FileReader struct{}

// ExtractFile opens archivePath and returns the content of entry name.
func (FileReader) ExtractFile(archivePath, name string) ([]byte, error) {
	return ExtractFile(archivePath, name)
}

type entry struct {
	Files    map[string]*entry `json:"files,omitempty"`
	Size     int64             `json:"size,omitempty"`
	Offset   string            `json:"offset,omitempty"`
	Unpacked bool              `json:"unpacked,omitempty"`
	Link     string            `json:"link,omitempty"`
}

func (e *entry) isDir() bool {
	return e.Files != nil
}

// Archive is an opened archive header.
type Archive struct {
	path       string
	root       *entry
	dataOffset int64
}

// Open reads the header of the archive at p.
func Open(p string) (*Archive, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()

	var sizes [4]uint32
	if err := binary.Read(f, binary.LittleEndian, &sizes); err != nil {
		return nil, fmt.Errorf("%w: %s: read header sizes: %v", ErrInvalidArchive, p, err)
	}

	headerSize, jsonLen := sizes[1], sizes[3]
	if sizes[0] != 4 || jsonLen > maxHeaderSize || jsonLen+8 > headerSize {
		return nil, fmt.Errorf("%w: %s: malformed header", ErrInvalidArchive, p)
	}

	raw := make([]byte, jsonLen)
	if _, err := io.ReadFull(f, raw); err != nil {
		return nil, fmt.Errorf("%w: %s: read header: %v", ErrInvalidArchive, p, err)
	}

	var root entry
	if err := json.Unmarshal(raw, &root); err != nil {
		return nil, fmt.Errorf("%w: %s: decode header: %v", ErrInvalidArchive, p, err)
	}
	if root.Files == nil {
		root.Files = map[string]*entry{}
	}

	return &Archive{
		path:       p,
		root:       &root,
		dataOffset: 8 + int64(headerSize),
	}, nil
}

// ExtractFile is a convenience wrapper around Open + ReadFile.
func ExtractFile(archivePath, name string) ([]byte, error) {
	a, err := Open(archivePath)
	if err != nil {
		return nil, err
	}
	return a.ReadFile(name)
}

func (a *Archive) lookup(name string, depth int) (*entry, error) {
	if depth > 32 {
		return nil, fmt.Errorf("%w: %s: too many links", ErrInvalidArchive, name)
	}

	clean := strings.Trim(path.Clean("/"+strings.ReplaceAll(name, "\\", "/")), "/")
	cur := a.root
	if clean == "" {
		return cur, nil
	}

	for _, part := range strings.Split(clean, "/") {
		if !cur.isDir() {
			return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, name)
		}
		next, ok := cur.Files[part]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, name)
		}
		cur = next
	}

	if cur.Link != "" {
		return a.lookup(cur.Link, depth+1)
	}
	return cur, nil
}

// ReadFile returns the content of the file entry name.
func (a *Archive) ReadFile(name string) ([]byte, error) {
	e, err := a.lookup(name, 0)
	if err != nil {
		return nil, err
	}
	if e.isDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrEntryNotFound, name)
	}

	if e.Unpacked {
		return os.ReadFile(path.Join(a.path+".unpacked", strings.ReplaceAll(name, "\\", "/")))
	}

	offset, err := strconv.ParseInt(e.Offset, 10, 64)
	if err != nil || offset < 0 {
		return nil, fmt.Errorf("%w: %s: bad offset %q", ErrInvalidArchive, name, e.Offset)
	}
	if e.Size < 0 {
		return nil, fmt.Errorf("%w: %s: negative size %d", ErrInvalidArchive, name, e.Size)
	}

	f, err := os.Open(a.path)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	// Sizes come from the header, so the entry must lie inside the file
	// before anything is allocated for it.
	if avail := info.Size() - a.dataOffset; offset > avail || e.Size > avail-offset {
		return nil, fmt.Errorf("%w: %s: entry of %d bytes at offset %d exceeds archive", ErrInvalidArchive, name, e.Size, offset)
	}

	buf := make([]byte, e.Size)
	if _, err := f.ReadAt(buf, a.dataOffset+offset); err != nil {
		return nil, fmt.Errorf("%w: %s: read content: %v", ErrInvalidArchive, name, err)
	}
	return buf, nil
}

// Files lists every file entry, slash separated and sorted.
func (a *Archive) Files() []string {
	var out []string
	var walk func(prefix string, e *entry)
	walk = func(prefix string, e *entry) {
		for name, child := range e.Files {
			p := path.Join(prefix, name)
			if child.isDir() {
				walk(p, child)
				continue
			}
			out = append(out, p)
		}
	}
	walk("", a.root)
	sort.Strings(out)
	return out
}

// Pack builds an archive from slash-separated file names and contents.
func Pack(files map[string][]byte) ([]byte, error) {
	root := &entry{Files: map[string]*entry{}}

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	var data []byte
	for _, name := range names {
		parts := strings.Split(strings.Trim(name, "/"), "/")
		dir := root
		for _, part := range parts[:len(parts)-1] {
			next, ok := dir.Files[part]
			if !ok {
				next = &entry{Files: map[string]*entry{}}
				dir.Files[part] = next
			}
			if !next.isDir() {
				return nil, fmt.Errorf("%s: %s is both a file and a directory", name, part)
			}
			dir = next
		}

		content := files[name]
		dir.Files[parts[len(parts)-1]] = &entry{
			Size:   int64(len(content)),
			Offset: strconv.Itoa(len(data)),
		}
		data = append(data, content...)
	}

	header, err := json.Marshal(root)
	if err != nil {
		return nil, err
	}

	padded := (len(header) + 3) &^ 3
	payloadSize := 4 + padded
	headerSize := 4 + payloadSize

	out := make([]byte, 0, 8+headerSize+len(data))
	out = binary.LittleEndian.AppendUint32(out, 4)
	out = binary.LittleEndian.AppendUint32(out, uint32(headerSize))
	out = binary.LittleEndian.AppendUint32(out, uint32(payloadSize))
	out = binary.LittleEndian.AppendUint32(out, uint32(len(header)))
	out = append(out, header...)
	out = append(out, make([]byte, padded-len(header))...)
	out = append(out, data...)

	return out, nil
}
