package vectorindex

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sbinet/npyio"
)

var flatMagic = []byte("FAQFL2\x01")

// Save writes the index in the native flat format.
func (f *FlatL2) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return err
	}

	if err := f.WriteTo(file); err != nil {
		file.Close()
		os.Remove(tmp)
		return err
	}
	if err := file.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

// WriteTo serialises the index: magic, uint32 dim, uint64 rows, little-endian float32 data.
func (f *FlatL2) WriteTo(w io.Writer) error {
	f.mu.RLock()
	defer f.mu.RUnlock()

	bw := bufio.NewWriter(w)
	if _, err := bw.Write(flatMagic); err != nil {
		return err
	}
	rows := uint64(0)
	if f.dim > 0 {
		rows = uint64(len(f.data) / f.dim)
	}
	if err := binary.Write(bw, binary.LittleEndian, uint32(f.dim)); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, rows); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, f.data); err != nil {
		return err
	}
	return bw.Flush()
}

// ReadFlat parses the native flat format.
func ReadFlat(r io.Reader) (*FlatL2, error) {
	br := bufio.NewReader(r)
	magic := make([]byte, len(flatMagic))
	if _, err := io.ReadFull(br, magic); err != nil {
		return nil, err
	}
	if !bytes.Equal(magic, flatMagic) {
		return nil, ErrBadFormat
	}

	var dim uint32
	var rows uint64
	if err := binary.Read(br, binary.LittleEndian, &dim); err != nil {
		return nil, err
	}
	if err := binary.Read(br, binary.LittleEndian, &rows); err != nil {
		return nil, err
	}

	data := make([]float32, uint64(dim)*rows)
	if err := binary.Read(br, binary.LittleEndian, data); err != nil {
		return nil, fmt.Errorf("read vectors: %w", err)
	}
	return &FlatL2{dim: int(dim), data: data}, nil
}

// LoadFile opens a native index file or a 2-D .npy dump, chosen by extension.
func LoadFile(path string) (*FlatL2, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	if strings.EqualFold(filepath.Ext(path), ".npy") {
		return ReadNPY(file)
	}
	return ReadFlat(file)
}

// ReadNPY reads a C-ordered 2-D float matrix saved by numpy. float64 dumps
// are narrowed to float32.
func ReadNPY(r io.Reader) (*FlatL2, error) {
	npy, err := npyio.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadFormat, err)
	}

	descr := npy.Header.Descr
	if descr.Fortran {
		return nil, fmt.Errorf("%w: fortran-ordered npy data", ErrBadFormat)
	}
	if len(descr.Shape) != 2 {
		return nil, fmt.Errorf("%w: expected a 2-D npy shape, got %v", ErrBadFormat, descr.Shape)
	}
	dim := descr.Shape[1]

	switch descr.Type {
	case "<f4":
		var data []float32
		if err := npy.Read(&data); err != nil {
			return nil, fmt.Errorf("read npy data: %w", err)
		}
		return &FlatL2{dim: dim, data: data}, nil
	case "<f8":
		var wide []float64
		if err := npy.Read(&wide); err != nil {
			return nil, fmt.Errorf("read npy data: %w", err)
		}
		data := make([]float32, len(wide))
		for i, v := range wide {
			data[i] = float32(v)
		}
		return &FlatL2{dim: dim, data: data}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported npy dtype %s", ErrBadFormat, descr.Type)
	}
}
