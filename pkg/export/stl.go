// Package export writes built meshes to output files. Writes are
// atomic: content goes to a temporary file in the destination
// directory and is renamed into place only after a successful sync, so
// a failed job never leaves a partial output behind.
package export

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"draftsolid/pkg/kernel"
)

// ExportError reports a failed write with the operation that failed.
type ExportError struct {
	Path string
	Op   string
	Err  error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export %s: %s: %v", e.Path, e.Op, e.Err)
}

func (e *ExportError) Unwrap() error { return e.Err }

// STL writes the mesh to path as binary STL.
func STL(path string, mesh *kernel.Mesh) error {
	if mesh == nil || mesh.IsEmpty() {
		return &ExportError{Path: path, Op: "validate", Err: fmt.Errorf("mesh is empty")}
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return &ExportError{Path: path, Op: "create temp", Err: err}
	}
	defer func() {
		// No-ops once the rename has happened.
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	w := bufio.NewWriter(tmp)
	if err := writeSTL(w, mesh); err != nil {
		return &ExportError{Path: path, Op: "write", Err: err}
	}
	if err := w.Flush(); err != nil {
		return &ExportError{Path: path, Op: "flush", Err: err}
	}
	if err := tmp.Sync(); err != nil {
		return &ExportError{Path: path, Op: "sync", Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &ExportError{Path: path, Op: "close", Err: err}
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return &ExportError{Path: path, Op: "rename", Err: err}
	}
	return nil
}

// writeSTL emits the binary STL layout: an 80-byte header, a uint32
// triangle count, then 50 bytes per triangle (normal, three vertices,
// attribute word), all little-endian.
func writeSTL(w *bufio.Writer, mesh *kernel.Mesh) error {
	var header [80]byte
	copy(header[:], "draftsolid "+mesh.Name)
	if _, err := w.Write(header[:]); err != nil {
		return err
	}

	count := uint32(mesh.TriangleCount())
	if err := binary.Write(w, binary.LittleEndian, count); err != nil {
		return err
	}

	var rec [50]byte
	for t := 0; t < mesh.TriangleCount(); t++ {
		off := 0
		i0 := mesh.Indices[t*3]

		// Per-vertex normals are flat-shaded per face, so the first
		// corner's normal is the face normal.
		for c := 0; c < 3; c++ {
			binary.LittleEndian.PutUint32(rec[off:], floatBits(mesh.Normals, int(i0)*3+c))
			off += 4
		}
		for v := 0; v < 3; v++ {
			idx := int(mesh.Indices[t*3+v])
			for c := 0; c < 3; c++ {
				binary.LittleEndian.PutUint32(rec[off:], floatBits(mesh.Vertices, idx*3+c))
				off += 4
			}
		}
		binary.LittleEndian.PutUint16(rec[off:], 0)

		if _, err := w.Write(rec[:]); err != nil {
			return err
		}
	}
	return nil
}

func floatBits(arr []float32, i int) uint32 {
	if i >= len(arr) {
		return 0
	}
	return math.Float32bits(arr[i])
}
