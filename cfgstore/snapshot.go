package cfgstore

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/cfgforge/cfgforge/engine"
	"github.com/cfgforge/cfgforge/grammar"
)

// maxFrameSize bounds a single snapshot frame, mirroring the teacher's IPC
// framing limits (16 MiB including the length prefix).
const maxFrameSize = 16 * 1024 * 1024

// lengthPrefixSize is the size of the big-endian length prefix in bytes.
const lengthPrefixSize = 4

// snapshotRecord is the msgpack wire shape of engine.Result, avoiding a
// direct msgpack tag dependency on the engine package.
type snapshotRecord struct {
	Derivation  bool                      `msgpack:"derivation"`
	Strings     []string                  `msgpack:"strings,omitempty"`
	Derivations map[string][]grammar.Trace `msgpack:"derivations,omitempty"`
}

func toRecord(r engine.Result) snapshotRecord {
	return snapshotRecord{Derivation: r.Derivation, Strings: r.Strings, Derivations: r.Derivations}
}

func (s snapshotRecord) toResult() engine.Result {
	return engine.Result{Derivation: s.Derivation, Strings: s.Strings, Derivations: s.Derivations}
}

// SaveSnapshot writes result to path as a single length-prefixed msgpack
// frame, adapted from the teacher's ipc frame encoder, stripped down to one
// frame kind since a snapshot file never multiplexes frame types.
func SaveSnapshot(path string, result engine.Result) error {
	payload, err := msgpack.Marshal(toRecord(result))
	if err != nil {
		return fmt.Errorf("cfgstore: encode snapshot: %w", err)
	}
	if lengthPrefixSize+len(payload) > maxFrameSize {
		return fmt.Errorf("cfgstore: snapshot of %d bytes exceeds the %d byte frame limit", len(payload), maxFrameSize)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cfgstore: create %s: %w", path, err)
	}
	defer f.Close()

	var lengthBuf [lengthPrefixSize]byte
	binary.BigEndian.PutUint32(lengthBuf[:], uint32(len(payload)))
	if _, err := f.Write(lengthBuf[:]); err != nil {
		return fmt.Errorf("cfgstore: write %s: %w", path, err)
	}
	if _, err := f.Write(payload); err != nil {
		return fmt.Errorf("cfgstore: write %s: %w", path, err)
	}
	return nil
}

// LoadSnapshot reads a single length-prefixed msgpack frame written by
// SaveSnapshot and decodes it back into an engine.Result.
func LoadSnapshot(path string) (engine.Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return engine.Result{}, fmt.Errorf("cfgstore: open %s: %w", path, err)
	}
	defer f.Close()

	payload, err := readFrame(bufio.NewReader(f))
	if err != nil {
		return engine.Result{}, fmt.Errorf("cfgstore: read %s: %w", path, err)
	}

	var rec snapshotRecord
	if err := msgpack.Unmarshal(payload, &rec); err != nil {
		return engine.Result{}, fmt.Errorf("cfgstore: decode %s: %w", path, err)
	}
	return rec.toResult(), nil
}

func readFrame(r *bufio.Reader) ([]byte, error) {
	var lengthBuf [lengthPrefixSize]byte
	if _, err := io.ReadFull(r, lengthBuf[:]); err != nil {
		return nil, fmt.Errorf("read length prefix: %w", err)
	}
	size := binary.BigEndian.Uint32(lengthBuf[:])
	if lengthPrefixSize+int(size) > maxFrameSize {
		return nil, fmt.Errorf("frame of %d bytes exceeds the %d byte limit", size, maxFrameSize)
	}
	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("read payload: %w", err)
	}
	return payload, nil
}
