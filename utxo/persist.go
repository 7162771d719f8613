package utxo

import (
	"encoding/binary"
	"os"

	"github.com/supernova-labs/supernova/wire"
)

// Save writes the full in-memory UTXO map to a temp file, fsyncs it, and
// renames it atomically over the main data file (spec.md's save()). The
// WAL is truncated afterward since the snapshot now reflects every
// committed mutation.
func (e *Engine) Save() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	tmpPath := e.dataPath + ".tmp"
	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return errIO("create snapshot temp file", err)
	}

	buf := encodeSnapshot(e.utxos)
	if _, err := f.Write(buf); err != nil {
		f.Close()
		return errIO("write snapshot", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return errIO("fsync snapshot", err)
	}
	if err := f.Close(); err != nil {
		return errIO("close snapshot temp file", err)
	}
	if err := os.Rename(tmpPath, e.dataPath); err != nil {
		return errIO("rename snapshot into place", err)
	}
	return e.wal.truncate()
}

// loadSnapshot reads the main data file into the in-memory map, if it
// exists. A missing file means a fresh engine with no prior state.
func (e *Engine) loadSnapshot() error {
	buf, err := os.ReadFile(e.dataPath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errIO("read snapshot", err)
	}
	utxos, err := decodeSnapshot(buf)
	if err != nil {
		return err
	}
	e.utxos = utxos
	return nil
}

// encodeSnapshot serializes the full UTXO map as a count followed by
// repeated (OutPoint, value, script, height, isCoinbase) records, reusing
// the WAL's field layout.
func encodeSnapshot(utxos map[wire.OutPoint]UnspentOutput) []byte {
	buf := appendUint32(nil, uint32(len(utxos)))
	for op, out := range utxos {
		buf = appendOutPoint(buf, op)
		buf = appendUint64(buf, out.Value)
		buf = appendUint32(buf, uint32(len(out.ScriptPubKey)))
		buf = append(buf, out.ScriptPubKey...)
		buf = appendUint64(buf, out.Height)
		if out.IsCoinbase {
			buf = append(buf, 1)
		} else {
			buf = append(buf, 0)
		}
	}
	return buf
}

func decodeSnapshot(buf []byte) (map[wire.OutPoint]UnspentOutput, error) {
	if len(buf) < 4 {
		return nil, errSerialization("snapshot truncated", nil)
	}
	count := binary.LittleEndian.Uint32(buf[:4])
	r := newByteReader(buf[4:])
	utxos := make(map[wire.OutPoint]UnspentOutput, count)
	for i := uint32(0); i < count; i++ {
		op, err := r.outPoint()
		if err != nil {
			return nil, err
		}
		value, err := r.uint64()
		if err != nil {
			return nil, err
		}
		scriptLen, err := r.uint32()
		if err != nil {
			return nil, err
		}
		script, err := r.bytes(int(scriptLen))
		if err != nil {
			return nil, err
		}
		height, err := r.uint64()
		if err != nil {
			return nil, err
		}
		isCoinbase, err := r.byte()
		if err != nil {
			return nil, err
		}
		utxos[op] = UnspentOutput{
			Value:        value,
			ScriptPubKey: script,
			Height:       height,
			IsCoinbase:   isCoinbase != 0,
		}
	}
	return utxos, nil
}
