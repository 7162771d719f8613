package utxo

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"

	"github.com/supernova-labs/supernova/wire"
)

// encodeWALRecord returns the on-disk encoding of one UtxoTransaction: a sequence of
// length-prefixed records, each fsynced after append (spec.md's "UTXO WAL
// format"). Encoding is fixed binary, not the block/transaction wire
// format, since the WAL never leaves this process.
//
//	uint32 totalLen
//	uint32 numInputs, [OutPoint]*
//	uint32 numOutputs, [OutPoint, uint64 value, uint32 scriptLen, script,
//	        uint64 height, uint8 isCoinbase]*
func encodeWALRecord(tx UtxoTransaction) []byte {
	var buf []byte
	buf = appendUint32(buf, uint32(len(tx.Inputs)))
	for _, op := range tx.Inputs {
		buf = appendOutPoint(buf, op)
	}
	buf = appendUint32(buf, uint32(len(tx.Outputs)))
	for _, o := range tx.Outputs {
		buf = appendOutPoint(buf, o.OutPoint)
		buf = appendUint64(buf, o.Output.Value)
		buf = appendUint32(buf, uint32(len(o.Output.ScriptPubKey)))
		buf = append(buf, o.Output.ScriptPubKey...)
		buf = appendUint64(buf, o.Output.Height)
		if o.Output.IsCoinbase {
			buf = append(buf, 1)
		} else {
			buf = append(buf, 0)
		}
	}

	framed := make([]byte, 0, len(buf)+4)
	framed = appendUint32(framed, uint32(len(buf)))
	framed = append(framed, buf...)
	return framed
}

// decodeWALRecord parses one frame already stripped of its length prefix.
// A frame shorter than its own counts and lengths claim yields a
// SerializationError; readWALRecords stops reading at such a frame the
// same way it stops at a torn trailing record.
func decodeWALRecord(buf []byte) (UtxoTransaction, error) {
	r := newByteReader(buf)

	numInputs, err := r.uint32()
	if err != nil {
		return UtxoTransaction{}, err
	}
	tx := UtxoTransaction{Inputs: make([]wire.OutPoint, numInputs)}
	for i := range tx.Inputs {
		tx.Inputs[i], err = r.outPoint()
		if err != nil {
			return UtxoTransaction{}, err
		}
	}

	numOutputs, err := r.uint32()
	if err != nil {
		return UtxoTransaction{}, err
	}
	tx.Outputs = make([]OutputEntry, numOutputs)
	for i := range tx.Outputs {
		op, err := r.outPoint()
		if err != nil {
			return UtxoTransaction{}, err
		}
		value, err := r.uint64()
		if err != nil {
			return UtxoTransaction{}, err
		}
		scriptLen, err := r.uint32()
		if err != nil {
			return UtxoTransaction{}, err
		}
		script, err := r.bytes(int(scriptLen))
		if err != nil {
			return UtxoTransaction{}, err
		}
		height, err := r.uint64()
		if err != nil {
			return UtxoTransaction{}, err
		}
		isCoinbase, err := r.byte()
		if err != nil {
			return UtxoTransaction{}, err
		}
		tx.Outputs[i] = OutputEntry{
			OutPoint: op,
			Output: UnspentOutput{
				Value:        value,
				ScriptPubKey: script,
				Height:       height,
				IsCoinbase:   isCoinbase != 0,
			},
		}
	}
	return tx, nil
}

// walWriter appends fsynced, length-prefixed records to the WAL file.
type walWriter struct {
	f *os.File
}

func openWAL(path string) (*walWriter, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o600)
	if err != nil {
		return nil, errIO("open WAL", err)
	}
	return &walWriter{f: f}, nil
}

func (w *walWriter) append(tx UtxoTransaction) error {
	if _, err := w.f.Write(encodeWALRecord(tx)); err != nil {
		return errIO("append WAL record", err)
	}
	return w.sync()
}

func (w *walWriter) sync() error {
	if err := w.f.Sync(); err != nil {
		return errIO("fsync WAL", err)
	}
	return nil
}

func (w *walWriter) truncate() error {
	if err := w.f.Truncate(0); err != nil {
		return errIO("truncate WAL", err)
	}
	if _, err := w.f.Seek(0, io.SeekStart); err != nil {
		return errIO("seek WAL", err)
	}
	return nil
}

func (w *walWriter) close() error {
	return w.f.Close()
}

// readWALRecords reads every complete record in path. A record whose
// length prefix claims more bytes than remain in the file is a torn
// write left by a crash mid-append; it is silently dropped rather than
// treated as an error, per spec.md's "WAL replay tolerates malformed
// trailing records."
func readWALRecords(path string) ([]UtxoTransaction, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errIO("open WAL for replay", err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	var records []UtxoTransaction
	for {
		var lenBuf [4]byte
		if _, err := io.ReadFull(br, lenBuf[:]); err != nil {
			if err == io.EOF {
				break
			}
			break // torn length prefix: stop, discard the partial trailing record
		}
		n := binary.LittleEndian.Uint32(lenBuf[:])
		body := make([]byte, n)
		if _, err := io.ReadFull(br, body); err != nil {
			break // torn record body
		}
		tx, err := decodeWALRecord(body)
		if err != nil {
			break
		}
		records = append(records, tx)
	}
	return records, nil
}

func appendUint32(buf []byte, v uint32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return append(buf, b[:]...)
}

func appendUint64(buf []byte, v uint64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	return append(buf, b[:]...)
}

func appendOutPoint(buf []byte, op wire.OutPoint) []byte {
	buf = append(buf, op.Hash[:]...)
	return appendUint32(buf, op.Index)
}

type byteReader struct {
	buf []byte
	pos int
}

func newByteReader(buf []byte) *byteReader {
	return &byteReader{buf: buf}
}

func (r *byteReader) need(n int) error {
	if r.pos+n > len(r.buf) {
		return errSerialization("WAL record truncated", io.ErrUnexpectedEOF)
	}
	return nil
}

func (r *byteReader) uint32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(r.buf[r.pos:])
	r.pos += 4
	return v, nil
}

func (r *byteReader) uint64() (uint64, error) {
	if err := r.need(8); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint64(r.buf[r.pos:])
	r.pos += 8
	return v, nil
}

func (r *byteReader) byte() (byte, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

func (r *byteReader) bytes(n int) ([]byte, error) {
	if err := r.need(n); err != nil {
		return nil, err
	}
	b := append([]byte{}, r.buf[r.pos:r.pos+n]...)
	r.pos += n
	return b, nil
}

func (r *byteReader) outPoint() (wire.OutPoint, error) {
	if err := r.need(32 + 4); err != nil {
		return wire.OutPoint{}, err
	}
	var op wire.OutPoint
	copy(op.Hash[:], r.buf[r.pos:r.pos+32])
	r.pos += 32
	op.Index = binary.LittleEndian.Uint32(r.buf[r.pos:])
	r.pos += 4
	return op, nil
}
