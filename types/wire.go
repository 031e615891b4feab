package types

import (
	"encoding/binary"

	"github.com/lucent-chain/hotstuff/cert"
	"github.com/lucent-chain/hotstuff/lib"
)

// buffer is a small growable byte writer, used instead of bytes.Buffer to keep the codec dependency-free
// and explicit about every byte written, in the style of lib/crypto/hash.go's manual slicing.
type buffer struct{ b []byte }

func (w *buffer) writeByte(v byte)   { w.b = append(w.b, v) }
func (w *buffer) writeBytes(v []byte) { w.b = append(w.b, v...) }
func (w *buffer) writeU16(v uint16) {
	var tmp [2]byte
	binary.BigEndian.PutUint16(tmp[:], v)
	w.b = append(w.b, tmp[:]...)
}
func (w *buffer) writeU32(v uint32) {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	w.b = append(w.b, tmp[:]...)
}
func (w *buffer) writeI8(v int8) { w.b = append(w.b, byte(v)) }
func (w *buffer) writeHash(h cert.Hash) { w.b = append(w.b, h.Bytes()...) }
func (w *buffer) writeVarint(v uint64) {
	for v >= 0x80 {
		w.b = append(w.b, byte(v)|0x80)
		v >>= 7
	}
	w.b = append(w.b, byte(v))
}
func (w *buffer) writeVarintBytes(v []byte) {
	w.writeVarint(uint64(len(v)))
	w.b = append(w.b, v...)
}
func (w *buffer) writeVarintHashList(hs []cert.Hash) {
	w.writeVarint(uint64(len(hs)))
	for _, h := range hs {
		w.writeHash(h)
	}
}
func (w *buffer) bytes() []byte { return w.b }

// reader is the matching cursor-based reader
type reader struct {
	b   []byte
	pos int
}

func newReader(b []byte) *reader { return &reader{b: b} }

func (r *reader) remaining() int { return len(r.b) - r.pos }

func (r *reader) readByte() (byte, lib.ErrorI) {
	if r.remaining() < 1 {
		return 0, lib.ErrShortBuffer()
	}
	v := r.b[r.pos]
	r.pos++
	return v, nil
}
func (r *reader) readBytes(n int) ([]byte, lib.ErrorI) {
	if r.remaining() < n {
		return nil, lib.ErrShortBuffer()
	}
	v := r.b[r.pos : r.pos+n]
	r.pos += n
	return v, nil
}
func (r *reader) readU16() (uint16, lib.ErrorI) {
	bz, err := r.readBytes(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(bz), nil
}
func (r *reader) readU32() (uint32, lib.ErrorI) {
	bz, err := r.readBytes(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(bz), nil
}
func (r *reader) readI8() (int8, lib.ErrorI) {
	b, err := r.readByte()
	if err != nil {
		return 0, err
	}
	return int8(b), nil
}
func (r *reader) readHash() (cert.Hash, lib.ErrorI) {
	bz, err := r.readBytes(32)
	if err != nil {
		return cert.ZeroHash, err
	}
	h, ok := cert.HashFromBytes(bz)
	if !ok {
		return cert.ZeroHash, lib.ErrShortBuffer()
	}
	return h, nil
}
func (r *reader) readVarint() (uint64, lib.ErrorI) {
	var x uint64
	var s uint
	for i := 0; i < 10; i++ {
		b, err := r.readByte()
		if err != nil {
			return 0, err
		}
		if b < 0x80 {
			return x | uint64(b)<<s, nil
		}
		x |= uint64(b&0x7f) << s
		s += 7
	}
	return 0, lib.ErrInvalidVarint()
}
func (r *reader) readVarintBytes() ([]byte, lib.ErrorI) {
	n, err := r.readVarint()
	if err != nil {
		return nil, err
	}
	return r.readBytes(int(n))
}
func (r *reader) readVarintHashList() ([]cert.Hash, lib.ErrorI) {
	n, err := r.readVarint()
	if err != nil {
		return nil, err
	}
	out := make([]cert.Hash, n)
	for i := range out {
		h, herr := r.readHash()
		if herr != nil {
			return nil, herr
		}
		out[i] = h
	}
	return out, nil
}
func (r *reader) expectEOF() lib.ErrorI {
	if r.remaining() != 0 {
		return lib.ErrTrailingBytes()
	}
	return nil
}

// writePartialCert()/readPartialCert() implement the part_cert wire shape: signerID(u16) ∥ signature(96B).
// The certificate's Kind and object hash are not on the wire; they are reconstructed by the caller from
// the containing message, since both sides already know what was signed.
func writePartialCert(w *buffer, pc *cert.PartialCert) {
	w.writeU16(uint16(pc.Signer))
	w.writeBytes(pc.Sig)
}

func readPartialCert(r *reader, kind cert.Kind, obj cert.Hash) (*cert.PartialCert, lib.ErrorI) {
	signer, err := r.readU16()
	if err != nil {
		return nil, err
	}
	sig, err := r.readBytes(96)
	if err != nil {
		return nil, err
	}
	return &cert.PartialCert{Signer: lib.ReplicaID(signer), Kind: kind, Obj: obj, Sig: sig}, nil
}

// writeQuorumCert()/readQuorumCertRaw() implement the quorum_cert wire shape:
// bitmap(varint-prefixed bytes) ∥ aggregate_signature(96B). Kind/Obj are not on the wire, since some
// callers (the block's embedded qc) only know the object hash after reading a field that follows the qc.
func writeQuorumCert(w *buffer, qc *cert.QuorumCert) {
	w.writeVarintBytes(qc.Bitmap)
	w.writeBytes(qc.AggSig)
}

func readQuorumCertRaw(r *reader) (bitmap, aggSig []byte, err lib.ErrorI) {
	bitmap, err = r.readVarintBytes()
	if err != nil {
		return nil, nil, err
	}
	aggSig, err = r.readBytes(96)
	if err != nil {
		return nil, nil, err
	}
	return bitmap, aggSig, nil
}

func readQuorumCert(r *reader, kind cert.Kind, obj cert.Hash) (*cert.QuorumCert, lib.ErrorI) {
	bitmap, aggSig, err := readQuorumCertRaw(r)
	if err != nil {
		return nil, err
	}
	return &cert.QuorumCert{Kind: kind, Obj: obj, Bitmap: bitmap, AggSig: aggSig}, nil
}

// MarshalBlockBody() serializes exactly the block's wire fields, in wire order:
// parent_hashes ∥ cmds ∥ has_qc{opt qc ∥ qc_ref_hash} ∥ extra
func MarshalBlockBody(b *Block) []byte {
	w := &buffer{}
	w.writeVarintHashList(b.ParentHashes)
	w.writeVarintHashList(b.Cmds)
	if b.HasQC() {
		w.writeByte(1)
		writeQuorumCert(w, b.QC)
		w.writeHash(b.QCRefHash)
	} else {
		w.writeByte(0)
	}
	w.writeVarintBytes(b.Extra)
	return w.bytes()
}

// UnmarshalBlockBody() parses a block's wire fields and fills in its content hash, leaving every
// runtime-only field (Height, Delivered, Parents, QCRef, ...) for the delivery pipeline to resolve.
func UnmarshalBlockBody(r *reader) (*Block, lib.ErrorI) {
	parents, err := r.readVarintHashList()
	if err != nil {
		return nil, err
	}
	cmds, err := r.readVarintHashList()
	if err != nil {
		return nil, err
	}
	hasQC, err := r.readByte()
	if err != nil {
		return nil, err
	}
	b := &Block{
		ParentHashes: parents,
		Cmds:         cmds,
		Voted:        make(map[uint16]bool),
		PreCommitted: make(map[uint16]bool),
	}
	if hasQC != 0 {
		bitmap, aggSig, qerr := readQuorumCertRaw(r)
		if qerr != nil {
			return nil, qerr
		}
		qcRefHash, herr := r.readHash()
		if herr != nil {
			return nil, herr
		}
		b.QCRefHash = qcRefHash
		obj := cert.ObjHash(cert.KindVote, qcRefHash.Bytes())
		b.QC = &cert.QuorumCert{Kind: cert.KindVote, Obj: obj, Bitmap: bitmap, AggSig: aggSig}
	}
	extra, err := r.readVarintBytes()
	if err != nil {
		return nil, err
	}
	b.Extra = extra
	b.Hash = cert.HashBytes(MarshalBlockBody(b))
	return b, nil
}

// UnmarshalBlock() decodes a bare block's wire bytes, for collaborators outside this package that
// only ever see a block in isolation (the persistence log's replay, a block-parsing singleflight).
func UnmarshalBlock(bz []byte) (*Block, lib.ErrorI) {
	return UnmarshalBlockBody(newReader(bz))
}
