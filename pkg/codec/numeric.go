/*
Copyright 2024 The searchcore Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

     http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package codec

import (
	"io"
	"math"

	"github.com/redisearch-rs/searchcore/pkg/ixconfig"
	"github.com/redisearch-rs/searchcore/pkg/record"
)

// header type tags, bits 3-4 of the header byte.
const (
	numTinyType   = 0b00
	numFloatType  = 0b01
	numIntPosType = 0b10
	numIntNegType = 0b11
)

// float type-specific upper bits (bits 5-7), laid out as F,N,I.
const (
	float32Positive      = 0b000
	floatInfinite        = 0b001
	float32Negative      = 0b010
	floatNegativeInfinite = 0b011
	float64Positive      = 0b100
	float64Negative      = 0b110
)

// Numeric is the numeric packed codec (spec.md §4.1.1): one header byte,
// an optional 0-7 byte delta, and an optional value payload.
type Numeric struct {
	// CompressFloats, when true, truncates a float64 to float32 whenever
	// the precision loss is below ixconfig.FloatCompressionThreshold.
	CompressFloats bool
}

var _ Codec = Numeric{}

func (Numeric) RecommendedBlockEntries() uint16 { return 100 }
func (Numeric) AllowsDuplicates() bool          { return false }
// MaxRepresentableDelta is 1<<56 - 1: packNumericHeader stores the delta's
// byte length in the header's low 3 bits (deltaBytes & 0b111), so only
// 0-7 delta bytes are representable. A delta needing the full 8 bytes
// would wrap to a 0-byte-length header and silently corrupt the stream,
// so the writer must open a new block before that point instead.
func (Numeric) MaxRepresentableDelta() uint64 { return 1<<56 - 1 }
func (Numeric) BasePolicy() BasePolicy           { return BasePrevBlockLast }

func (n Numeric) Encode(w io.Writer, delta uint64, rec record.Result) (int, error) {
	deltaBytes := deltaToBytes(delta)

	value := classifyNumeric(rec.Value, n.CompressFloats)

	switch v := value.(type) {
	case numTiny:
		header := packNumericHeader(len(deltaBytes), numTinyType, uint8(v))
		return writeAllVectored(w, [][]byte{{header}, deltaBytes})
	case numIntPos:
		b := trimTrailingZeros(littleEndian8(uint64(v)))
		header := packNumericHeader(len(deltaBytes), numIntPosType, uint8(len(b)-1))
		return writeAllVectored(w, [][]byte{{header}, deltaBytes, b})
	case numIntNeg:
		b := trimTrailingZeros(littleEndian8(uint64(v)))
		header := packNumericHeader(len(deltaBytes), numIntNegType, uint8(len(b)-1))
		return writeAllVectored(w, [][]byte{{header}, deltaBytes, b})
	case numFloat32:
		upper := float32Positive
		if v.negative {
			upper = float32Negative
		}
		header := packNumericHeader(len(deltaBytes), numFloatType, uint8(upper))
		b := make([]byte, 4)
		bits := math.Float32bits(v.abs)
		putLE32(b, bits)
		return writeAllVectored(w, [][]byte{{header}, deltaBytes, b})
	case numFloat64:
		upper := float64Positive
		if v.negative {
			upper = float64Negative
		}
		header := packNumericHeader(len(deltaBytes), numFloatType, uint8(upper))
		b := make([]byte, 8)
		bits := math.Float64bits(v.abs)
		putLE64(b, bits)
		return writeAllVectored(w, [][]byte{{header}, deltaBytes, b})
	case numInf:
		upper := floatInfinite
		if v.negative {
			upper = floatNegativeInfinite
		}
		header := packNumericHeader(len(deltaBytes), numFloatType, uint8(upper))
		return writeAllVectored(w, [][]byte{{header}, deltaBytes})
	default:
		panic("searchcore: unreachable numeric value classification")
	}
}

func (Numeric) Decode(r io.Reader, base record.DocID) (record.Result, bool, error) {
	var hdr [1]byte
	if _, err := r.Read(hdr[:]); err != nil {
		if err == io.EOF {
			return record.Result{}, false, nil
		}
		return record.Result{}, false, wrapEOF(err)
	}
	header := hdr[0]
	deltaBytes := int(header & 0b111)
	typeBits := (header >> 3) & 0b11
	upper := header >> 5

	var delta uint64
	var value float64

	switch typeBits {
	case numTinyType:
		var err error
		delta, err = readUintN(r, deltaBytes)
		if err != nil {
			return record.Result{}, false, err
		}
		value = float64(upper)
	case numIntPosType, numIntNegType:
		d, num, err := readUintAndUint(r, deltaBytes, int(upper)+1)
		if err != nil {
			return record.Result{}, false, err
		}
		delta = d
		value = float64(num)
		if typeBits == numIntNegType {
			value = -value
		}
	case numFloatType:
		switch upper {
		case float32Positive:
			d, f, err := readUintAndFloat32(r, deltaBytes)
			if err != nil {
				return record.Result{}, false, err
			}
			delta, value = d, float64(f)
		case float32Negative:
			d, f, err := readUintAndFloat32(r, deltaBytes)
			if err != nil {
				return record.Result{}, false, err
			}
			delta, value = d, -float64(f)
		case float64Positive:
			d, f, err := readUintAndFloat64(r, deltaBytes)
			if err != nil {
				return record.Result{}, false, err
			}
			delta, value = d, f
		case float64Negative:
			d, f, err := readUintAndFloat64(r, deltaBytes)
			if err != nil {
				return record.Result{}, false, err
			}
			delta, value = d, -f
		case 0b101, floatInfinite:
			d, err := readUintN(r, deltaBytes)
			if err != nil {
				return record.Result{}, false, err
			}
			delta, value = d, math.Inf(1)
		case 0b111, floatNegativeInfinite:
			d, err := readUintN(r, deltaBytes)
			if err != nil {
				return record.Result{}, false, err
			}
			delta, value = d, math.Inf(-1)
		default:
			panic("searchcore: unreachable numeric float upper bits")
		}
	default:
		panic("searchcore: unreachable numeric type bits")
	}

	doc := record.DocID(uint64(base) + delta)
	return record.Numeric(doc, value, 1.0), true, nil
}

// --- value classification -------------------------------------------------

type numTiny uint8
type numIntPos uint64
type numIntNeg uint64
type numFloat32 struct {
	abs      float32
	negative bool
}
type numFloat64 struct {
	abs      float64
	negative bool
}
type numInf struct{ negative bool }

func classifyNumeric(value float64, compress bool) any {
	absVal := math.Abs(value)
	u64Val := uint64(absVal)

	if float64(u64Val) == absVal {
		// TINY's 3-bit payload carries only the magnitude, with no room
		// for a sign bit, so a negative value must never be classified
		// as TINY even when its magnitude is small: it has to go through
		// INT_NEG, whose type bits encode the sign explicitly. Zero is
		// exempt (0 == -0 for every purpose this codec cares about), so
		// negative zero doesn't take the INT_NEG path, where a
		// zero-length magnitude encoding would underflow the header's
		// byte-count field.
		if u64Val <= 0b111 && (u64Val == 0 || !math.Signbit(value)) {
			return numTiny(u64Val)
		}
		if math.Signbit(value) {
			return numIntNeg(u64Val)
		}
		return numIntPos(u64Val)
	}

	switch {
	case math.IsInf(value, 1):
		return numInf{negative: false}
	case math.IsInf(value, -1):
		return numInf{negative: true}
	default:
		f32 := float32(absVal)
		backToF64 := float64(f32)
		positive := !math.Signbit(value)

		if backToF64 == absVal || (compress && math.Abs(absVal-backToF64) < ixconfig.FloatCompressionThreshold) {
			return numFloat32{abs: f32, negative: !positive}
		}
		return numFloat64{abs: absVal, negative: !positive}
	}
}

func packNumericHeader(deltaBytes int, typeBits int, upper uint8) byte {
	h := byte(deltaBytes) & 0b111
	h |= byte(typeBits) << 3
	h |= (upper & 0b111) << 5
	return h
}
