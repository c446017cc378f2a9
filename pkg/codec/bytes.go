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
	"encoding/binary"
	"io"
	"math"

	"github.com/redisearch-rs/searchcore/pkg/ixerrors"
)

func littleEndian8(v uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	return b
}

func putLE32(b []byte, v uint32) { binary.LittleEndian.PutUint32(b, v) }
func putLE64(b []byte, v uint64) { binary.LittleEndian.PutUint64(b, v) }

func deltaToBytes(delta uint64) []byte {
	return trimTrailingZeros(littleEndian8(delta))
}

func wrapEOF(err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return ixerrors.ErrUnexpectedEOF
	}
	return err
}

// readUintN reads n little-endian bytes (0..=8) and zero-extends to a
// uint64.
func readUintN(r io.Reader, n int) (uint64, error) {
	if n == 0 {
		return 0, nil
	}
	var buf [8]byte
	if err := readExact(r, buf[:n]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}

// readUintAndUint reads firstBytes little-endian bytes followed by
// secondBytes little-endian bytes in a single read, returning both
// zero-extended to uint64.
func readUintAndUint(r io.Reader, firstBytes, secondBytes int) (uint64, uint64, error) {
	total := firstBytes + secondBytes
	buf := make([]byte, total)
	if err := readExact(r, buf); err != nil {
		return 0, 0, err
	}
	var firstBuf, secondBuf [8]byte
	copy(firstBuf[:], buf[:firstBytes])
	copy(secondBuf[:], buf[firstBytes:total])
	return binary.LittleEndian.Uint64(firstBuf[:]), binary.LittleEndian.Uint64(secondBuf[:]), nil
}

func readUintAndFloat32(r io.Reader, firstBytes int) (uint64, float32, error) {
	total := firstBytes + 4
	buf := make([]byte, total)
	if err := readExact(r, buf); err != nil {
		return 0, 0, err
	}
	var firstBuf [8]byte
	copy(firstBuf[:], buf[:firstBytes])
	bits := binary.LittleEndian.Uint32(buf[firstBytes:total])
	return binary.LittleEndian.Uint64(firstBuf[:]), math.Float32frombits(bits), nil
}

func readUintAndFloat64(r io.Reader, firstBytes int) (uint64, float64, error) {
	total := firstBytes + 8
	buf := make([]byte, total)
	if err := readExact(r, buf); err != nil {
		return 0, 0, err
	}
	var firstBuf [8]byte
	copy(firstBuf[:], buf[:firstBytes])
	bits := binary.LittleEndian.Uint64(buf[firstBytes:total])
	return binary.LittleEndian.Uint64(firstBuf[:]), math.Float64frombits(bits), nil
}
