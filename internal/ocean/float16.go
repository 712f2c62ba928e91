package ocean

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// halfTexel is the number of uint16 values per RGBA16F texel.
const halfTexel = 4

// PackHalf writes the field as RGBA16F texels (x, y, z, 1) into dst, which
// must hold 4*N*N values.
func (f *DisplacementField) PackHalf(dst []uint16) error {
	return packHalf(f.Data, dst)
}

// PackHalf writes the normals as RGBA16F texels (x, y, z, 1) into dst.
func (f *NormalField) PackHalf(dst []uint16) error {
	return packHalf(f.Data, dst)
}

func packHalf(src []mgl32.Vec3, dst []uint16) error {
	if len(dst) != len(src)*halfTexel {
		return fmt.Errorf("%w: half-float buffer has %d values, want %d", ErrInvalidConfiguration, len(dst), len(src)*halfTexel)
	}
	one := float32ToHalf(1)
	for i, v := range src {
		base := i * halfTexel
		dst[base] = float32ToHalf(v[0])
		dst[base+1] = float32ToHalf(v[1])
		dst[base+2] = float32ToHalf(v[2])
		dst[base+3] = one
	}
	return nil
}

// float32ToHalf rounds f to IEEE 754 binary16. Values past the half range
// become infinities and NaN stays NaN.
func float32ToHalf(f float32) uint16 {
	bits := math.Float32bits(f)
	sign := uint16(bits>>16) & 0x8000
	exp := int(bits>>23) & 0xff
	mant := bits & 0x7fffff

	if exp == 0xff {
		if mant == 0 {
			return sign | 0x7c00
		}
		payload := uint16(mant >> 13)
		if payload == 0 {
			payload = 1
		}
		return sign | 0x7c00 | payload
	}
	if exp == 0 && mant == 0 {
		return sign
	}

	halfExp := exp - 127 + 15
	switch {
	case halfExp >= 0x1f:
		return sign | 0x7c00
	case halfExp <= 0:
		if halfExp < -10 {
			return sign
		}
		// Subnormal: restore the implicit bit and shift into place.
		m := (mant | 0x800000) >> uint(1-halfExp)
		m += 0x1000
		return sign | uint16(m>>13)
	}

	mant += 0x1000
	if mant&0x800000 != 0 {
		mant = 0
		halfExp++
		if halfExp >= 0x1f {
			return sign | 0x7c00
		}
	}
	return sign | uint16(halfExp<<10) | uint16(mant>>13)
}

// halfToFloat32 expands a binary16 value.
func halfToFloat32(h uint16) float32 {
	sign := uint32(h>>15) << 31
	exp := int(h>>10) & 0x1f
	mant := uint32(h & 0x3ff)

	switch exp {
	case 0:
		if mant == 0 {
			return math.Float32frombits(sign)
		}
		e := -14
		for mant&0x400 == 0 {
			mant <<= 1
			e--
		}
		mant &= 0x3ff
		return math.Float32frombits(sign | uint32(e+127)<<23 | mant<<13)
	case 0x1f:
		bits := sign | 0x7f800000 | mant<<13
		if mant != 0 {
			bits |= 1
		}
		return math.Float32frombits(bits)
	}
	return math.Float32frombits(sign | uint32(exp-15+127)<<23 | mant<<13)
}
