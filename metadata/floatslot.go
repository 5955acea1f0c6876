package metadata

import (
	"math"

	"go.uber.org/zap"
)

// 32-bit float constants travel through the shared 64-bit constant slot as
// the bit pattern of the widened double, never as a numeric conversion.
// Widening and narrowing are done at the bit level so NaN payloads survive
// the float -> double -> float round trip exactly.

const (
	f64ExpMask  = 0x7ff0_0000_0000_0000
	f64FracMask = 0x000f_ffff_ffff_ffff
	// Widening a 32-bit fraction shifts it up by the difference in
	// fraction widths (52 - 23).
	f32FracShift = 29
)

// Float32ToSlot encodes a 32-bit float into a 64-bit constant slot.
func Float32ToSlot(f float32) int64 {
	if f == f {
		return int64(math.Float64bits(float64(f)))
	}
	// NaN: widen the bit pattern by hand so the payload is preserved
	// regardless of how the hardware propagates NaNs.
	b := math.Float32bits(f)
	d := uint64(b&0x8000_0000)<<32 | f64ExpMask | uint64(b&0x007f_ffff)<<f32FracShift
	return int64(d)
}

// Float32FromSlot decodes a 32-bit float from a 64-bit constant slot.
// A NaN slot whose payload carries bits below the 32-bit fraction is not
// representable after narrowing; the truncation is logged.
func Float32FromSlot(slot int64) float32 {
	d := uint64(slot)
	if d&f64ExpMask == f64ExpMask && d&f64FracMask != 0 {
		if d&(1<<f32FracShift-1) != 0 {
			logger.Warn("narrowing float constant drops NaN payload bits",
				zap.Uint64("slot", d))
		}
		b := uint32(d>>32)&0x8000_0000 | 0x7f80_0000 | uint32(d>>f32FracShift)&0x007f_ffff
		if b&0x007f_ffff == 0 {
			// All payload bits were below the narrow fraction; keep
			// the result a NaN rather than turning it into infinity.
			b |= 0x0040_0000
		}
		return math.Float32frombits(b)
	}
	return float32(math.Float64frombits(d))
}

// Float64ToSlot encodes a 64-bit float into a constant slot.
func Float64ToSlot(f float64) int64 {
	return int64(math.Float64bits(f))
}

// Float64FromSlot decodes a 64-bit float from a constant slot.
func Float64FromSlot(slot int64) float64 {
	return math.Float64frombits(uint64(slot))
}
