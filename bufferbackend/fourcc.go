package bufferbackend

// FourCC builds a DRM four-character-code format identifier out of its
// four ASCII bytes, little-endian packed: a | b<<8 | c<<16 | d<<24.
func FourCC(a, b, c, d byte) uint32 {
	return uint32(a) | uint32(b)<<8 | uint32(c)<<16 | uint32(d)<<24
}

// Well-known DRM format codes used by this backend's default negotiation.
var (
	FormatXRGB8888 = FourCC('X', 'R', '2', '4')
	FormatARGB8888 = FourCC('A', 'R', '2', '4')
)

// LinearModifier is the DRM_FORMAT_MOD_LINEAR modifier: vendor 0, value 0.
const LinearModifier uint64 = 0

// EncodeModifier packs a vendor id and a vendor-specific value into the
// 64-bit modifier encoding: vendor<<56 | value.
func EncodeModifier(vendor uint8, value uint64) uint64 {
	return uint64(vendor)<<56 | (value & (1<<56 - 1))
}

// ModifierVendor extracts the vendor byte from a packed modifier.
func ModifierVendor(modifier uint64) uint8 { return uint8(modifier >> 56) }
