// Package texture decodes raw texel blocks into RGBA8 buffers and memoizes
// the results.
package texture

import "fmt"

// Format is a source texel encoding.
type Format uint8

// Supported texel encodings. The two palette formats decode to a placeholder.
const (
	FormatUnknown Format = iota
	RGBA16
	RGBA32
	IA4
	IA8
	IA16
	I4
	I8
	CI4
	CI8
	YUV16
)

var formatNames = [...]string{
	FormatUnknown: "Unknown",
	RGBA16:        "RGBA16",
	RGBA32:        "RGBA32",
	IA4:           "IA4",
	IA8:           "IA8",
	IA16:          "IA16",
	I4:            "I4",
	I8:            "I8",
	CI4:           "CI4",
	CI8:           "CI8",
	YUV16:         "YUV16",
}

// String returns the format name.
func (f Format) String() string {
	if int(f) < len(formatNames) {
		return formatNames[f]
	}
	return fmt.Sprintf("Format(%d)", uint8(f))
}

// BitsPerTexel returns the encoded size of one texel, or 0 for unknown formats.
func (f Format) BitsPerTexel() int {
	switch f {
	case I4, IA4, CI4:
		return 4
	case I8, IA8, CI8:
		return 8
	case RGBA16, IA16, YUV16:
		return 16
	case RGBA32:
		return 32
	default:
		return 0
	}
}

// Palette reports whether f is an indexed-color format.
func (f Format) Palette() bool {
	return f == CI4 || f == CI8
}

// Image format and pixel size fields as they appear in SETTIMG and SETTILE.
const (
	fmtRGBA = 0
	fmtYUV  = 1
	fmtCI   = 2
	fmtIA   = 3
	fmtI    = 4

	siz4b  = 0
	siz8b  = 1
	siz16b = 2
	siz32b = 3
)

// FromHardware maps the 3-bit image format and 2-bit pixel size fields
// to a Format.
func FromHardware(imgFmt, size uint8) Format {
	switch imgFmt {
	case fmtRGBA:
		switch size {
		case siz16b:
			return RGBA16
		case siz32b:
			return RGBA32
		}
	case fmtYUV:
		if size == siz16b {
			return YUV16
		}
	case fmtCI:
		switch size {
		case siz4b:
			return CI4
		case siz8b:
			return CI8
		}
	case fmtIA:
		switch size {
		case siz4b:
			return IA4
		case siz8b:
			return IA8
		case siz16b:
			return IA16
		}
	case fmtI:
		switch size {
		case siz4b:
			return I4
		case siz8b:
			return I8
		}
	}
	return FormatUnknown
}

// Hardware returns the image format and pixel size fields for f.
func (f Format) Hardware() (imgFmt, size uint8) {
	switch f {
	case RGBA16:
		return fmtRGBA, siz16b
	case RGBA32:
		return fmtRGBA, siz32b
	case YUV16:
		return fmtYUV, siz16b
	case CI4:
		return fmtCI, siz4b
	case CI8:
		return fmtCI, siz8b
	case IA4:
		return fmtIA, siz4b
	case IA8:
		return fmtIA, siz8b
	case IA16:
		return fmtIA, siz16b
	case I4:
		return fmtI, siz4b
	case I8:
		return fmtI, siz8b
	}
	return 0, 0
}

// SizeBytes returns the number of raw bytes a w×h block of format f occupies.
func SizeBytes(f Format, w, h int) int {
	bits := f.BitsPerTexel()
	return (w*h*bits + 7) / 8
}
