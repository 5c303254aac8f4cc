package metadata

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/rwcarlsen/goexif/exif"

	"github.com/humanmark/forensics/internal/imaging"
)

// historyMarkers are XMP properties that only appear when an editor recorded
// its change history.
var historyMarkers = [][]byte{
	[]byte("xmpMM:History"),
	[]byte("stEvt:action"),
	[]byte("stEvt:changed"),
	[]byte("photoshop:History"),
}

// EXIFReader reads EXIF from JPEG, PNG, WebP and TIFF containers in-process
// and scans embedded XMP packets for change history.
type EXIFReader struct{}

// NewEXIFReader creates an EXIFReader.
func NewEXIFReader() *EXIFReader {
	return &EXIFReader{}
}

// Read implements Reader.
func (r *EXIFReader) Read(ctx context.Context, data []byte) (*Fields, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	payload := exifPayload(data)
	history := xmpHistory(data)
	if payload == nil && !history {
		return nil, ErrNoMetadata
	}

	fields := &Fields{History: history}
	if payload == nil {
		return fields, nil
	}

	x, err := exif.Decode(bytes.NewReader(payload))
	if err != nil && (x == nil || exif.IsCriticalError(err)) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMetadata, err)
	}

	fields.Make = stringTag(x, exif.Make)
	fields.Model = stringTag(x, exif.Model)
	fields.Software = stringTag(x, exif.Software)
	fields.DateTimeOriginal = parseExifTime(stringTag(x, exif.DateTimeOriginal))
	fields.DateTime = parseExifTime(stringTag(x, exif.DateTime))

	if lat, long, err := x.LatLong(); err == nil {
		fields.HasGPS = true
		fields.Latitude = lat
		fields.Longitude = long
	}

	return fields, nil
}

func stringTag(x *exif.Exif, name exif.FieldName) string {
	tag, err := x.Get(name)
	if err != nil {
		return ""
	}
	s, err := tag.StringVal()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

// exifPayload locates the raw TIFF-structured EXIF block inside a container.
// It returns nil when the container carries none.
func exifPayload(data []byte) []byte {
	switch imaging.DetectFormat(data) {
	case imaging.FormatJPEG:
		return jpegExif(data)
	case imaging.FormatPNG:
		return pngExif(data)
	case imaging.FormatWebP:
		return webpExif(data)
	case imaging.FormatTIFF:
		return data
	default:
		return nil
	}
}

var exifHeader = []byte("Exif\x00\x00")

// jpegExif walks the marker segments up to the start of scan looking for an
// APP1 segment with the Exif identifier.
func jpegExif(data []byte) []byte {
	i := 2
	for i+4 <= len(data) {
		if data[i] != 0xFF {
			return nil
		}
		marker := data[i+1]
		switch {
		case marker == 0xFF:
			// fill byte
			i++
			continue
		case marker == 0xD9 || marker == 0xDA:
			return nil
		case marker >= 0xD0 && marker <= 0xD7, marker == 0x01:
			i += 2
			continue
		}

		length := int(binary.BigEndian.Uint16(data[i+2 : i+4]))
		if length < 2 || i+2+length > len(data) {
			return nil
		}
		segment := data[i+4 : i+2+length]
		if marker == 0xE1 && bytes.HasPrefix(segment, exifHeader) {
			return segment[len(exifHeader):]
		}
		i += 2 + length
	}
	return nil
}

// pngExif returns the body of the eXIf chunk. Chunk CRCs are not verified.
func pngExif(data []byte) []byte {
	i := 8
	for i+8 <= len(data) {
		length := int(binary.BigEndian.Uint32(data[i : i+4]))
		typ := string(data[i+4 : i+8])
		start := i + 8
		if length < 0 || start+length > len(data) {
			return nil
		}
		switch typ {
		case "eXIf":
			return bytes.TrimPrefix(data[start:start+length], exifHeader)
		case "IDAT", "IEND":
			// eXIf must precede image data.
			return nil
		}
		i = start + length + 4
	}
	return nil
}

// webpExif returns the body of the EXIF chunk of an extended WebP file.
func webpExif(data []byte) []byte {
	i := 12
	for i+8 <= len(data) {
		id := string(data[i : i+4])
		size := int(binary.LittleEndian.Uint32(data[i+4 : i+8]))
		start := i + 8
		if size < 0 || start+size > len(data) {
			return nil
		}
		if id == "EXIF" {
			return bytes.TrimPrefix(data[start:start+size], exifHeader)
		}
		// chunks are padded to even sizes
		i = start + size + size&1
	}
	return nil
}

// xmpHistory reports whether an XMP packet in data records change history.
func xmpHistory(data []byte) bool {
	start := bytes.Index(data, []byte("<x:xmpmeta"))
	if start < 0 {
		return false
	}
	end := bytes.Index(data[start:], []byte("</x:xmpmeta>"))
	if end < 0 {
		return false
	}

	packet := data[start : start+end]
	for _, m := range historyMarkers {
		if bytes.Contains(packet, m) {
			return true
		}
	}
	return false
}
