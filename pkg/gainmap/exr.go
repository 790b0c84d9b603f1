package gainmap

// A minimal scanline OpenEXR codec. The encoder emits exactly what the
// conversion needs: three float32 channels named R, G, B, ZIP-compressed
// (zlib over 16-scanline blocks, with OpenEXR's byte shuffle + delta
// predictor). The decoder reads that subset back, which is enough for
// round-tripping our own output and for pulling in EXRs from other tools
// that stick to float RGB scanlines.

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"io"
	"math"

	"github.com/mdouchement/hdr"
)

const exrMagic = 20000630

const (
	exrCompressionNone = 0
	exrCompressionZips = 2
	exrCompressionZip  = 3
)

const exrPixelFloat = 2

const exrZipBlockLines = 16

// EncodeEXR writes img as a scanline OpenEXR with float32 R, G, B channels
// and ZIP compression.
func EncodeEXR(w io.Writer, img hdr.Image) error {
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	if width <= 0 || height <= 0 {
		return errors.New("exr: empty image")
	}

	header := exrHeader(width, height)
	blockCount := (height + exrZipBlockLines - 1) / exrZipBlockLines

	// Compress all blocks up front so the offset table can be exact.
	blocks := make([][]byte, blockCount)
	for i:=0; i<blockCount; i++ {
		startY := i * exrZipBlockLines
		lines := exrZipBlockLines
		if startY+lines > height {
			lines = height - startY
		}
		raw := exrRawBlock(img, b, startY, width, lines)
		shuffled := shuffleBytes(raw)
		applyPredictor(shuffled)

		var zbuf bytes.Buffer
		zw := zlib.NewWriter(&zbuf)
		if _, err := zw.Write(shuffled); err != nil {
			return err
		}
		if err := zw.Close(); err != nil {
			return err
		}

		// High-entropy float data can expand under zlib. OpenEXR readers
		// treat a stored block of >= the raw scanline size as uncompressed,
		// so fall back to the plain bytes whenever zlib doesn't shrink them.
		if zbuf.Len() >= len(raw) {
			blocks[i] = raw
		} else {
			blocks[i] = zbuf.Bytes()
		}
	}

	if _, err := w.Write(header); err != nil {
		return err
	}

	// Offset table: absolute file position of each block.
	offset := uint64(len(header)) + uint64(8*blockCount)
	for i:=0; i<blockCount; i++ {
		if err := binary.Write(w, binary.LittleEndian, offset); err != nil {
			return err
		}
		offset += uint64(8 + len(blocks[i]))
	}

	for i:=0; i<blockCount; i++ {
		if err := binary.Write(w, binary.LittleEndian, int32(i*exrZipBlockLines)); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, int32(len(blocks[i]))); err != nil {
			return err
		}
		if _, err := w.Write(blocks[i]); err != nil {
			return err
		}
	}

	return nil
}

// exrRawBlock lays out `lines` scanlines in header channel order (B, G, R),
// each channel a run of width little-endian float32s.
func exrRawBlock(img hdr.Image, b image.Rectangle, startY, width, lines int) []byte {
	raw := make([]byte, lines*3*width*4)
	pos := 0
	put := func(v float64) {
		binary.LittleEndian.PutUint32(raw[pos:pos+4], math.Float32bits(float32(v)))
		pos += 4
	}

	rowR := make([]float64, width)
	rowG := make([]float64, width)
	rowB := make([]float64, width)

	for row:=0; row<lines; row++ {
		y := b.Min.Y + startY + row
		for x:=0; x<width; x++ {
			rowR[x], rowG[x], rowB[x], _ = img.HDRAt(b.Min.X+x, y).HDRRGBA()
		}
		for x:=0; x<width; x++ { put(rowB[x]) }
		for x:=0; x<width; x++ { put(rowG[x]) }
		for x:=0; x<width; x++ { put(rowR[x]) }
	}
	return raw
}

func exrHeader(width, height int) []byte {
	var buf bytes.Buffer
	le := binary.LittleEndian

	binary.Write(&buf, le, uint32(exrMagic))
	binary.Write(&buf, le, uint32(2)) // version 2, scanline, no flags

	writeAttr := func(name, typ string, payload []byte) {
		buf.WriteString(name)
		buf.WriteByte(0)
		buf.WriteString(typ)
		buf.WriteByte(0)
		binary.Write(&buf, le, int32(len(payload)))
		buf.Write(payload)
	}

	// chlist: channels in the alphabetical order OpenEXR requires.
	var chlist bytes.Buffer
	for _, name := range []string{"B", "G", "R"} {
		chlist.WriteString(name)
		chlist.WriteByte(0)
		binary.Write(&chlist, le, int32(exrPixelFloat))
		chlist.Write([]byte{0, 0, 0, 0}) // pLinear + reserved
		binary.Write(&chlist, le, int32(1)) // xSampling
		binary.Write(&chlist, le, int32(1)) // ySampling
	}
	chlist.WriteByte(0)
	writeAttr("channels", "chlist", chlist.Bytes())

	writeAttr("compression", "compression", []byte{exrCompressionZip})

	var box bytes.Buffer
	binary.Write(&box, le, int32(0))
	binary.Write(&box, le, int32(0))
	binary.Write(&box, le, int32(width-1))
	binary.Write(&box, le, int32(height-1))
	writeAttr("dataWindow", "box2i", box.Bytes())
	writeAttr("displayWindow", "box2i", box.Bytes())

	writeAttr("lineOrder", "lineOrder", []byte{0}) // increasing Y

	var f4 bytes.Buffer
	binary.Write(&f4, le, float32(1.0))
	writeAttr("pixelAspectRatio", "float", f4.Bytes())

	var v2f bytes.Buffer
	binary.Write(&v2f, le, float32(0.0))
	binary.Write(&v2f, le, float32(0.0))
	writeAttr("screenWindowCenter", "v2f", v2f.Bytes())

	writeAttr("screenWindowWidth", "float", f4.Bytes())

	buf.WriteByte(0) // end of header

	return buf.Bytes()
}

// shuffleBytes splits the byte stream into two planes: even-indexed bytes
// first, odd-indexed bytes second.
func shuffleBytes(data []byte) []byte {
	n := len(data) / 2
	out := make([]byte, len(data))
	for i:=0; i<n; i++ {
		out[i] = data[2*i]
		out[i+n] = data[2*i+1]
	}
	return out
}

// applyPredictor delta-encodes in place. Walks backwards so every delta is
// computed against the original previous byte.
func applyPredictor(data []byte) {
	for i:=len(data)-1; i>=1; i-- {
		data[i] = byte(int(data[i]) - int(data[i-1]) + 128)
	}
}

func undoPredictor(data []byte) {
	for i:=1; i<len(data); i++ {
		data[i] = byte(int(data[i]) + int(data[i-1]) - 128)
	}
}

func unshuffleBytes(data []byte) []byte {
	n := len(data) / 2
	out := make([]byte, len(data))
	for i:=0; i<n; i++ {
		out[2*i] = data[i]
		out[2*i+1] = data[i+n]
	}
	return out
}

type exrChannel struct {
	name      string
	pixelType int32
}

// DecodeEXR reads a scanline OpenEXR holding float32 R, G, B channels with
// no, ZIPS or ZIP compression.
func DecodeEXR(data []byte) (*Rendition, error) {
	r := bytes.NewReader(data)

	magic, err := readU32(r)
	if err != nil {
		return nil, err
	}
	if magic != exrMagic {
		return nil, errors.New("exr: bad magic, not an OpenEXR file")
	}
	version, err := readU32(r)
	if err != nil {
		return nil, err
	}
	if version&0x0E00 != 0 {
		return nil, errors.New("exr: tiled/deep/multipart files not supported")
	}

	var channels []exrChannel
	var dataWindow [4]int32
	hasDataWindow := false
	compression := byte(exrCompressionNone)

	for {
		name, err := readNullString(r)
		if err != nil {
			return nil, err
		}
		if name == "" {
			break
		}
		typ, err := readNullString(r)
		if err != nil {
			return nil, err
		}
		size, err := readI32(r)
		if err != nil {
			return nil, err
		}
		if size < 0 || int(size) > r.Len() {
			return nil, errors.New("exr: invalid attribute size")
		}
		payload := make([]byte, size)
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, err
		}

		switch name {
		case "channels":
			if typ != "chlist" {
				return nil, errors.New("exr: unexpected channels attribute type")
			}
			if channels, err = parseChannelList(payload); err != nil {
				return nil, err
			}
		case "dataWindow":
			if typ != "box2i" || len(payload) != 16 {
				return nil, errors.New("exr: invalid dataWindow")
			}
			for i:=0; i<4; i++ {
				dataWindow[i] = int32(binary.LittleEndian.Uint32(payload[i*4 : i*4+4]))
			}
			hasDataWindow = true
		case "compression":
			if typ != "compression" || len(payload) < 1 {
				return nil, errors.New("exr: invalid compression attribute")
			}
			compression = payload[0]
		case "tiles":
			return nil, errors.New("exr: tiled files not supported")
		}
	}

	if len(channels) == 0 || !hasDataWindow {
		return nil, errors.New("exr: missing channels or dataWindow")
	}
	if compression != exrCompressionNone && compression != exrCompressionZips && compression != exrCompressionZip {
		return nil, fmt.Errorf("exr: unsupported compression %d", compression)
	}

	width := int(dataWindow[2]-dataWindow[0]) + 1
	height := int(dataWindow[3]-dataWindow[1]) + 1
	if width <= 0 || height <= 0 {
		return nil, errors.New("exr: invalid dimensions")
	}

	blockLines := 1
	if compression == exrCompressionZip {
		blockLines = exrZipBlockLines
	}
	blockCount := (height + blockLines - 1) / blockLines

	offsets := make([]uint64, blockCount)
	for i := range offsets {
		if offsets[i], err = readU64(r); err != nil {
			return nil, err
		}
	}

	out := NewRendition(width, height, 1.0)

	for block:=0; block<blockCount; block++ {
		if _, err := r.Seek(int64(offsets[block]), io.SeekStart); err != nil {
			return nil, err
		}
		y, err := readI32(r)
		if err != nil {
			return nil, err
		}
		dataSize, err := readI32(r)
		if err != nil {
			return nil, err
		}
		if dataSize < 0 || int(dataSize) > r.Len() {
			return nil, errors.New("exr: invalid block size")
		}
		raw := make([]byte, dataSize)
		if _, err := io.ReadFull(r, raw); err != nil {
			return nil, err
		}

		startY := int(y) - int(dataWindow[1])
		if startY < 0 || startY >= height {
			return nil, errors.New("exr: scanline out of bounds")
		}
		lines := blockLines
		if startY+lines > height {
			lines = height - startY
		}

		expected := width * lines * 4 * len(channels)
		unpacked, err := exrInflate(compression, raw, expected)
		if err != nil {
			return nil, err
		}

		if err := exrScanBlock(out, channels, startY, width, lines, unpacked); err != nil {
			return nil, err
		}
	}

	// Track the actual ceiling so downstream stages know the range.
	maxV := 0.0
	for _, p := range out.Pixels {
		if p.R > maxV { maxV = p.R }
		if p.G > maxV { maxV = p.G }
		if p.B > maxV { maxV = p.B }
	}
	if maxV > 1.0 {
		out.Headroom = maxV
	}

	return out, nil
}

func parseChannelList(payload []byte) ([]exrChannel, error) {
	r := bytes.NewReader(payload)
	var channels []exrChannel
	for {
		name, err := readNullString(r)
		if err != nil {
			return nil, err
		}
		if name == "" {
			break
		}
		pixelType, err := readI32(r)
		if err != nil {
			return nil, err
		}
		if pixelType != exrPixelFloat {
			return nil, fmt.Errorf("exr: channel %q: only float32 channels supported", name)
		}
		if _, err := r.Seek(4, io.SeekCurrent); err != nil { // pLinear + reserved
			return nil, err
		}
		xs, err := readI32(r)
		if err != nil {
			return nil, err
		}
		ys, err := readI32(r)
		if err != nil {
			return nil, err
		}
		if xs != 1 || ys != 1 {
			return nil, errors.New("exr: subsampled channels not supported")
		}
		channels = append(channels, exrChannel{name: name, pixelType: pixelType})
	}
	return channels, nil
}

func exrInflate(compression byte, data []byte, expected int) ([]byte, error) {
	if compression == exrCompressionNone {
		if len(data) != expected {
			return nil, errors.New("exr: unexpected block size")
		}
		return data, nil
	}

	// A ZIP/ZIPS block stored at exactly the raw scanline size is an
	// uncompressed block (the writer's fallback when zlib expands the data).
	if len(data) == expected {
		return data, nil
	}

	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	unpacked, err := io.ReadAll(zr)
	if err != nil {
		return nil, err
	}
	if len(unpacked) != expected || len(unpacked)%2 != 0 {
		return nil, errors.New("exr: unexpected decompressed size")
	}
	undoPredictor(unpacked)
	return unshuffleBytes(unpacked), nil
}

func exrScanBlock(dst *Rendition, channels []exrChannel, startY, width, lines int, data []byte) error {
	pos := 0
	for row:=0; row<lines; row++ {
		y := startY + row
		for _, ch := range channels {
			lineBytes := width * 4
			if pos+lineBytes > len(data) {
				return errors.New("exr: block truncated")
			}
			line := data[pos : pos+lineBytes]
			pos += lineBytes

			for x:=0; x<width; x++ {
				v := float64(math.Float32frombits(binary.LittleEndian.Uint32(line[x*4 : x*4+4])))
				p := dst.Pix(x, y)
				switch ch.name {
				case "R":
					p.R = v
				case "G":
					p.G = v
				case "B":
					p.B = v
				case "Y":
					p.R, p.G, p.B = v, v, v
				}
				dst.SetPix(x, y, p)
			}
		}
	}
	return nil
}

func readNullString(r *bytes.Reader) (string, error) {
	var buf []byte
	for {
		b, err := r.ReadByte()
		if err != nil {
			return "", err
		}
		if b == 0 {
			break
		}
		buf = append(buf, b)
	}
	return string(buf), nil
}

func readU32(r *bytes.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

func readU64(r *bytes.Reader) (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}

func readI32(r *bytes.Reader) (int32, error) {
	v, err := readU32(r)
	return int32(v), err
}
