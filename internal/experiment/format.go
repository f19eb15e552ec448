package experiment

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

// Data file format versions.
const (
	// FormatV1 files hold the bare codec payload and nothing else.
	FormatV1 = 1
	// FormatV2 files start with a JSON header line followed by the payload.
	FormatV2 = 2
)

// Header is the plain-text first line of a V2 data file.
type Header struct {
	Format    int       `json:"format"`
	Kind      string    `json:"kind"`
	Codec     string    `json:"codec"`
	CreatedAt time.Time `json:"created_at"`
	Checksum  string    `json:"checksum"`
	Pages     int       `json:"pages"`
}

func checksum(payload []byte) string {
	sum := sha256.Sum256(payload)
	return "sha256:" + hex.EncodeToString(sum[:])
}

// encodeDataFile builds a V2 data file: header line, newline, payload.
func encodeDataFile(h Header, payload []byte) ([]byte, error) {
	h.Format = FormatV2
	h.Checksum = checksum(payload)

	headerBytes, err := json.Marshal(h)
	if err != nil {
		return nil, fmt.Errorf("marshaling header: %w", err)
	}

	var buf bytes.Buffer
	buf.Grow(len(headerBytes) + 1 + len(payload))
	buf.Write(headerBytes)
	buf.WriteByte('\n')
	buf.Write(payload)
	return buf.Bytes(), nil
}

// parseHeaderLine returns the V2 header at the start of data, or nil when
// data is not a V2 file.
func parseHeaderLine(data []byte) (*Header, int) {
	// Codec payloads never start with '{', so anything else is V1.
	if len(data) == 0 || data[0] != '{' {
		return nil, 0
	}
	end := bytes.IndexByte(data, '\n')
	if end < 0 {
		return nil, 0
	}

	var h Header
	if err := json.Unmarshal(data[:end], &h); err != nil || h.Format != FormatV2 {
		return nil, 0
	}
	return &h, end + 1
}

// DetectFormat reports whether data is a V1 or V2 data file.
func DetectFormat(data []byte) int {
	if h, _ := parseHeaderLine(data); h != nil {
		return FormatV2
	}
	return FormatV1
}

// splitDataFile separates the header from the payload and verifies the
// checksum. V1 files return a nil header and the whole input as payload.
func splitDataFile(data []byte) (*Header, []byte, error) {
	h, offset := parseHeaderLine(data)
	if h == nil {
		return nil, data, nil
	}

	payload := data[offset:]
	if actual := checksum(payload); actual != h.Checksum {
		return nil, nil, fmt.Errorf("checksum mismatch: expected %s, got %s", h.Checksum, actual)
	}
	return h, payload, nil
}

// ReadHeader reads only the header line of the data file at path. V1 files
// have no header and yield (nil, nil).
func ReadHeader(path string) (*Header, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, &IOError{Op: "read", Path: path, Err: err}
	}
	defer f.Close()

	line, err := bufio.NewReader(f).ReadBytes('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, &IOError{Op: "read", Path: path, Err: err}
	}

	h, _ := parseHeaderLine(line)
	return h, nil
}
