package stockparser

import (
	"fmt"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding/ianaindex"

	"github.com/noine32/deadstock-search-replit/logging"
)

// DetectEncoding returns the best-guess charset name for raw bytes.
// Detection is statistical and advisory: when the detector fails or has
// nothing usable, UTF-8 is returned so callers never abort on detection.
func DetectEncoding(data []byte) string {
	result, err := chardet.NewTextDetector().DetectBest(data)
	if err != nil || result == nil || result.Charset == "" {
		return "UTF-8"
	}
	return result.Charset
}

// DecodeText converts raw bytes to UTF-8 using the detected charset.
// Pharmacy system exports arrive in Shift_JIS as often as UTF-8, so the bytes
// are inspected before any structured parsing. Input that already is valid
// UTF-8 is passed through untouched.
func DecodeText(data []byte) ([]byte, error) {
	if utf8.Valid(data) {
		return data, nil
	}

	charset := DetectEncoding(data)
	enc, err := ianaindex.IANA.Encoding(charset)
	if err != nil || enc == nil {
		// Unknown charset name: fall back to treating the input as UTF-8.
		logging.Warn("Unresolvable charset, falling back to UTF-8", "charset", charset)
		return data, nil
	}

	decoded, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("decoding %s input: %w", charset, err)
	}

	logging.Debug("Decoded dataset bytes", "charset", charset, "bytes_in", len(data), "bytes_out", len(decoded))
	return decoded, nil
}
