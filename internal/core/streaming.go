package core

// Spreadsheet exports from Windows often start with a UTF-8 BOM and older
// tools emit Latin-1 bytes. Both are cleaned up while the upload streams
// into the CSV reader.

import (
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// invalidByteReplacer rewrites every byte that does not begin a valid UTF-8
// sequence as '?'. Output never grows past the input length.
type invalidByteReplacer struct{ transform.NopResetter }

func (invalidByteReplacer) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	for nSrc < len(src) {
		if c := src[nSrc]; c < utf8.RuneSelf {
			if nDst >= len(dst) {
				return nDst, nSrc, transform.ErrShortDst
			}
			dst[nDst] = c
			nDst++
			nSrc++
			continue
		}

		r, size := utf8.DecodeRune(src[nSrc:])
		if r == utf8.RuneError && size == 1 {
			// A rune split across reads waits for the rest of its bytes.
			if !atEOF && !utf8.FullRune(src[nSrc:]) {
				return nDst, nSrc, transform.ErrShortSrc
			}
			if nDst >= len(dst) {
				return nDst, nSrc, transform.ErrShortDst
			}
			dst[nDst] = '?'
			nDst++
			nSrc++
			continue
		}

		if nDst+size > len(dst) {
			return nDst, nSrc, transform.ErrShortDst
		}
		nDst += copy(dst[nDst:], src[nSrc:nSrc+size])
		nSrc += size
	}
	return nDst, nSrc, nil
}

// wrapForParsing replaces invalid bytes and then drops a leading BOM.
// Replacement runs first so the UTF-8 decoder never substitutes U+FFFD.
func wrapForParsing(r io.Reader) io.Reader {
	return transform.NewReader(r, transform.Chain(
		invalidByteReplacer{},
		unicode.UTF8BOM.NewDecoder(),
	))
}
