package document

import (
	"encoding/hex"
	"unicode/utf16"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/a3tai/mcp-pdf-filler/internal/pdf/canvas"
)

// TextString encodes s as a PDF text string: a literal for printable ASCII,
// UTF-16BE with byte order mark otherwise.
func TextString(s string) types.Object {
	ascii := true
	for _, r := range s {
		if r > 0x7e || (r < 0x20 && r != '\n' && r != '\r' && r != '\t') {
			ascii = false
			break
		}
	}
	if ascii {
		return types.StringLiteral(canvas.Escape([]byte(s)))
	}
	units := utf16.Encode([]rune(s))
	buf := make([]byte, 0, 2+2*len(units))
	buf = append(buf, 0xfe, 0xff)
	for _, u := range units {
		buf = append(buf, byte(u>>8), byte(u))
	}
	return types.HexLiteral(hex.EncodeToString(buf))
}
