package disk

import (
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// decodeName returns name unchanged when it is valid UTF-8. Otherwise the
// bytes are taken as code page 437, the OEM character set of FAT short names.
func decodeName(name string) string {
	if utf8.ValidString(name) {
		return name
	}
	decoded, err := charmap.CodePage437.NewDecoder().String(name)
	if err != nil {
		return name
	}
	return decoded
}
