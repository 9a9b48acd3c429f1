package integrity

import (
	"errors"
	"fmt"

	"github.com/gabriel-vasile/mimetype"
)

const RTFMime = "text/rtf"

var ErrNotRTF = errors.New("content is not an RTF document")

// CheckSignature sniffs the leading bytes of content and rejects anything
// that is not detected as RTF, whatever the file extension says.
func CheckSignature(name string, content []byte) error {
	if len(content) == 0 {
		return fmt.Errorf("%s: empty file: %w", name, ErrNotRTF)
	}
	m := mimetype.Detect(content)
	if !m.Is(RTFMime) {
		return fmt.Errorf("%s: detected %s: %w", name, m.String(), ErrNotRTF)
	}
	return nil
}
