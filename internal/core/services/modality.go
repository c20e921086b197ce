package services

import (
	"bytes"
	"encoding/base64"
	"regexp"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

var base64Pattern = regexp.MustCompile(`^[A-Za-z0-9+/]+[=]{0,2}$`)

// imageSignatures maps leading magic bytes to a container format.
var imageSignatures = []struct {
	prefix []byte
	format string
}{
	{[]byte{0xFF, 0xD8, 0xFF}, "jpeg"},
	{[]byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}, "png"},
	{[]byte{0x47, 0x49, 0x46, 0x38}, "gif"},
	{[]byte{0x52, 0x49, 0x46, 0x46}, "webp"},
}

// signatureBytes is the longest signature; only this much is decoded.
const signatureBytes = 8

// Classify decides the modality of a raw content value.
//
// A Table (or record-oriented table data) is a table regardless of content.
// A string is an image only if it is entirely base64 and its decoded bytes
// start with a known image signature; anything else is text. Classify never
// fails: undecodable or unexpected values degrade to text.
func Classify(raw any) domain.Content {
	switch v := raw.(type) {
	case domain.Table:
		return domain.TableContent{Table: v}
	case *domain.Table:
		if v != nil {
			return domain.TableContent{Table: *v}
		}
		return domain.TextContent{}
	case []map[string]any:
		return domain.TableContent{Table: domain.TableFromRecords(v)}
	case string:
		if format, ok := ImageFormat(v); ok {
			return domain.ImageContent{Data: v, Format: format}
		}
		return domain.TextContent{Text: v}
	case []byte:
		return Classify(string(v))
	default:
		return domain.TextContent{}
	}
}

// ImageFormat reports whether s is a base64 encoded image and its format.
// Unpadded or truncated base64 is not an image.
func ImageFormat(s string) (string, bool) {
	if len(s)%4 != 0 || !base64Pattern.MatchString(s) {
		return "", false
	}

	// Decode only the leading quanta; enough for any signature.
	head := s
	if n := base64.StdEncoding.EncodedLen(signatureBytes) + 4; len(head) > n {
		head = head[:n]
	}
	decoded, err := base64.StdEncoding.DecodeString(head)
	if err != nil {
		return "", false
	}

	for _, sig := range imageSignatures {
		if bytes.HasPrefix(decoded, sig.prefix) {
			return sig.format, true
		}
	}
	return "", false
}
