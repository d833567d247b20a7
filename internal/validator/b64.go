package validator

import (
	"encoding/base64"
)

// Largest attachment, before encoding, that is inlined into a vendor JSON payload
const MaxInlineAttachmentBytes = 10 << 20

// ensure the data length is less than the maximum base64 length for a given length without decoding the base64
func validateBase64Len(dataLen int, length int) bool {
	return dataLen <= base64.StdEncoding.EncodedLen(length)
}

// ensures an encoded attachment fits the inline attachment limit
func ValidateInlineAttachmentSize(dataLen int) bool {
	return validateBase64Len(dataLen, MaxInlineAttachmentBytes)
}
