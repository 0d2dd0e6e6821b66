package constants

// DocStatus is the per-document outcome recorded next to the extracted fields.
type DocStatus string

// Stable values (these exact strings appear in exports).
const (
	StatusOK              DocStatus = "OK"               // text acquired, fields may still be empty
	StatusDecodeError     DocStatus = "DECODE_ERROR"     // file could not be decoded
	StatusUnsupportedType DocStatus = "UNSUPPORTED_TYPE" // suffix not routed to any reader
	StatusFailed          DocStatus = "FAILED"           // OCR / text-layer engine failed
)
