package errors

// ErrorCode identifies an application error category in API responses and logs.
type ErrorCode int32

const (
	ErrorCode_UNSPECIFIED        ErrorCode = 0
	ErrorCode_HTTP_OK            ErrorCode = 200
	ErrorCode_INTERNAL           ErrorCode = 1000
	ErrorCode_INVALID_ARGUMENT   ErrorCode = 1001
	ErrorCode_NOT_FOUND          ErrorCode = 1002
	ErrorCode_INVALID_PAYLOAD    ErrorCode = 1003
	ErrorCode_CONFLICT           ErrorCode = 1004
	ErrorCode_VALIDATION_FAILED  ErrorCode = 1100
	ErrorCode_TRANSPORT_FAILED   ErrorCode = 1200
	ErrorCode_DECODE_FAILED      ErrorCode = 1201
	ErrorCode_REMOTE_DISABLED    ErrorCode = 1202
	ErrorCode_ANALYSIS_IN_FLIGHT ErrorCode = 1300
	ErrorCode_ANALYSIS_REJECTED  ErrorCode = 1301
	ErrorCode_STORAGE_FAILED     ErrorCode = 1400
	ErrorCode_CACHE_FAILED       ErrorCode = 1401
)

var errorCodeNames = map[ErrorCode]string{
	ErrorCode_UNSPECIFIED:        "UNSPECIFIED",
	ErrorCode_HTTP_OK:            "HTTP_OK",
	ErrorCode_INTERNAL:           "INTERNAL",
	ErrorCode_INVALID_ARGUMENT:   "INVALID_ARGUMENT",
	ErrorCode_NOT_FOUND:          "NOT_FOUND",
	ErrorCode_INVALID_PAYLOAD:    "INVALID_PAYLOAD",
	ErrorCode_CONFLICT:           "CONFLICT",
	ErrorCode_VALIDATION_FAILED:  "VALIDATION_FAILED",
	ErrorCode_TRANSPORT_FAILED:   "TRANSPORT_FAILED",
	ErrorCode_DECODE_FAILED:      "DECODE_FAILED",
	ErrorCode_REMOTE_DISABLED:    "REMOTE_DISABLED",
	ErrorCode_ANALYSIS_IN_FLIGHT: "ANALYSIS_IN_FLIGHT",
	ErrorCode_ANALYSIS_REJECTED:  "ANALYSIS_REJECTED",
	ErrorCode_STORAGE_FAILED:     "STORAGE_FAILED",
	ErrorCode_CACHE_FAILED:       "CACHE_FAILED",
}

// String returns the symbolic name of the code
func (c ErrorCode) String() string {
	if name, ok := errorCodeNames[c]; ok {
		return name
	}
	return "UNSPECIFIED"
}

// MarshalText renders the code by name in JSON bodies
func (c ErrorCode) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}
