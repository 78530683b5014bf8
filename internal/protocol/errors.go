package protocol

const (
	// Protocol/transport validation.
	ErrProto = "E_PROTO"

	// Command layer.
	ErrBadRequest = "E_BAD_REQUEST"
	ErrUnknownOp  = "E_UNKNOWN_OP"
	ErrRejected   = "E_REJECTED"
	ErrRateLimit  = "E_RATE_LIMIT"
	ErrInternal   = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProto:      {},
	ErrBadRequest: {},
	ErrUnknownOp:  {},
	ErrRejected:   {},
	ErrRateLimit:  {},
	ErrInternal:   {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
