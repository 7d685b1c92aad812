package proto

import "strconv"

// ErrorCode is a device-reported JSON-RPC error code. The reserved JSON-RPC
// range is mirrored alongside the device-specific codes 2-10. Codes outside
// the taxonomy pass through with their raw numeric value.
type ErrorCode int

const (
	CodeParseError     ErrorCode = -32700
	CodeInvalidRequest ErrorCode = -32600
	CodeMethodNotFound ErrorCode = -32601
	CodeInvalidParams  ErrorCode = -32602
	CodeServerError    ErrorCode = -32603
	CodeCoreStandby    ErrorCode = -32604

	CodeInvalidPageRequestID  ErrorCode = 2
	CodeBadPageRequest        ErrorCode = 3
	CodeMissingFile           ErrorCode = 4
	CodeChangeGroupsExhausted ErrorCode = 5
	CodeUnknownChangeGroup    ErrorCode = 6
	CodeUnknownComponent      ErrorCode = 7
	CodeUnknownControl        ErrorCode = 8
	CodeIllegalMixerChannel   ErrorCode = 9
	CodeLogonRequired         ErrorCode = 10
)

var errorNames = map[ErrorCode]string{
	CodeParseError:            "PARSE_ERROR",
	CodeInvalidRequest:        "INVALID_REQUEST",
	CodeMethodNotFound:        "METHOD_NOT_FOUND",
	CodeInvalidParams:         "INVALID_PARAMS",
	CodeServerError:           "SERVER_ERROR",
	CodeCoreStandby:           "CORE_STANDBY",
	CodeInvalidPageRequestID:  "INVALID_PAGE_REQUEST_ID",
	CodeBadPageRequest:        "BAD_PAGE_REQUEST",
	CodeMissingFile:           "MISSING_FILE",
	CodeChangeGroupsExhausted: "CHANGE_GROUPS_EXHAUSTED",
	CodeUnknownChangeGroup:    "UNKNOWN_CHANGE_GROUP",
	CodeUnknownComponent:      "UNKNOWN_COMPONENT",
	CodeUnknownControl:        "UNKNOWN_CONTROL",
	CodeIllegalMixerChannel:   "ILLEGAL_MIXER_CHANNEL",
	CodeLogonRequired:         "LOGON_REQUIRED",
}

var errorDescriptions = map[ErrorCode]string{
	CodeParseError:            "Parse error. Invalid JSON was received by the server.",
	CodeInvalidRequest:        "Invalid request. The JSON sent is not a valid Request object.",
	CodeMethodNotFound:        "Method not found.",
	CodeInvalidParams:         "Invalid params.",
	CodeServerError:           "Server error.",
	CodeCoreStandby:           "Core is on Standby (not active in redundant configuration).",
	CodeInvalidPageRequestID:  "Invalid Page Request ID.",
	CodeBadPageRequest:        "Bad Page Request - could not create the requested Page Request.",
	CodeMissingFile:           "Missing file.",
	CodeChangeGroupsExhausted: "Change Groups exhausted.",
	CodeUnknownChangeGroup:    "Unknown change group.",
	CodeUnknownComponent:      "Unknown component name.",
	CodeUnknownControl:        "Unknown control.",
	CodeIllegalMixerChannel:   "Illegal mixer channel index.",
	CodeLogonRequired:         "Logon required.",
}

// Description resolves a known code to its human-readable text. ok is false
// for codes outside the taxonomy.
func (c ErrorCode) Description() (desc string, ok bool) {
	desc, ok = errorDescriptions[c]
	return desc, ok
}

func (c ErrorCode) String() string {
	if name, ok := errorNames[c]; ok {
		return name
	}
	return strconv.Itoa(int(c))
}
