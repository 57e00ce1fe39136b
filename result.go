package voxelio

import "fmt"

// ResultCode is the outcome of a single reader/writer operation. Codecs
// never panic or return a bare Go error for format-level problems; they
// return a ResultCode (see spec §7 "Error handling design").
type ResultCode int

const (
	// OK family.
	ResultOK ResultCode = iota
	ResultOKInitialized
	ResultReadOK
	ResultReadBufferFull
	ResultReadObjectEnd
	ResultReadEnd
	ResultWriteOK
	ResultWriteBufferUnderfull
	ResultWriteObjectEnd
	ResultWriteEnd

	// Warning family.
	ResultWarningNOP
	ResultWarningInputNOP
	ResultWarningDoubleInit

	// User errors.
	ResultUserErrorMissingPalette
	ResultUserErrorMissingCanvas
	ResultUserErrorInvalidFormat
	ResultUserErrorInvalidColorFormat

	// Read errors.
	ResultReadErrorIO
	ResultReadErrorUnexpectedEOF
	ResultReadErrorIllegalCharacter
	ResultReadErrorParseFail
	ResultReadErrorUnexpectedMagic
	ResultReadErrorUnexpectedSymbol
	ResultReadErrorUnknownVersion
	ResultReadErrorUnsupportedVersion
	ResultReadErrorUnknownFeature
	ResultReadErrorUnsupportedFeature
	ResultReadErrorCorruptedEnum
	ResultReadErrorCorruptedBool
	ResultReadErrorMissingData
	ResultReadErrorWrongListLength
	ResultReadErrorDuplicateData
	ResultReadErrorMultipleRoots
	ResultReadErrorIllegalDataLength
	ResultReadErrorStringTooShort
	ResultReadErrorInvalidConstant
	ResultReadErrorInvalidChecksum
	ResultReadErrorTextParseFail
	ResultReadErrorValueOutOfBounds

	// Write errors.
	ResultWriteErrorIO
	ResultWriteErrorOutOfBoundsPosition
	ResultWriteErrorOutOfBoundsIndex
	ResultWriteErrorUnsupportedOutputFormat

	// Internal errors.
	ResultInternalError
)

var resultNames = map[ResultCode]string{
	ResultOK:                   "OK",
	ResultOKInitialized:        "OK_INITIALIZED",
	ResultReadOK:               "READ_OK",
	ResultReadBufferFull:       "READ_BUFFER_FULL",
	ResultReadObjectEnd:        "READ_OBJECT_END",
	ResultReadEnd:              "READ_END",
	ResultWriteOK:              "WRITE_OK",
	ResultWriteBufferUnderfull: "WRITE_BUFFER_UNDERFULL",
	ResultWriteObjectEnd:       "WRITE_OBJECT_END",
	ResultWriteEnd:             "WRITE_END",

	ResultWarningNOP:        "WARNING_NOP",
	ResultWarningInputNOP:   "WARNING_INPUT_NOP",
	ResultWarningDoubleInit: "WARNING_DOUBLE_INIT",

	ResultUserErrorMissingPalette:     "USER_ERROR_MISSING_PALETTE",
	ResultUserErrorMissingCanvas:      "USER_ERROR_MISSING_CANVAS",
	ResultUserErrorInvalidFormat:      "USER_ERROR_INVALID_FORMAT",
	ResultUserErrorInvalidColorFormat: "USER_ERROR_INVALID_COLOR_FORMAT",

	ResultReadErrorIO:                 "READ_ERROR_IO",
	ResultReadErrorUnexpectedEOF:      "READ_ERROR_UNEXPECTED_EOF",
	ResultReadErrorIllegalCharacter:   "READ_ERROR_ILLEGAL_CHARACTER",
	ResultReadErrorParseFail:          "READ_ERROR_PARSE_FAIL",
	ResultReadErrorUnexpectedMagic:    "READ_ERROR_UNEXPECTED_MAGIC",
	ResultReadErrorUnexpectedSymbol:   "READ_ERROR_UNEXPECTED_SYMBOL",
	ResultReadErrorUnknownVersion:     "READ_ERROR_UNKNOWN_VERSION",
	ResultReadErrorUnsupportedVersion: "READ_ERROR_UNSUPPORTED_VERSION",
	ResultReadErrorUnknownFeature:     "READ_ERROR_UNKNOWN_FEATURE",
	ResultReadErrorUnsupportedFeature: "READ_ERROR_UNSUPPORTED_FEATURE",
	ResultReadErrorCorruptedEnum:      "READ_ERROR_CORRUPTED_ENUM",
	ResultReadErrorCorruptedBool:      "READ_ERROR_CORRUPTED_BOOL",
	ResultReadErrorMissingData:        "READ_ERROR_MISSING_DATA",
	ResultReadErrorWrongListLength:    "READ_ERROR_WRONG_LIST_LENGTH",
	ResultReadErrorDuplicateData:      "READ_ERROR_DUPLICATE_DATA",
	ResultReadErrorMultipleRoots:      "READ_ERROR_MULTIPLE_ROOTS",
	ResultReadErrorIllegalDataLength:  "READ_ERROR_ILLEGAL_DATA_LENGTH",
	ResultReadErrorStringTooShort:     "READ_ERROR_STRING_TOO_SHORT",
	ResultReadErrorInvalidConstant:    "READ_ERROR_INVALID_CONSTANT",
	ResultReadErrorInvalidChecksum:    "READ_ERROR_INVALID_CHECKSUM",
	ResultReadErrorTextParseFail:      "READ_ERROR_TEXT_PARSE_FAIL",
	ResultReadErrorValueOutOfBounds:   "READ_ERROR_VALUE_OUT_OF_BOUNDS",

	ResultWriteErrorIO:                      "WRITE_ERROR_IO",
	ResultWriteErrorOutOfBoundsPosition:     "WRITE_ERROR_OUT_OF_BOUNDS_POSITION",
	ResultWriteErrorOutOfBoundsIndex:        "WRITE_ERROR_OUT_OF_BOUNDS_INDEX",
	ResultWriteErrorUnsupportedOutputFormat: "WRITE_ERROR_UNSUPPORTED_OUTPUT_FORMAT",
	ResultInternalError:                     "INTERNAL_ERROR",
}

func (r ResultCode) String() string {
	if name, ok := resultNames[r]; ok {
		return name
	}
	return fmt.Sprintf("ResultCode(%d)", int(r))
}

// IsGood reports whether r belongs to the OK family.
func (r ResultCode) IsGood() bool { return r >= ResultOK && r <= ResultWriteEnd }

// IsWarning reports whether r belongs to the warning family.
func (r ResultCode) IsWarning() bool {
	return r >= ResultWarningNOP && r <= ResultWarningDoubleInit
}

// IsReadError reports whether r belongs to the read-error family.
func (r ResultCode) IsReadError() bool {
	return r >= ResultReadErrorIO && r <= ResultReadErrorValueOutOfBounds
}

// IsWriteError reports whether r belongs to the write-error family.
func (r ResultCode) IsWriteError() bool {
	return r >= ResultWriteErrorIO && r <= ResultWriteErrorUnsupportedOutputFormat
}

// IsUserError reports whether r belongs to the user-error family.
func (r ResultCode) IsUserError() bool {
	return r >= ResultUserErrorMissingPalette && r <= ResultUserErrorInvalidColorFormat
}

// IsInternalError reports whether r is the internal-error code.
func (r ResultCode) IsInternalError() bool { return r == ResultInternalError }

// IsError reports whether r is any kind of error (user, read, write, or
// internal).
func (r ResultCode) IsError() bool {
	return r.IsUserError() || r.IsReadError() || r.IsWriteError() || r.IsInternalError()
}

// Error describes where and why a ResultCode-producing operation failed.
// It is populated iff the associated ResultCode satisfies IsError.
type Error struct {
	// Location is the byte offset in the stream at which the problem was
	// detected.
	Location uint64
	// Message is a human-readable diagnostic.
	Message string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("at byte %d: %s", e.Location, e.Message)
}

// ReadResult bundles the outcome of a single AbstractReader.Read call.
type ReadResult struct {
	// VoxelsRead is the number of voxels written into the caller's buffer
	// during this call.
	VoxelsRead uint64
	Code       ResultCode
	// Err is non-nil iff Code.IsError().
	Err *Error
}

// ReadResultOK builds a successful ReadResult carrying voxelsRead voxels.
func ReadResultOK(voxelsRead uint64, code ResultCode) ReadResult {
	return ReadResult{VoxelsRead: voxelsRead, Code: code}
}

// ReadResultError builds an error ReadResult. voxelsRead is usually 0, but
// may be nonzero if some voxels were emitted before the error occurred.
func ReadResultError(voxelsRead uint64, code ResultCode, location uint64, message string) ReadResult {
	if !code.IsError() {
		code = ResultInternalError
	}
	return ReadResult{
		VoxelsRead: voxelsRead,
		Code:       code,
		Err:        &Error{Location: location, Message: message},
	}
}

func (r ReadResult) String() string {
	if r.Err != nil {
		return fmt.Sprintf("%s (voxelsRead=%d): %s", r.Code, r.VoxelsRead, r.Err.Error())
	}
	return fmt.Sprintf("%s (voxelsRead=%d)", r.Code, r.VoxelsRead)
}
