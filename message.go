package jsonrpc

// NewError creates a new JSON-RPC error response.
func NewError(
	requestId RequestId, // The id of the request this error corresponds to
	inner InnerError,
) *Error {
	return &Error{
		Error:   inner,
		Id:      requestId, // The id of the request this error answers; nil when unknown
		Jsonrpc: Version,   // Use the current JSON-RPC version
	}
}

// NewInnerError creates a new InnerError instance to represent the error that occurred.
func NewInnerError(
	code int,
	message string,
	data interface{},
) InnerError {
	return InnerError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}
