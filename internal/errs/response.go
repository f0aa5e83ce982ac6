package errs

// Response is the JSON error envelope returned by the API.
type Response struct {
	Error Detail `json:"error"`
}

// Detail carries the code, a human-readable message and optional details.
type Detail struct {
	Code      string   `json:"code"`
	Message   string   `json:"message"`
	Details   []string `json:"details,omitempty"`
	RequestID string   `json:"request_id,omitempty"`
}

// Option customises a Response.
type Option func(*Response)

// WithMessage overrides the default message for the code.
func WithMessage(message string) Option {
	return func(r *Response) {
		r.Error.Message = message
	}
}

// WithDetails attaches detail lines.
func WithDetails(details ...string) Option {
	return func(r *Response) {
		r.Error.Details = details
	}
}

// NewResponse builds an envelope for code.
func NewResponse(code Code, requestID string, opts ...Option) *Response {
	resp := &Response{
		Error: Detail{
			Code:      string(code),
			Message:   Message(code),
			RequestID: requestID,
		},
	}
	for _, opt := range opts {
		opt(resp)
	}
	return resp
}

// FromError builds an envelope from err, keeping err's text as the message
// for caller-facing kinds and hiding it for internal failures.
func FromError(err error, requestID string) *Response {
	code := CodeOf(err)
	if code == SystemInternal {
		return NewResponse(code, requestID)
	}
	return NewResponse(code, requestID, WithMessage(err.Error()))
}
