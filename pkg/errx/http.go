package errx

// HTTPErrorResponse is the JSON body returned for API errors
type HTTPErrorResponse struct {
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	Type       string                 `json:"type"`
	Details    map[string]interface{} `json:"details,omitempty"`
	StatusCode int                    `json:"status_code"`
}

// ToHTTPResponse converts an Error to an HTTPErrorResponse
func (e *Error) ToHTTPResponse() HTTPErrorResponse {
	return HTTPErrorResponse{
		Code:       e.Code,
		Message:    e.Message,
		Type:       string(e.Type),
		Details:    e.Details,
		StatusCode: e.HTTPStatus,
	}
}

// StatusOf returns the HTTP status carried by err, or 500 when err is not an *Error
func StatusOf(err error) int {
	var e *Error
	if As(err, &e) {
		return e.HTTPStatus
	}
	return 500
}
