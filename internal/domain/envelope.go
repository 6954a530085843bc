package domain

// Response is the uniform envelope returned by every endpoint.
// Success responses carry status "success" with optional data and message;
// error responses carry status "error" with message and code.
type Response struct {
	Status  string `json:"status"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
}

// SuccessResponse builds a success envelope.
func SuccessResponse(data any, message string) Response {
	return Response{Status: "success", Data: data, Message: message}
}

// ErrorResponse builds an error envelope.
func ErrorResponse(message, code string) Response {
	return Response{Status: "error", Message: message, Code: code}
}
