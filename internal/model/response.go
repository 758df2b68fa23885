package model

// Response is the JSON envelope for every endpoint.
type Response struct {
	Data    any     `json:"data,omitempty"`
	Error   *string `json:"error,omitempty"`
	Message string  `json:"message"`
}

func Success(data any) Response {
	return Response{Data: data, Message: "Success"}
}

// Failure wraps a displayable error text.
func Failure(errMsg string) Response {
	return Response{Error: &errMsg, Message: "Error"}
}
