package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
)

// CustomResponseWriter is a wrapper for http.ResponseWriter. It is
// used to record response details like status code and body size.
type CustomResponseWriter struct {
	http.ResponseWriter
	code  int
	bytes int
	wrote bool
}

// NewCustomResponseWriter provides CustomResponseWriter with 200 as status code.
func NewCustomResponseWriter(rw http.ResponseWriter) *CustomResponseWriter {
	return &CustomResponseWriter{
		ResponseWriter: rw,
		code:           http.StatusOK,
	}
}

// WriteHeader implements http.WriteHeader interface.
func (cw *CustomResponseWriter) WriteHeader(code int) {
	if !cw.wrote {
		cw.code = code
		cw.wrote = true
		cw.ResponseWriter.WriteHeader(code)
	}
}

// Write implements http.Write interface.
func (cw *CustomResponseWriter) Write(bytes []byte) (int, error) {
	if !cw.wrote {
		cw.WriteHeader(cw.code)
	}
	n, err := cw.ResponseWriter.Write(bytes)
	cw.bytes += n
	return n, err
}

// Status returns the written status code.
func (cw *CustomResponseWriter) Status() int {
	return cw.code
}

// Bytes returns bytes written as response body.
func (cw *CustomResponseWriter) Bytes() int {
	return cw.bytes
}

// Unwrap returns native response writer and used by
// the http.ResponseController during its operation.
func (cw *CustomResponseWriter) Unwrap() http.ResponseWriter {
	return cw.ResponseWriter
}

// APIError is the data model sent when an error occurred during request processing.
type APIError struct {
	RequestID string      `json:"requestid"`
	Status    int         `json:"status"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data"`
}

func NewAPIError(requestid string, status int, message string, data interface{}) *APIError {
	return &APIError{
		RequestID: requestid,
		Status:    status,
		Message:   message,
		Data:      data,
	}
}

// WriteErrorResponse is used to send error response to client. In case the client closes the request,
// it logs the stats with the Nginx non standard status code 499 (Client Closed Request). In case of
// request processing timeout we set the status code to 504 which will be used to log the stats.
func WriteErrorResponse(ctx context.Context, w http.ResponseWriter, errResp *APIError) error {
	return WriteJSON(ctx, w, errResp.Status, errResp)
}

// WriteJSON sends the bare json document v with the given status code. The
// catalog endpoints answer with raw arrays and objects rather than an envelope.
func WriteJSON(ctx context.Context, w http.ResponseWriter, status int, v interface{}) error {
	if err := ctx.Err(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			w.WriteHeader(http.StatusGatewayTimeout)
		} else {
			w.WriteHeader(499)
		}
		return err
	}
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}
