// ABOUTME: JSON response envelopes and request decoding
// ABOUTME: Validates decoded request bodies with go-playground/validator
package web

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/harperreed/zohosync/logging"
)

const maxBodyBytes = 1 << 20

var validate = validator.New()

var errEmptyBody = errors.New("request body is empty")

type successResponse struct {
	Status string `json:"status"`
	Data   any    `json:"data"`
}

type listResponse struct {
	Status string `json:"status"`
	Data   any    `json:"data"`
	Count  int    `json:"count"`
	Source string `json:"source,omitempty"`
}

type errorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func writeJSONResponse(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(status)

	if payload == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.Log.WithError(err).Error("Unable to encode payload")
	}
}

func writeSuccess(w http.ResponseWriter, status int, data any) {
	writeJSONResponse(w, status, successResponse{Status: "success", Data: data})
}

func writeList(w http.ResponseWriter, data any, count int, source string) {
	writeJSONResponse(w, http.StatusOK, listResponse{Status: "success", Data: data, Count: count, Source: source})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSONResponse(w, status, errorResponse{Status: "error", Message: message})
}

// decodeJSON reads one JSON value from the body into data and validates it
// when it is a struct. An empty body yields errEmptyBody.
func decodeJSON(w http.ResponseWriter, r *http.Request, data any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	if err := dec.Decode(data); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return errors.New("request body includes malformed json")
	}
	if dec.More() {
		return errors.New("request body must only contain one json object")
	}

	if err := validate.Struct(data); err != nil {
		var invalid *validator.InvalidValidationError
		if errors.As(err, &invalid) {
			// Not a struct; nothing to validate.
			return nil
		}
		return errors.New("request body failed validation: " + err.Error())
	}
	return nil
}
