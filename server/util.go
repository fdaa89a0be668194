package server

import (
	"encoding/json"
	"net/http"
)

func SendResponse(w http.ResponseWriter, success bool, data interface{}, errorMsg string) {
	response := ResponseModel{Success: success, Data: data, Error: errorMsg}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, `{"success":false,"error":"Internal Server Error"}`, http.StatusInternalServerError)
	}
}

func SendResponseWithHeader(w http.ResponseWriter, success bool, data interface{}, errorMsg string, statusCode int, payloadHeaders map[string]string) {
	response := ResponseModel{Success: success, Data: data, Error: errorMsg}
	w.Header().Set("Content-Type", "application/json")

	for key, value := range payloadHeaders {
		w.Header().Set(key, value)
	}

	if success {
		w.WriteHeader(http.StatusOK)
	} else if statusCode != 0 {
		w.WriteHeader(statusCode)
	} else {
		w.WriteHeader(http.StatusBadRequest)
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, `{"success":false,"error":"Internal Server Error"}`, http.StatusInternalServerError)
	}
}
