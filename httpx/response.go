package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	log "github.com/sirupsen/logrus"

	"seibi/database"
	"seibi/validation"
)

type ErrorResponse struct {
	Message string `json:"message"`
	Detail  any    `json:"detail,omitempty"`
}

func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	var body []byte
	var err error
	if payload != nil {
		body, err = json.Marshal(payload)
		if err != nil {
			http.Error(w, `{"message":"encode_error"}`, http.StatusInternalServerError)
			return
		}
	} else {
		body = []byte("null")
	}
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		log.Warnf("failed to write response: %v", err)
	}
}

// JSONError writes the structured error payload {message, detail}.
func JSONError(w http.ResponseWriter, status int, msg string, detail any) {
	JSON(w, status, ErrorResponse{Message: msg, Detail: detail})
}

func Message(w http.ResponseWriter, msg string) {
	JSON(w, http.StatusOK, map[string]string{"message": msg})
}

// Attachment sends a file download with a UTF-8 filename.
func Attachment(w http.ResponseWriter, contentType, filename string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", "attachment; filename*=UTF-8''"+url.PathEscape(filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	if _, err := w.Write(data); err != nil {
		log.Warnf("failed to write attachment %s: %v", filename, err)
	}
}

// PathID parses a positive int64 path value such as {id}.
func PathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	return dec.Decode(dst)
}

// ServiceError maps well-known errors to a status: validation failures to 400
// with the violations as detail, missing records to 404, everything else to 500.
func ServiceError(w http.ResponseWriter, err error, msg string) {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		JSONError(w, http.StatusBadRequest, "入力内容に誤りがあります", verr.Violations)
	case errors.Is(err, database.ErrNotFound):
		JSONError(w, http.StatusNotFound, "データが見つかりません", err.Error())
	default:
		log.Errorf("%s: %v", msg, err)
		JSONError(w, http.StatusInternalServerError, msg, err.Error())
	}
}
