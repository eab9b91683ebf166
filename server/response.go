package server

import (
	"net/http"

	"github.com/hatlonely/dbadmin/rdb"
)

const kindBadRequest = "BadRequest"

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// StatusOf 错误类别对应的 HTTP 状态码
func StatusOf(kind rdb.Kind) int {
	switch kind {
	case rdb.KindTableNotFound, rdb.KindRowNotFound:
		return http.StatusNotFound
	case rdb.KindUnknownColumn, rdb.KindUnknownSortColumn, rdb.KindNoUpdateData,
		rdb.KindValidationFailed, rdb.KindPrimaryKeyImmutable, rdb.KindNoPrimaryKey:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) write(w http.ResponseWriter, r *http.Request, status int, v any) {
	codec := negotiate(r)
	w.Header().Set("Content-Type", codec.ContentType())
	w.WriteHeader(status)
	if err := codec.Encode(w, v); err != nil {
		s.logger.WarnContext(r.Context(), "write response failed", "path", r.URL.Path, "error", err)
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	kind := rdb.KindOf(err)
	status := StatusOf(kind)
	message := err.Error()
	if kind == "" {
		kind = rdb.KindStorageError
		message = "internal error"
	}
	if status == http.StatusInternalServerError {
		s.logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	}
	s.write(w, r, status, errorBody{Error: errorDetail{Kind: string(kind), Message: message}})
}

func (s *Server) badRequest(w http.ResponseWriter, r *http.Request, err error) {
	s.write(w, r, http.StatusBadRequest, errorBody{Error: errorDetail{Kind: kindBadRequest, Message: err.Error()}})
}
