// Package server 以 HTTP 接口暴露数据管理操作
package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/hatlonely/dbadmin/log/logger"
	"github.com/hatlonely/dbadmin/rdb"
	"github.com/hatlonely/dbadmin/rdb/admin"
	"github.com/hatlonely/dbadmin/rdb/record"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const maxBodyBytes = 4 << 20

type Options struct {
	Addr            string        `cfg:"addr" def:":8080"`
	AdminTokens     []string      `cfg:"adminTokens"`
	ReadTimeout     time.Duration `cfg:"readTimeout" def:"10s"`
	WriteTimeout    time.Duration `cfg:"writeTimeout" def:"30s"`
	ShutdownTimeout time.Duration `cfg:"shutdownTimeout" def:"5s"`
}

type Server struct {
	admin      admin.Admin
	authorizer Authorizer
	logger     logger.Logger
	gatherer   prometheus.Gatherer
	handler    http.Handler
}

// NewServer gatherer 为 nil 时使用 prometheus 默认 registry
func NewServer(a admin.Admin, authorizer Authorizer, l logger.Logger, gatherer prometheus.Gatherer) *Server {
	if l == nil {
		l = logger.NewNop()
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	s := &Server{
		admin:      a,
		authorizer: authorizer,
		logger:     l.WithGroup("server"),
		gatherer:   gatherer,
	}

	api := http.NewServeMux()
	api.HandleFunc("GET /api/tables", s.listTables)
	api.HandleFunc("GET /api/tables/{table}", s.describeTable)
	api.HandleFunc("GET /api/tables/{table}/rows", s.listRows)
	api.HandleFunc("POST /api/tables/{table}/rows", s.insertRow)
	api.HandleFunc("GET /api/tables/{table}/rows/{id}", s.getRow)
	api.HandleFunc("PUT /api/tables/{table}/rows/{id}", s.updateRow)
	api.HandleFunc("PATCH /api/tables/{table}/rows/{id}/{column}", s.updateCell)
	api.HandleFunc("DELETE /api/tables/{table}/rows/{id}", s.deleteRow)

	mux := http.NewServeMux()
	mux.Handle("/api/", s.authorize(api))
	mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		s.write(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})
	s.handler = s.accessLog(mux)

	return s
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run 监听并处理请求，ctx 取消后优雅退出
func (s *Server) Run(ctx context.Context, options *Options) error {
	srv := &http.Server{
		Addr:         options.Addr,
		Handler:      s.handler,
		ReadTimeout:  options.ReadTimeout,
		WriteTimeout: options.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server started", "addr", options.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "ListenAndServe failed")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), options.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown failed")
	}
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) listTables(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.admin.ListTables(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.write(w, r, http.StatusOK, summaries)
}

func (s *Server) describeTable(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("table")
	table, ok, err := s.admin.GetTableMetadata(r.Context(), name)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if !ok {
		s.fail(w, r, rdb.ErrTableNotFound(name))
		return
	}
	s.write(w, r, http.StatusOK, table)
}

func (s *Server) listRows(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	spec := admin.QuerySpec{Filter: query.Get("filter")}

	var err error
	if spec.Page, err = intParam(query.Get("page")); err != nil {
		s.fail(w, r, rdb.ErrValidationFailed("page", "must be an integer"))
		return
	}
	if spec.Limit, err = intParam(query.Get("limit")); err != nil {
		s.fail(w, r, rdb.ErrValidationFailed("limit", "must be an integer"))
		return
	}
	if column := query.Get("sort"); column != "" {
		spec.Sort = &admin.Sort{Column: column, Direction: query.Get("order")}
	}

	result, err := s.admin.List(r.Context(), r.PathValue("table"), spec)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.write(w, r, http.StatusOK, result)
}

func (s *Server) insertRow(w http.ResponseWriter, r *http.Request) {
	var data record.Record
	if err := decodeBody(r, &data); err != nil {
		s.badRequest(w, r, err)
		return
	}
	row, err := s.admin.Insert(r.Context(), r.PathValue("table"), data)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.write(w, r, http.StatusCreated, row)
}

func (s *Server) getRow(w http.ResponseWriter, r *http.Request) {
	row, err := s.admin.Get(r.Context(), r.PathValue("table"), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.write(w, r, http.StatusOK, row)
}

func (s *Server) updateRow(w http.ResponseWriter, r *http.Request) {
	var data record.Record
	if err := decodeBody(r, &data); err != nil {
		s.badRequest(w, r, err)
		return
	}
	row, err := s.admin.UpdateRow(r.Context(), r.PathValue("table"), r.PathValue("id"), data)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.write(w, r, http.StatusOK, row)
}

func (s *Server) updateCell(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Value any `json:"value"`
	}
	if err := decodeBody(r, &body); err != nil {
		s.badRequest(w, r, err)
		return
	}
	row, err := s.admin.UpdateCell(r.Context(), r.PathValue("table"), r.PathValue("id"), r.PathValue("column"), body.Value)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.write(w, r, http.StatusOK, row)
}

func (s *Server) deleteRow(w http.ResponseWriter, r *http.Request) {
	if err := s.admin.Delete(r.Context(), r.PathValue("table"), r.PathValue("id")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func intParam(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}
