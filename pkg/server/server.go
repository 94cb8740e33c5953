// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"carvel.dev/ytpl/pkg/cmd/ui"
	"carvel.dev/ytpl/pkg/engine"
	"carvel.dev/ytpl/pkg/metrics"
	"carvel.dev/ytpl/pkg/orderedmap"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
)

const maxRequestBytes = 1 << 20

type ServerOpts struct {
	ListenAddr string
	Engine     *engine.Engine
	Metrics    *metrics.Metrics
	UI         ui.UI

	// Values are defaults that request bodies are merged onto.
	Values *orderedmap.Map

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type Server struct {
	opts ServerOpts
}

func NewServer(opts ServerOpts) *Server {
	if opts.Values == nil {
		opts.Values = orderedmap.NewMap()
	}
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = 10 * time.Second
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = 30 * time.Second
	}
	return &Server{opts}
}

func (s *Server) Mux() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	if s.opts.Metrics != nil {
		r.Use(s.opts.Metrics.Middleware)
		r.Handle("/metrics", s.opts.Metrics.Handler())
	}
	// no need for caching as it's a POST
	r.Post("/render/*", s.noCacheHandler(s.renderHandler))
	r.Get("/healthz", s.healthHandler)
	return r
}

func (s *Server) Run() error {
	server := &http.Server{
		Addr:         s.opts.ListenAddr,
		Handler:      s.Mux(),
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
	}
	s.opts.UI.Printf("Listening on http://%s\n", server.Addr)
	return server.ListenAndServe()
}

func (s *Server) renderHandler(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "*")
	if len(strings.TrimSpace(name)) == 0 {
		s.logError(w, http.StatusBadRequest, fmt.Errorf("Expected template name in path (format: /render/<name>)"))
		return
	}

	values, err := s.values(r)
	if err != nil {
		s.logError(w, http.StatusBadRequest, err)
		return
	}

	out, err := s.opts.Engine.RenderFile(name, values)
	if err != nil {
		s.logError(w, statusForError(err), err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	s.write(w, []byte(out))
}

// values merges the JSON object in the request body (if any) onto the defaults.
func (s *Server) values(r *http.Request) (*orderedmap.Map, error) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes))
	if err != nil {
		return nil, fmt.Errorf("Reading request body: %s", err)
	}

	result := s.opts.Values.DeepCopy()

	if len(bytes.TrimSpace(data)) == 0 {
		return result, nil
	}

	var raw interface{}
	err = json.Unmarshal(data, &raw)
	if err != nil {
		return nil, fmt.Errorf("Unmarshaling request body: %s", err)
	}

	reqValues, ok := orderedmap.Conversion{Object: raw}.FromUnorderedMaps().(*orderedmap.Map)
	if !ok {
		return nil, fmt.Errorf("Expected request body to be a JSON object, but was %T", raw)
	}

	result.Merge(reqValues)
	return result, nil
}

func (s *Server) healthHandler(w http.ResponseWriter, _ *http.Request) {
	s.write(w, []byte("ok"))
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func (s *Server) logError(w http.ResponseWriter, status int, err error) {
	s.opts.UI.Warnf("Error: %s\n", err)

	resp, marshalErr := json.Marshal(errorResponse{Error: err.Error(), Kind: metrics.KindLabel(err)})
	if marshalErr != nil {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprintf(w, "generation error: %s", marshalErr.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	s.write(w, resp)
}

func (s *Server) write(w http.ResponseWriter, data []byte) {
	w.Write(data) // not fmt.Fprintf!
}

func statusForError(err error) int {
	switch metrics.KindLabel(err) {
	case "empty_path", "load":
		return http.StatusNotFound
	default:
		return http.StatusUnprocessableEntity
	}
}

var (
	noCacheHeaders = map[string]string{
		"Expires":         time.Unix(0, 0).Format(time.RFC1123),
		"Cache-Control":   "no-cache, private, max-age=0",
		"Pragma":          "no-cache",
		"X-Accel-Expires": "0",
	}
)

func (s *Server) noCacheHandler(wrappedFunc func(http.ResponseWriter, *http.Request)) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		for k, v := range noCacheHeaders {
			w.Header().Set(k, v)
		}

		wrappedFunc(w, r)
	}
}
