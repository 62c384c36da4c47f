// Package httprel adapts relkit handlers to net/http.
//
// The core exposes one framework-agnostic handler per (relation, verb)
// pair; this package registers them on an *http.ServeMux under the usual
// REST conventions and maps the relkit error taxonomy to status codes:
//
//	POST   /users       create -> 201
//	GET    /users       list   -> 200
//	GET    /users/{id}  read   -> 200
//	PATCH  /users/{id}  update -> 200
//	DELETE /users/{id}  delete -> 204
//
// Responses are JSON by default; clients can request msgpack with
// "Accept: application/x-msgpack".
package httprel

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/relkit/relkit"
)

// maxBodyBytes bounds create and update bodies.
const maxBodyBytes = 1 << 20

const (
	contentJSON    = "application/json"
	contentMsgpack = "application/x-msgpack"
)

// Resource is the mountable surface of a registered relation. Every
// relkit.Relation implements it.
type Resource interface {
	Name() string
	Handlers() map[relkit.Capability]relkit.Handler
}

// Mount registers one route per declared capability of the resource on the
// mux. Undeclared verbs are simply not routed; the framework's default 404
// covers them.
func Mount(mux *http.ServeMux, res Resource) {
	name := res.Name()
	for c, h := range res.Handlers() {
		switch c {
		case relkit.CapabilityCreate:
			mux.Handle("POST /"+name, Adapt(h))
		case relkit.CapabilityList:
			mux.Handle("GET /"+name+"/{$}", Adapt(h))
			mux.Handle("GET /"+name, Adapt(h))
		case relkit.CapabilityRead:
			mux.Handle("GET /"+name+"/{id}", Adapt(h))
		case relkit.CapabilityUpdate:
			mux.Handle("PATCH /"+name+"/{id}", Adapt(h))
		case relkit.CapabilityDelete:
			mux.Handle("DELETE /"+name+"/{id}", Adapt(h))
		}
	}
}

// Adapt wraps a relkit handler as an http.Handler.
func Adapt(h relkit.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
		if err != nil {
			writeError(w, r, relkit.NewInvalidFilterError("", "cannot read body: %v", err))
			return
		}
		in := relkit.Input{
			Key:   r.PathValue("id"),
			Body:  body,
			Query: r.URL.Query(),
		}
		out, err := h(r.Context(), in)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeOutput(w, r, out)
	})
}

// StatusOf maps the relkit error taxonomy to a response status.
func StatusOf(err error) int {
	switch {
	case relkit.IsInvalidFilter(err), relkit.IsEmptyUpdate(err):
		return http.StatusBadRequest
	case relkit.IsNotFound(err):
		return http.StatusNotFound
	case relkit.IsConnection(err), relkit.IsCanceled(err):
		return http.StatusServiceUnavailable
	default:
		// IntegrityError and anything unclassified is a server fault.
		return http.StatusInternalServerError
	}
}

func writeOutput(w http.ResponseWriter, r *http.Request, out *relkit.Output) {
	switch out.Kind {
	case relkit.Created:
		writeBody(w, r, http.StatusCreated, out.Record)
	case relkit.Found, relkit.Updated:
		writeBody(w, r, http.StatusOK, out.Record)
	case relkit.Listed:
		writeBody(w, r, http.StatusOK, out.Records)
	case relkit.Deleted:
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusInternalServerError)
	}
}

type errorBody struct {
	Error string `json:"error" msgpack:"error"`
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	writeBody(w, r, StatusOf(err), errorBody{Error: err.Error()})
}

func writeBody(w http.ResponseWriter, r *http.Request, status int, v any) {
	contentType := contentJSON
	if r.Header.Get("Accept") == contentMsgpack {
		contentType = contentMsgpack
	}
	var (
		payload []byte
		err     error
	)
	switch contentType {
	case contentMsgpack:
		payload, err = msgpack.Marshal(v)
	default:
		payload, err = json.Marshal(v)
	}
	if err != nil {
		http.Error(w, "encoding failure", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	w.Write(payload)
}
