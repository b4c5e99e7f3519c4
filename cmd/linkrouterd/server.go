package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/goliatone/go-linkrouter/adapters/wsnav"
	"github.com/goliatone/go-linkrouter/pkg/commands"
	"github.com/goliatone/go-linkrouter/pkg/domain"
	"github.com/goliatone/go-linkrouter/pkg/intents"
	"github.com/goliatone/go-linkrouter/pkg/interfaces/logger"
	"github.com/goliatone/go-linkrouter/pkg/interfaces/store"
	"github.com/goliatone/go-linkrouter/pkg/linkrouter"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

const maxBody = 64 << 10

type server struct {
	module *linkrouter.Module
	hub    *wsnav.Hub
	logger logger.Logger
}

func newRouter(s *server) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", s.health).Methods(http.MethodGet)
	r.HandleFunc("/state", s.state).Methods(http.MethodGet)
	r.HandleFunc("/links", s.deliverLink).Methods(http.MethodPost)
	r.HandleFunc("/notifications/{interaction}", s.deliverNotification).Methods(http.MethodPost)
	r.HandleFunc("/history", s.history).Methods(http.MethodGet)
	r.HandleFunc("/history/{delivery}", s.delivery).Methods(http.MethodGet)
	if s.hub != nil {
		r.Handle("/ws", s.hub)
	}
	return r
}

func (s *server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) state(w http.ResponseWriter, _ *http.Request) {
	rt := s.module.Router()
	body := map[string]any{
		"state":    rt.State(),
		"buffered": rt.Buffered(),
	}
	if s.hub != nil {
		body["clients"] = s.hub.Clients()
	}
	if c := s.module.Container().Backend; c != nil {
		body["backend_breaker"] = c.BreakerState()
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *server) deliverLink(w http.ResponseWriter, r *http.Request) {
	var msg commands.DeliverLink
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(&msg); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	msg.Result = &commands.Receipt{}
	if err := s.module.Commands().DeliverLink.Execute(r.Context(), msg); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusAccepted, msg.Result)
}

func (s *server) deliverNotification(w http.ResponseWriter, r *http.Request) {
	var resp map[string]any
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(&resp); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	msg := commands.DeliverNotification{
		Response:    resp,
		Interaction: intents.Interaction(mux.Vars(r)["interaction"]),
		Result:      &commands.Receipt{},
	}
	if err := s.module.Commands().DeliverNotification.Execute(r.Context(), msg); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusAccepted, msg.Result)
}

func (s *server) history(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := store.ListOptions{
		Limit:  intParam(q.Get("limit"), 50),
		Offset: intParam(q.Get("offset"), 0),
	}
	var (
		res store.ListResult[domain.RouteRecord]
		err error
	)
	if kind := q.Get("kind"); kind != "" {
		if !intents.ValidKind(intents.Kind(kind)) {
			writeError(w, http.StatusBadRequest, errors.New("unknown kind"))
			return
		}
		res, err = s.module.History().ListByKind(r.Context(), kind, opts)
	} else {
		res, err = s.module.History().List(r.Context(), opts)
	}
	if err != nil {
		s.logger.Error("history list failed", logger.F("error", err))
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": res.Items, "total": res.Total})
}

func (s *server) delivery(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["delivery"])
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	records, err := s.module.History().ListByDelivery(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if len(records) == 0 {
		writeError(w, http.StatusNotFound, store.ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": records})
}

func intParam(raw string, fallback int) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
