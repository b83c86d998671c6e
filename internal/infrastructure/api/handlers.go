package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"store-order-hub/internal/application"
	"store-order-hub/internal/domain"
	"store-order-hub/internal/infrastructure/pubsub"

	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 1 << 20

func (s *Server) handleCreateStore(w http.ResponseWriter, r *http.Request) {
	ownerID := domain.GetOwnerIDFromContext(r.Context())

	var input application.CreateStoreInput
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := s.stores.CreateStore(r.Context(), ownerID, input)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (s *Server) handleListStores(w http.ResponseWriter, r *http.Request) {
	stores, err := s.stores.ListStores(r.Context(), domain.GetOwnerIDFromContext(r.Context()))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, stores)
}

func (s *Server) handleSyncStore(w http.ResponseWriter, r *http.Request) {
	ownerID := domain.GetOwnerIDFromContext(r.Context())
	result, err := s.syncs.SyncAndMerge(r.Context(), ownerID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleSyncAll(w http.ResponseWriter, r *http.Request) {
	result, err := s.syncs.SyncAll(r.Context(), domain.GetOwnerIDFromContext(r.Context()))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleTestConnection(w http.ResponseWriter, r *http.Request) {
	ownerID := domain.GetOwnerIDFromContext(r.Context())
	result, err := s.stores.TestConnection(r.Context(), ownerID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	orders, err := s.syncs.Feed(r.Context(), domain.GetOwnerIDFromContext(r.Context()))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"totalOrders": len(orders),
		"orders":      orders,
	})
}

func (s *Server) handleClearFeed(w http.ResponseWriter, r *http.Request) {
	if err := s.syncs.ClearFeed(r.Context(), domain.GetOwnerIDFromContext(r.Context())); err != nil {
		writeError(w, s.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.syncs.Stats(r.Context(), domain.GetOwnerIDFromContext(r.Context()), time.Now())
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// handleEvents streams the owner's sync events as server-sent events
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, s.logger, errors.New("streaming unsupported"))
		return
	}

	ownerID := domain.GetOwnerIDFromContext(r.Context())
	sub := s.events.Subscribe(r.Context(), &pubsub.SyncEventFilter{OwnerID: ownerID, StoreID: r.URL.Query().Get("storeId")})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	keepAlive := time.NewTicker(25 * time.Second)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepAlive.C:
			if _, err := w.Write([]byte(": keep-alive\n\n")); err != nil {
				return
			}
			flusher.Flush()
		case event, open := <-sub.Events:
			if !open {
				return
			}
			payload, err := json.Marshal(event)
			if err != nil {
				s.logger.Error().Err(err).Msg("Failed to encode sync event")
				continue
			}
			if _, err := w.Write([]byte("event: sync\ndata: " + string(payload) + "\n\n")); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
