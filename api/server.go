package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/wricardo/mcp-training/pongarena/game/config"
	"github.com/wricardo/mcp-training/pongarena/game/gameerr"
	"github.com/wricardo/mcp-training/pongarena/game/match"
	"github.com/wricardo/mcp-training/pongarena/game/room"
	"github.com/wricardo/mcp-training/pongarena/game/service"
	"github.com/wricardo/mcp-training/pongarena/transport/websocket"
)

// Server represents the REST API server
type Server struct {
	service service.ArenaService
	hub     *websocket.Hub
	router  *mux.Router
}

// NewServer creates a new API server. A nil hub disables /ws.
func NewServer(arena service.ArenaService, hub *websocket.Hub) *Server {
	s := &Server{
		service: arena,
		hub:     hub,
		router:  mux.NewRouter(),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("", s.handleHealth).Methods("GET")

	// Presence
	api.HandleFunc("/presence", s.handlePresence).Methods("GET")

	// Rooms
	api.HandleFunc("/rooms", s.handleListRooms).Methods("GET")
	api.HandleFunc("/rooms/{id}", s.handleGetRoom).Methods("GET")

	// Social graph
	api.HandleFunc("/friends/{id}", s.handleFriends).Methods("GET")

	// Match history
	api.HandleFunc("/matches", s.handleListMatches).Methods("GET")
	api.HandleFunc("/matches/{id}", s.handleGetMatch).Methods("GET")

	// Configuration
	api.HandleFunc("/configs", s.handleListConfigs).Methods("GET")
	api.HandleFunc("/configs/{name}", s.handleGetConfig).Methods("GET")

	// WebSocket
	if s.hub != nil {
		s.router.HandleFunc("/ws", s.hub.ServeWS)
	}
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// statusFor maps lookup failures to 404 and validation failures to 400
func statusFor(err error) int {
	switch {
	case errors.Is(err, room.ErrRoomNotFound),
		errors.Is(err, match.ErrResultNotFound),
		errors.Is(err, config.ErrConfigNotFound),
		errors.Is(err, gameerr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, gameerr.ErrValidation), errors.Is(err, match.ErrInvalidResult):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.service.Health(r.Context()))
}

// Presence Handlers

func (s *Server) handlePresence(w http.ResponseWriter, r *http.Request) {
	online := s.service.Online(r.Context())

	if status := r.URL.Query().Get("status"); status != "" {
		filtered := online[:0]
		for _, p := range online {
			if string(p.Status) == status {
				filtered = append(filtered, p)
			}
		}
		online = filtered
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":  len(online),
		"online": online,
	})
}

// Room Handlers

func (s *Server) handleListRooms(w http.ResponseWriter, r *http.Request) {
	rooms := s.service.ListRooms(r.Context())
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(rooms),
		"rooms": rooms,
	})
}

func (s *Server) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["id"]

	snapshot, err := s.service.GetRoom(r.Context(), roomID)
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, snapshot)
}

// Social Handlers

func (s *Server) handleFriends(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	edges, err := s.service.FriendsOf(r.Context(), id)
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"id":    id,
		"count": len(edges),
		"edges": edges,
	})
}

// Match Handlers

func (s *Server) handleListMatches(w http.ResponseWriter, r *http.Request) {
	results, err := s.service.ListMatches(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	total := len(results)

	query := r.URL.Query()
	if player := query.Get("player"); player != "" {
		filtered := make([]match.Result, 0, len(results))
		for _, res := range results {
			if res.PlayerA == player || res.PlayerB == player {
				filtered = append(filtered, res)
			}
		}
		results = filtered
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l < len(results) {
			results = results[:l]
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":   len(results),
		"total":   total,
		"matches": results,
	})
}

func (s *Server) handleGetMatch(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	result, err := s.service.GetMatch(r.Context(), id)
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// Configuration Handlers

func (s *Server) handleListConfigs(w http.ResponseWriter, r *http.Request) {
	configs, err := s.service.ListConfigs(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, configs)
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	configName := mux.Vars(r)["name"]

	// Remove extension if present
	for _, ext := range []string{".json", ".yaml", ".yml"} {
		configName = strings.TrimSuffix(configName, ext)
	}

	cfg, err := s.service.LoadConfig(r.Context(), configName)
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, cfg)
}
