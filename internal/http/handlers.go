package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"trialfunnel/internal/store"
	"trialfunnel/pkg"
)

// Server bundles together the dependencies required by HTTP handlers.  It
// implements http.Handler so it can be passed to http.ListenAndServe.
type Server struct {
	Sessions       *store.Registry
	Log            *zap.Logger
	AllowedOrigins []string
}

// NewServer constructs a Server.  allowedOrigins is a comma-separated list
// of origins permitted to call the API from a browser.
func NewServer(sessions *store.Registry, log *zap.Logger, allowedOrigins string) *Server {
	var origins []string
	for _, o := range strings.Split(allowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return &Server{
		Sessions:       sessions,
		Log:            log,
		AllowedOrigins: origins,
	}
}

// ServeHTTP dispatches incoming requests based on the URL path.  Minimal
// routing logic is implemented here to keep dependencies light.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.applyCORS(w, r)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	path := r.URL.Path
	switch {
	// Create a new session: POST /api/sessions
	case path == "/api/sessions" && r.Method == http.MethodPost:
		s.handleCreateSession(w, r)
		return
	// Post a message: POST /api/sessions/{id}/messages
	case strings.HasPrefix(path, "/api/sessions/") && strings.HasSuffix(path, "/messages") && r.Method == http.MethodPost:
		if id, ok := sessionID(path); ok {
			s.handleMessage(w, r, id)
			return
		}
	// Remaining trials: GET /api/sessions/{id}/trials
	case strings.HasPrefix(path, "/api/sessions/") && strings.HasSuffix(path, "/trials") && r.Method == http.MethodGet:
		if id, ok := sessionID(path); ok {
			s.handleTrials(w, r, id)
			return
		}
	// Reset: POST /api/sessions/{id}/reset
	case strings.HasPrefix(path, "/api/sessions/") && strings.HasSuffix(path, "/reset") && r.Method == http.MethodPost:
		if id, ok := sessionID(path); ok {
			s.handleReset(w, r, id)
			return
		}
	}
	http.NotFound(w, r)
}

// sessionID extracts the id segment from /api/sessions/{id}/...
func sessionID(path string) (string, bool) {
	parts := strings.Split(path, "/")
	if len(parts) < 5 || parts[3] == "" {
		return "", false
	}
	return parts[3], true
}

func (s *Server) applyCORS(w http.ResponseWriter, r *http.Request) {
	origin := r.Header.Get("Origin")
	for _, allowed := range s.AllowedOrigins {
		if origin == allowed {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			break
		}
	}
}

// handleCreateSession registers a fresh funnel session and returns its id.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	id, _ := s.Sessions.Create()
	s.Log.Info("session created", zap.String("session", id))
	writeJSON(w, http.StatusCreated, pkg.SessionResponse{SessionID: id})
}

// handleMessage runs one agent turn for a patient message.
func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request, id string) {
	agent, ok := s.Sessions.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown session")
		return
	}
	var req pkg.MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "empty message")
		return
	}
	reply, err := agent.Run(r.Context(), req.Message)
	if err != nil {
		// Session state is unchanged on error; the client may retry the turn.
		s.Log.Error("agent turn failed", zap.String("session", id), zap.Error(err))
		writeError(w, http.StatusBadGateway, "could not process message, please try again")
		return
	}
	writeJSON(w, http.StatusOK, pkg.MessageResponse{Message: reply})
}

// handleTrials returns the trial ids still matching the session.
func (s *Server) handleTrials(w http.ResponseWriter, r *http.Request, id string) {
	agent, ok := s.Sessions.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown session")
		return
	}
	trials := agent.Session().Candidates()
	if trials == nil {
		trials = []string{}
	}
	writeJSON(w, http.StatusOK, pkg.TrialsResponse{Trials: trials})
}

// handleReset replaces the session with a fresh one under the same id.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request, id string) {
	if _, ok := s.Sessions.Reset(id); !ok {
		writeError(w, http.StatusNotFound, "unknown session")
		return
	}
	s.Log.Info("session reset", zap.String("session", id))
	writeJSON(w, http.StatusOK, pkg.SessionResponse{SessionID: id})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
