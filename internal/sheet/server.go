package sheet

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/brendonchen/questsync/internal/migrate"
	"github.com/brendonchen/questsync/internal/quest"
	"github.com/brendonchen/questsync/internal/remote"
)

// Server is the reference sheet backend: the HTTP equivalent of the
// spreadsheet web app, serving the read envelope on GET and the upsert-by-day
// write on POST.
type Server struct {
	store         *Store
	logger        *log.Logger
	scriptVersion string
	now           func() time.Time
}

// NewServer creates a backend over the given row store. If logger is nil a
// stderr logger is used.
func NewServer(store *Store, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(os.Stderr, "[sheet] ", log.LstdFlags)
	}
	return &Server{
		store:         store,
		logger:        logger,
		scriptVersion: migrate.CurrentVersion,
		now:           time.Now,
	}
}

// Handler returns the HTTP handler serving the backend API at "/".
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			s.handleGet(w, r)
		case http.MethodPost:
			s.handlePost(w, r)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})
	return mux
}

type getResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
	remote.Envelope
}

type postResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
	Action  string `json:"action,omitempty"`
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	today := s.now().Format("2006-01-02")

	totalDays, err := s.store.TotalDays()
	if err != nil {
		s.fail(w, http.StatusInternalServerError, err)
		return
	}

	resp := getResponse{Success: true}
	resp.TotalDays = totalDays
	resp.ScriptVersion = s.scriptVersion

	// Yesterday's row ships even when today's row exists, so a client can
	// pre-fill newly created days by inheriting custom task names.
	if prev, ok, err := s.store.PrevDay(today); err != nil {
		s.fail(w, http.StatusInternalServerError, err)
		return
	} else if ok {
		rec, err := DecodeRow(prev)
		if err != nil {
			s.fail(w, http.StatusInternalServerError, err)
			return
		}
		resp.YesterdayQuest = rec
	}

	cells, ok, err := s.store.Day(today)
	if err != nil {
		s.fail(w, http.StatusInternalServerError, err)
		return
	}
	if !ok {
		resp.Message = "No data for today"
		s.reply(w, http.StatusOK, resp)
		return
	}

	rec, err := DecodeRow(cells)
	if err != nil {
		s.fail(w, http.StatusInternalServerError, err)
		return
	}
	resp.HasData = true
	resp.QuestData = rec
	resp.LastUpdate = rec.LastUpdate
	s.reply(w, http.StatusOK, resp)
}

func (s *Server) handlePost(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Date string `json:"date"`
		quest.Record
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.failPost(w, http.StatusBadRequest, fmt.Errorf("failed to decode request body: %w", err))
		return
	}

	stamp := s.now()
	if t, err := time.ParseInLocation(StampLayout, body.Date, time.Local); err == nil {
		stamp = t
	}

	today := s.now().Format("2006-01-02")
	row, err := EncodeRow(&body.Record, today, stamp)
	if err != nil {
		s.failPost(w, http.StatusBadRequest, err)
		return
	}

	action, err := s.store.UpsertDay(today, row)
	if err != nil {
		status := http.StatusInternalServerError
		// Integrity-guard trips are client-visible schema problems, not
		// generic server failures.
		if errors.Is(err, ErrColumnMismatch) || errors.Is(err, ErrHeaderRow) {
			status = http.StatusBadRequest
		}
		s.failPost(w, status, err)
		return
	}

	s.reply(w, http.StatusOK, postResponse{
		Success: true,
		Message: "數據已儲存",
		Action:  action,
	})
}

func (s *Server) fail(w http.ResponseWriter, status int, err error) {
	s.logger.Printf("request failed: %v", err)
	s.reply(w, status, getResponse{Error: err.Error()})
}

func (s *Server) failPost(w http.ResponseWriter, status int, err error) {
	s.logger.Printf("write rejected: %v", err)
	s.reply(w, status, postResponse{Error: err.Error()})
}

func (s *Server) reply(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Printf("failed to write response: %v", err)
	}
}
