package dashboard

import (
	"encoding/json"
	"log"
	"time"

	"github.com/brendonchen/questsync/internal/reconcile"
)

// Handler bridges reconcile events onto the WebSocket feed. It implements
// reconcile.Events; every callback formats a message and queues it without
// blocking the sync path.
type Handler struct {
	server *Server
	logger *log.Logger
}

// NewHandler creates an event handler connected to a dashboard server.
func NewHandler(server *Server, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{server: server, logger: logger}
}

// SyncAppliedData describes a completed reconcile pass.
type SyncAppliedData struct {
	RemoteWon bool `json:"remoteWon"`
	TotalDays int  `json:"totalDays"`
}

// OutdatedBackendData carries the version advisory details.
type OutdatedBackendData struct {
	Got      string `json:"got"`
	Required string `json:"required"`
}

// OnSyncApplied implements reconcile.Events.
func (h *Handler) OnSyncApplied(remoteWon bool, totalDays int) {
	h.send(MessageTypeSyncApplied, SyncAppliedData{RemoteWon: remoteWon, TotalDays: totalDays})
}

// OnNameConflict implements reconcile.Events.
func (h *Handler) OnNameConflict(conflict reconcile.NameConflict) {
	h.logger.Printf("name conflict: local %q vs cloud %q", conflict.Local, conflict.Cloud)
	h.send(MessageTypeNameConflict, conflict)
}

// OnOutdatedBackend implements reconcile.Events.
func (h *Handler) OnOutdatedBackend(got, required string) {
	h.send(MessageTypeOutdatedBackend, OutdatedBackendData{Got: got, Required: required})
}

// OnRollover implements reconcile.Events.
func (h *Handler) OnRollover(now time.Time) {
	h.send(MessageTypeRollover, map[string]string{"date": now.Format("2006-01-02")})
}

func (h *Handler) send(typ MessageType, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		h.logger.Printf("failed to marshal %s data: %v", typ, err)
		return
	}
	h.server.Broadcast(Message{
		Type:      typ,
		Timestamp: time.Now(),
		Data:      payload,
	})
}
