package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/duocall/duo/internal/adapter/driven/gateway/ws"
	"github.com/duocall/duo/internal/core/domain"
	"github.com/duocall/duo/internal/core/port"
	"github.com/duocall/duo/internal/core/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

// Pinger reports whether the shared state store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	Dir     port.RoomDirectory
	Signals port.SignalingStore
	Bus     port.MessageBus
	Hub     *ws.Hub
	Store   Pinger
	Opts    service.Options

	StaticDir string
}

func NewHandler(dir port.RoomDirectory, signals port.SignalingStore, bus port.MessageBus, hub *ws.Hub, store Pinger, opts service.Options, staticDir string) *Handler {
	return &Handler{
		Dir:       dir,
		Signals:   signals,
		Bus:       bus,
		Hub:       hub,
		Store:     store,
		Opts:      opts,
		StaticDir: staticDir,
	}
}

func (h *Handler) NewRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	fs := http.FileServer(http.Dir(h.StaticDir))
	r.Handle("/*", fs)

	r.Get("/ws", h.ServeWS)
	r.Get("/healthz", h.Healthz)
	r.Get("/rooms", h.ListRooms)
	r.Get("/rooms/{roomID}", h.GetRoom)

	return r
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Ping(r.Context()); err != nil {
		http.Error(w, "store unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// ListRooms is a diagnostics view over every room in the active index.
func (h *Handler) ListRooms(w http.ResponseWriter, r *http.Request) {
	snapshots, err := h.Dir.ExtractAllActiveRoomsData(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to extract active rooms")
		http.Error(w, "store unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, snapshotDTOs(snapshots))
}

func (h *Handler) GetRoom(w http.ResponseWriter, r *http.Request) {
	roomID := domain.RoomID(chi.URLParam(r, "roomID"))
	snap, err := h.Dir.ExtractRoomData(r.Context(), roomID)
	if err != nil {
		log.Error().Err(err).Str("room_id", roomID.String()).Msg("Failed to extract room")
		http.Error(w, "store unavailable", http.StatusServiceUnavailable)
		return
	}
	if !snap.Exists {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}
	writeJSON(w, toSnapshotDTO(snap))
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// Diagnostics wire shapes: booleans go out in their stored string form,
// matching what the store actually holds.
type roomDataDTO struct {
	RoomName  string `json:"roomName"`
	RoomSize  string `json:"roomSize"`
	IsActive  string `json:"isActive"`
	CreatedAt string `json:"createdAt"`
}

type userDTO struct {
	UserID         string `json:"userId"`
	SocketID       string `json:"socketId"`
	IsAudioEnabled string `json:"isAudioEnabled"`
	IsVideoEnabled string `json:"isVideoEnabled"`
	Avatar         string `json:"avatar"`
	JoinedAt       string `json:"joinedAt"`
}

type snapshotDTO struct {
	Exists   bool         `json:"exists"`
	IsActive bool         `json:"isActive"`
	RoomID   string       `json:"roomId"`
	RoomData *roomDataDTO `json:"roomData"`
	Users    []userDTO    `json:"users"`
	Message  string       `json:"message,omitempty"`
}

func toSnapshotDTO(snap domain.RoomSnapshot) snapshotDTO {
	dto := snapshotDTO{
		Exists:   snap.Exists,
		IsActive: snap.IsActive,
		RoomID:   snap.RoomID.String(),
		Users:    make([]userDTO, 0, len(snap.Users)),
		Message:  snap.Message,
	}
	if snap.RoomData != nil {
		dto.RoomData = &roomDataDTO{
			RoomName:  snap.RoomData.RoomName,
			RoomSize:  strconv.Itoa(snap.RoomData.RoomSize),
			IsActive:  strconv.FormatBool(snap.RoomData.IsActive),
			CreatedAt: snap.RoomData.CreatedAt.Format(time.RFC3339),
		}
	}
	for _, u := range snap.Users {
		dto.Users = append(dto.Users, userDTO{
			UserID:         u.UserID.String(),
			SocketID:       u.SocketID.String(),
			IsAudioEnabled: strconv.FormatBool(u.IsAudioEnabled),
			IsVideoEnabled: strconv.FormatBool(u.IsVideoEnabled),
			Avatar:         u.Avatar,
			JoinedAt:       u.JoinedAt.Format(time.RFC3339),
		})
	}
	return dto
}

func snapshotDTOs(snaps []domain.RoomSnapshot) []snapshotDTO {
	out := make([]snapshotDTO, len(snaps))
	for i, s := range snaps {
		out[i] = toSnapshotDTO(s)
	}
	return out
}
