package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/shyndman/whatsapp-mcp/internal/store"
)

type partitionRequest struct {
	After         *time.Time `json:"after,omitempty"`
	Before        *time.Time `json:"before,omitempty"`
	Sender        string     `json:"sender,omitempty"`
	ChatJID       string     `json:"chat_jid,omitempty"`
	Query         string     `json:"query,omitempty"`
	PartitionSize int        `json:"partition_size"`
}

func (s *Server) handlePlanPartitions(w http.ResponseWriter, r *http.Request) {
	var req partitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	plan, err := s.planner.Plan(store.MessageFilter{
		After:   req.After,
		Before:  req.Before,
		Sender:  req.Sender,
		ChatJID: req.ChatJID,
		Query:   req.Query,
	}, req.PartitionSize)
	if err != nil {
		s.writeOperationError(w, r, err)
		return
	}
	writeJSON(w, plan)
}

type sendRequest struct {
	Recipient string `json:"recipient"`
	Message   string `json:"message,omitempty"`
	MediaPath string `json:"media_path,omitempty"`
}

func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	ok, msg := s.bridge.Send(r.Context(), req.Recipient, req.Message, req.MediaPath)
	writeJSON(w, map[string]any{"success": ok, "message": msg})
}

type downloadRequest struct {
	MessageID string `json:"message_id"`
	ChatJID   string `json:"chat_jid"`
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	var req downloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.MessageID == "" || req.ChatJID == "" {
		writeError(w, http.StatusBadRequest, "message_id and chat_jid are required")
		return
	}

	path, err := s.bridge.DownloadMedia(r.Context(), req.MessageID, req.ChatJID)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, map[string]any{"success": true, "path": path})
}
