package apiserver

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"match-go/internal/middleware"
	"match-go/internal/services"
)

// MessageHandler 封装了匹配内消息相关的 HTTP 处理器方法。
type MessageHandler struct {
	messageService services.MessageService
}

// NewMessageHandler 创建一个新的 MessageHandler 实例。
func NewMessageHandler(messageService services.MessageService) *MessageHandler {
	return &MessageHandler{messageService: messageService}
}

// SendMessageRequest 是发送消息请求的结构体。
type SendMessageRequest struct {
	Content string `json:"content"`
}

// SendMessageHandler 处理在某个匹配内发送消息的请求。
func (h *MessageHandler) SendMessageHandler(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "无法从上下文中获取用户ID", http.StatusInternalServerError)
		return
	}

	matchID, err := parsePathID(r, "matchID")
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "请求体无效", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	message, err := h.messageService.Send(r.Context(), actorID, matchID, req.Content)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyMessage):
			writeJSONError(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, services.ErrMatchNotFound):
			writeJSONError(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, services.ErrNotMatchMember):
			writeJSONError(w, err.Error(), http.StatusForbidden)
		default:
			log.Printf("SendMessageHandler: 发送消息失败 (actor: %d, match: %d): %v", actorID, matchID, err)
			writeJSONError(w, "发送消息失败", http.StatusInternalServerError)
		}
		return
	}
	writeJSONResponse(w, http.StatusCreated, message)
}

// GetHistoryHandler 处理获取某个匹配全部消息历史的请求，按发送顺序返回。
func (h *MessageHandler) GetHistoryHandler(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "无法从上下文中获取用户ID", http.StatusInternalServerError)
		return
	}

	matchID, err := parsePathID(r, "matchID")
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	messages, err := h.messageService.History(r.Context(), actorID, matchID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMatchNotFound):
			writeJSONError(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, services.ErrNotMatchMember):
			writeJSONError(w, err.Error(), http.StatusForbidden)
		default:
			log.Printf("GetHistoryHandler: 获取消息历史失败 (actor: %d, match: %d): %v", actorID, matchID, err)
			writeJSONError(w, "获取消息历史失败", http.StatusInternalServerError)
		}
		return
	}
	writeJSONResponse(w, http.StatusOK, messages)
}

// MarkReadHandler 处理将单条消息标记为已读的请求。重复标记是幂等的。
func (h *MessageHandler) MarkReadHandler(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "无法从上下文中获取用户ID", http.StatusInternalServerError)
		return
	}

	messageID, err := parsePathID(r, "messageID")
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	message, err := h.messageService.MarkRead(r.Context(), actorID, messageID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMessageNotFound):
			writeJSONError(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, services.ErrOwnMessageRead):
			writeJSONError(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, services.ErrNotMatchMember):
			writeJSONError(w, err.Error(), http.StatusForbidden)
		default:
			log.Printf("MarkReadHandler: 标记已读失败 (actor: %d, message: %d): %v", actorID, messageID, err)
			writeJSONError(w, "标记已读失败", http.StatusInternalServerError)
		}
		return
	}
	writeJSONResponse(w, http.StatusOK, message)
}
