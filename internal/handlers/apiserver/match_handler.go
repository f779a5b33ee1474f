package apiserver

import (
	"errors"
	"log"
	"net/http"

	"match-go/internal/middleware"
	"match-go/internal/services"
)

// MatchHandler 封装了匹配相关的 HTTP 处理器方法。
type MatchHandler struct {
	matchService services.MatchService
}

// NewMatchHandler 创建一个新的 MatchHandler 实例。
func NewMatchHandler(matchService services.MatchService) *MatchHandler {
	return &MatchHandler{matchService: matchService}
}

// ListMatchesHandler 处理列出当前用户所有匹配的请求。
func (h *MatchHandler) ListMatchesHandler(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "无法从上下文中获取用户ID", http.StatusInternalServerError)
		return
	}

	matches, err := h.matchService.ListForUser(r.Context(), actorID)
	if err != nil {
		log.Printf("ListMatchesHandler: %v", err)
		writeJSONError(w, "获取匹配列表失败", http.StatusInternalServerError)
		return
	}
	writeJSONResponse(w, http.StatusOK, matches)
}

// GetMatchHandler 处理获取单个匹配的请求，仅限匹配成员。
func (h *MatchHandler) GetMatchHandler(w http.ResponseWriter, r *http.Request) {
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

	match, err := h.matchService.GetMatch(r.Context(), actorID, matchID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMatchNotFound):
			writeJSONError(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, services.ErrNotMatchMember):
			writeJSONError(w, err.Error(), http.StatusForbidden)
		default:
			log.Printf("GetMatchHandler: 获取匹配失败 (actor: %d, match: %d): %v", actorID, matchID, err)
			writeJSONError(w, "获取匹配失败", http.StatusInternalServerError)
		}
		return
	}
	writeJSONResponse(w, http.StatusOK, match)
}

// UnmatchHandler 处理解除匹配的请求，同时删除该匹配的全部消息和双向点赞。
func (h *MatchHandler) UnmatchHandler(w http.ResponseWriter, r *http.Request) {
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

	if err := h.matchService.Unmatch(r.Context(), actorID, matchID); err != nil {
		switch {
		case errors.Is(err, services.ErrMatchNotFound):
			writeJSONError(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, services.ErrNotMatchMember):
			writeJSONError(w, err.Error(), http.StatusForbidden)
		default:
			log.Printf("UnmatchHandler: 解除匹配失败 (actor: %d, match: %d): %v", actorID, matchID, err)
			writeJSONError(w, "解除匹配失败", http.StatusInternalServerError)
		}
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]string{"message": "匹配已解除"})
}
