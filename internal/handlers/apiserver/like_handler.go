package apiserver

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"match-go/internal/middleware"
	"match-go/internal/services"

	"github.com/gorilla/mux"
)

// LikeHandler 封装了点赞相关的 HTTP 处理器方法。
type LikeHandler struct {
	likeService services.LikeService
}

// NewLikeHandler 创建一个新的 LikeHandler 实例。
func NewLikeHandler(likeService services.LikeService) *LikeHandler {
	return &LikeHandler{likeService: likeService}
}

// SendLikeRequest 是发送点赞请求的结构体。
type SendLikeRequest struct {
	TargetUserID uint `json:"targetUserId"`
}

// SendLikeHandler 处理发送点赞的请求。重复点赞不是错误，返回已存在的记录。
func (h *LikeHandler) SendLikeHandler(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "无法从上下文中获取用户ID", http.StatusInternalServerError)
		return
	}

	var req SendLikeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "请求体无效", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if req.TargetUserID == 0 {
		writeJSONError(w, "targetUserId 不能为空", http.StatusBadRequest)
		return
	}

	result, err := h.likeService.SendLike(r.Context(), actorID, req.TargetUserID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSelfLike):
			writeJSONError(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, services.ErrUserNotFound):
			writeJSONError(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, services.ErrBlockedBetween):
			writeJSONError(w, err.Error(), http.StatusForbidden)
		default:
			log.Printf("SendLikeHandler: 点赞失败 (actor: %d, target: %d): %v", actorID, req.TargetUserID, err)
			writeJSONError(w, "点赞失败", http.StatusInternalServerError)
		}
		return
	}

	statusCode := http.StatusOK
	if result.Created {
		statusCode = http.StatusCreated
	}
	writeJSONResponse(w, statusCode, result)
}

// ListSentLikesHandler 处理列出当前用户发出的点赞的请求。
func (h *LikeHandler) ListSentLikesHandler(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "无法从上下文中获取用户ID", http.StatusInternalServerError)
		return
	}

	likes, err := h.likeService.ListSent(r.Context(), actorID)
	if err != nil {
		log.Printf("ListSentLikesHandler: %v", err)
		writeJSONError(w, "获取点赞列表失败", http.StatusInternalServerError)
		return
	}
	writeJSONResponse(w, http.StatusOK, likes)
}

// ListReceivedLikesHandler 处理列出当前用户收到的点赞的请求，包含发送者的基本信息。
func (h *LikeHandler) ListReceivedLikesHandler(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "无法从上下文中获取用户ID", http.StatusInternalServerError)
		return
	}

	likes, err := h.likeService.ListReceived(r.Context(), actorID)
	if err != nil {
		log.Printf("ListReceivedLikesHandler: %v", err)
		writeJSONError(w, "获取点赞列表失败", http.StatusInternalServerError)
		return
	}
	writeJSONResponse(w, http.StatusOK, likes)
}

// AcceptLikeHandler 处理接受点赞的请求，成功后双方建立匹配。
func (h *LikeHandler) AcceptLikeHandler(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "无法从上下文中获取用户ID", http.StatusInternalServerError)
		return
	}

	likeID, err := parsePathID(r, "likeID")
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.likeService.AcceptLike(r.Context(), actorID, likeID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrLikeNotFound):
			writeJSONError(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, services.ErrNotLikeRecipient):
			writeJSONError(w, err.Error(), http.StatusForbidden)
		case errors.Is(err, services.ErrBlockedBetween):
			writeJSONError(w, err.Error(), http.StatusForbidden)
		default:
			log.Printf("AcceptLikeHandler: 接受点赞失败 (actor: %d, like: %d): %v", actorID, likeID, err)
			writeJSONError(w, "接受点赞失败", http.StatusInternalServerError)
		}
		return
	}

	statusCode := http.StatusOK
	if result.Created {
		statusCode = http.StatusCreated
	}
	writeJSONResponse(w, statusCode, result)
}

// RejectLikeHandler 处理拒绝点赞的请求，删除该点赞记录。
func (h *LikeHandler) RejectLikeHandler(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "无法从上下文中获取用户ID", http.StatusInternalServerError)
		return
	}

	likeID, err := parsePathID(r, "likeID")
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.likeService.RejectLike(r.Context(), actorID, likeID); err != nil {
		switch {
		case errors.Is(err, services.ErrLikeNotFound):
			writeJSONError(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, services.ErrNotLikeRecipient):
			writeJSONError(w, err.Error(), http.StatusForbidden)
		default:
			log.Printf("RejectLikeHandler: 拒绝点赞失败 (actor: %d, like: %d): %v", actorID, likeID, err)
			writeJSONError(w, "拒绝点赞失败", http.StatusInternalServerError)
		}
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]string{"message": "已拒绝"})
}

// parsePathID 从路径参数中解析一个数字 ID。
func parsePathID(r *http.Request, name string) (uint, error) {
	vars := mux.Vars(r)
	idStr, ok := vars[name]
	if !ok {
		return 0, errors.New("请求路径中缺少 " + name)
	}
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		return 0, errors.New("无效的 " + name + " 格式")
	}
	return uint(id), nil
}
