package apiserver

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"match-go/internal/middleware"
	"match-go/internal/services"
)

// BlockHandler 封装了屏蔽相关的 HTTP 处理器方法。
type BlockHandler struct {
	blockService services.BlockService
}

// NewBlockHandler 创建一个新的 BlockHandler 实例。
func NewBlockHandler(blockService services.BlockService) *BlockHandler {
	return &BlockHandler{blockService: blockService}
}

// BlockRequest 是屏蔽用户请求的结构体。
type BlockRequest struct {
	TargetUserID uint   `json:"targetUserId"`
	Reason       string `json:"reason,omitempty"`
}

// BlockUserHandler 处理屏蔽用户的请求。屏蔽会清除双方的匹配、消息和点赞。
func (h *BlockHandler) BlockUserHandler(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "无法从上下文中获取用户ID", http.StatusInternalServerError)
		return
	}

	var req BlockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "请求体无效", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if req.TargetUserID == 0 {
		writeJSONError(w, "targetUserId 不能为空", http.StatusBadRequest)
		return
	}

	result, err := h.blockService.Block(r.Context(), actorID, req.TargetUserID, req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSelfBlock):
			writeJSONError(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, services.ErrUserNotFound):
			writeJSONError(w, err.Error(), http.StatusNotFound)
		default:
			log.Printf("BlockUserHandler: 屏蔽失败 (actor: %d, target: %d): %v", actorID, req.TargetUserID, err)
			writeJSONError(w, "屏蔽失败", http.StatusInternalServerError)
		}
		return
	}

	statusCode := http.StatusOK
	if result.Created {
		statusCode = http.StatusCreated
	}
	writeJSONResponse(w, statusCode, result)
}

// ListBlockedHandler 处理列出当前用户屏蔽记录的请求。
func (h *BlockHandler) ListBlockedHandler(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "无法从上下文中获取用户ID", http.StatusInternalServerError)
		return
	}

	blocks, err := h.blockService.ListBlocked(r.Context(), actorID)
	if err != nil {
		log.Printf("ListBlockedHandler: %v", err)
		writeJSONError(w, "获取屏蔽列表失败", http.StatusInternalServerError)
		return
	}
	writeJSONResponse(w, http.StatusOK, blocks)
}

// UnblockHandler 处理解除屏蔽的请求。解除屏蔽不会恢复之前删除的匹配或消息。
func (h *BlockHandler) UnblockHandler(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "无法从上下文中获取用户ID", http.StatusInternalServerError)
		return
	}

	blockID, err := parsePathID(r, "blockID")
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.blockService.Unblock(r.Context(), actorID, blockID); err != nil {
		switch {
		case errors.Is(err, services.ErrBlockNotFound):
			writeJSONError(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, services.ErrNotBlockOwner):
			writeJSONError(w, err.Error(), http.StatusForbidden)
		default:
			log.Printf("UnblockHandler: 解除屏蔽失败 (actor: %d, block: %d): %v", actorID, blockID, err)
			writeJSONError(w, "解除屏蔽失败", http.StatusInternalServerError)
		}
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]string{"message": "屏蔽已解除"})
}
