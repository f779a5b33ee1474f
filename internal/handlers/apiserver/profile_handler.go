package apiserver

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"match-go/internal/middleware"
	"match-go/internal/models"
	"match-go/internal/services"
)

// ProfileHandler 封装了交友资料相关的 HTTP 处理器方法。
type ProfileHandler struct {
	profileService services.ProfileService
}

// NewProfileHandler 创建一个新的 ProfileHandler 实例。
func NewProfileHandler(profileService services.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

// GetMyProfileHandler 处理获取当前用户交友资料的请求，首次访问时自动创建。
func (h *ProfileHandler) GetMyProfileHandler(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "无法从上下文中获取用户ID", http.StatusInternalServerError)
		return
	}

	profile, err := h.profileService.GetOrCreateMyProfile(r.Context(), actorID)
	if err != nil {
		log.Printf("GetMyProfileHandler: %v", err)
		writeJSONError(w, "获取交友资料失败", http.StatusInternalServerError)
		return
	}
	writeJSONResponse(w, http.StatusOK, profile)
}

// UpdateProfileRequest 是更新交友资料的请求结构体。未出现的字段保持不变。
type UpdateProfileRequest struct {
	DisplayName *string        `json:"displayName,omitempty"`
	Bio         *string        `json:"bio,omitempty"`
	Age         *int           `json:"age,omitempty"`
	Gender      *models.Gender `json:"gender,omitempty"`
	Location    *string        `json:"location,omitempty"`
	Interests   *string        `json:"interests,omitempty"`
}

// UpdateMyProfileHandler 处理更新当前用户交友资料的请求。
func (h *ProfileHandler) UpdateMyProfileHandler(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "无法从上下文中获取用户ID", http.StatusInternalServerError)
		return
	}

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "请求体无效", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if req.Age != nil && (*req.Age < 18 || *req.Age > 120) {
		writeJSONError(w, "年龄必须在 18 到 120 之间", http.StatusBadRequest)
		return
	}

	profile, err := h.profileService.UpdateMyProfile(r.Context(), actorID, services.ProfileUpdate{
		DisplayName: req.DisplayName,
		Bio:         req.Bio,
		Age:         req.Age,
		Gender:      req.Gender,
		Location:    req.Location,
		Interests:   req.Interests,
	})
	if err != nil {
		log.Printf("UpdateMyProfileHandler: 更新交友资料失败 (actor: %d): %v", actorID, err)
		writeJSONError(w, "更新交友资料失败", http.StatusInternalServerError)
		return
	}
	writeJSONResponse(w, http.StatusOK, profile)
}

// GetProfileHandler 处理获取指定用户公开交友资料的请求。
func (h *ProfileHandler) GetProfileHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := parsePathID(r, "userID")
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	profile, err := h.profileService.GetProfile(r.Context(), userID)
	if err != nil {
		if errors.Is(err, services.ErrProfileNotFound) {
			writeJSONError(w, err.Error(), http.StatusNotFound)
			return
		}
		log.Printf("GetProfileHandler: 获取交友资料失败 (user: %d): %v", userID, err)
		writeJSONError(w, "获取交友资料失败", http.StatusInternalServerError)
		return
	}
	writeJSONResponse(w, http.StatusOK, profile)
}

// DiscoverHandler 处理获取推荐候选人的请求，排除自己、已点赞和有屏蔽关系的用户。
func (h *ProfileHandler) DiscoverHandler(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "无法从上下文中获取用户ID", http.StatusInternalServerError)
		return
	}

	profiles, err := h.profileService.Discover(r.Context(), actorID)
	if err != nil {
		log.Printf("DiscoverHandler: %v", err)
		writeJSONError(w, "获取推荐列表失败", http.StatusInternalServerError)
		return
	}
	writeJSONResponse(w, http.StatusOK, profiles)
}
