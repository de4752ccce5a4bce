package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/keepsake/internal/item"
	"github.com/hitoshi/keepsake/internal/middleware"
	"github.com/hitoshi/keepsake/internal/model"
)

// ItemServiceInterface は記念品ハンドラーが必要とするサービスインターフェース。
type ItemServiceInterface interface {
	List(ctx context.Context, userID string) ([]model.Item, error)
	Create(ctx context.Context, userID string, in item.CreateInput) (*model.Item, error)
	Update(ctx context.Context, userID string, itemID int64, in item.UpdateInput) (*model.Item, error)
	Delete(ctx context.Context, userID string, itemID int64) error
	Reorder(ctx context.Context, userID string, itemIDs []int64) error
}

// ItemHandler は記念品管理のHTTPハンドラー。
type ItemHandler struct {
	service ItemServiceInterface
}

// NewItemHandler はItemHandlerを生成する。
func NewItemHandler(service ItemServiceInterface) *ItemHandler {
	return &ItemHandler{service: service}
}

// --- リクエスト・レスポンス型 ---

// itemResponse は記念品のJSONレスポンス。
type itemResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Date        string    `json:"date"`
	Description string    `json:"description,omitempty"`
	URL         string    `json:"url,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	OrderIndex  int       `json:"order_index"`
	CreatedAt   time.Time `json:"created_at"`
}

func toItemResponse(m *model.Item) itemResponse {
	return itemResponse{
		ID:          m.ID,
		Name:        m.Name,
		Date:        m.Date,
		Description: m.Description,
		URL:         m.URL,
		ImageURL:    m.ImageURL,
		OrderIndex:  m.OrderIndex,
		CreatedAt:   m.CreatedAt,
	}
}

// createItemRequest は記念品作成リクエストのボディ。
type createItemRequest struct {
	Name        string `json:"name"`
	Date        string `json:"date"`
	Description string `json:"description"`
	URL         string `json:"url"`
	ImageURL    string `json:"image_url"`
}

// updateItemRequest は記念品更新リクエストのボディ。
// 指定されなかったフィールドは変更しない。
type updateItemRequest struct {
	Name        *string `json:"name,omitempty"`
	Date        *string `json:"date,omitempty"`
	Description *string `json:"description,omitempty"`
	URL         *string `json:"url,omitempty"`
	ImageURL    *string `json:"image_url,omitempty"`
	OrderIndex  *int    `json:"order_index,omitempty"`
}

// reorderRequest は並べ替えリクエストのボディ。
type reorderRequest struct {
	ItemIDs []int64 `json:"itemIds"`
}

// --- ハンドラー ---

// ListItems は記念品一覧を表示順で返す。
// GET /api/items
func (h *ItemHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())

	items, err := h.service.List(r.Context(), user.ID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]itemResponse, 0, len(items))
	for i := range items {
		resp = append(resp, toItemResponse(&items[i]))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// CreateItem は記念品を作成する。
// POST /api/items
func (h *ItemHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())

	var req createItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("リクエストボディが不正です"))
		return
	}

	created, err := h.service.Create(r.Context(), user.ID, item.CreateInput{
		Name:        req.Name,
		Date:        req.Date,
		Description: req.Description,
		URL:         req.URL,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toItemResponse(created))
}

// UpdateItem は記念品を部分更新する。
// PATCH /api/items/{id}
func (h *ItemHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())

	itemID, err := parseItemID(r)
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("記念品IDが不正です"))
		return
	}

	var req updateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("リクエストボディが不正です"))
		return
	}

	updated, err := h.service.Update(r.Context(), user.ID, itemID, item.UpdateInput{
		Name:        req.Name,
		Date:        req.Date,
		Description: req.Description,
		URL:         req.URL,
		ImageURL:    req.ImageURL,
		OrderIndex:  req.OrderIndex,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toItemResponse(updated))
}

// DeleteItem は記念品を削除する。
// DELETE /api/items/{id}
func (h *ItemHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())

	itemID, err := parseItemID(r)
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("記念品IDが不正です"))
		return
	}

	if err := h.service.Delete(r.Context(), user.ID, itemID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"success": true})
}

// ReorderItems は記念品の表示順を振り直す。
// POST /api/items/reorder
func (h *ItemHandler) ReorderItems(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())

	var req reorderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("リクエストボディが不正です"))
		return
	}

	if err := h.service.Reorder(r.Context(), user.ID, req.ItemIDs); err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"success": true})
}

// parseItemID はURLパスパラメータから記念品IDを取り出す。
func parseItemID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
