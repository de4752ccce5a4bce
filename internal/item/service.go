// Package item は記念品のCRUDと並べ替えのビジネスロジックを提供する。
package item

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hitoshi/keepsake/internal/model"
	"github.com/hitoshi/keepsake/internal/repository"
	"github.com/hitoshi/keepsake/internal/security"
	"github.com/hitoshi/keepsake/internal/storage"
)

// imageURLPrefix は画像配信エンドポイントのURLプレフィックス。
// これに続く部分がBlobStoreのオブジェクトキーになる。
const imageURLPrefix = "/api/images/"

// Service は記念品のビジネスロジックを提供する。
// 入力検証、サニタイズ、所有権チェック、削除時の画像クリーンアップを担う。
type Service struct {
	itemRepo  repository.ItemRepository
	sanitizer security.ContentSanitizerService
	blobStore storage.BlobStore
}

// NewService はServiceを生成する。
func NewService(itemRepo repository.ItemRepository, sanitizer security.ContentSanitizerService, blobStore storage.BlobStore) *Service {
	return &Service{
		itemRepo:  itemRepo,
		sanitizer: sanitizer,
		blobStore: blobStore,
	}
}

// List は指定ユーザーの記念品一覧を表示順で返す。
func (s *Service) List(ctx context.Context, userID string) ([]model.Item, error) {
	items, err := s.itemRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	return items, nil
}

// CreateInput は記念品作成の入力値。
type CreateInput struct {
	Name        string
	Date        string
	Description string
	URL         string
	ImageURL    string
}

// Create は記念品を作成する。
// nameとdateは必須。order_indexはユーザー内の最大値+1が採番される。
func (s *Service) Create(ctx context.Context, userID string, in CreateInput) (*model.Item, error) {
	name := s.sanitizer.Sanitize(in.Name)
	description := s.sanitizer.Sanitize(in.Description)

	if name == "" {
		return nil, model.NewValidationError("nameは必須です")
	}
	if in.Date == "" {
		return nil, model.NewValidationError("dateは必須です")
	}
	if err := validateFieldLengths(name, description, in.URL); err != nil {
		return nil, err
	}
	if err := validateDate(in.Date); err != nil {
		return nil, err
	}

	item := &model.Item{
		UserID:      userID,
		Name:        name,
		Date:        in.Date,
		Description: description,
		URL:         in.URL,
		ImageURL:    in.ImageURL,
	}

	if err := s.itemRepo.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to create item: %w", err)
	}

	slog.Info("item created",
		slog.Int64("item_id", item.ID),
		slog.String("user_id", userID),
	)
	return item, nil
}

// UpdateInput は記念品更新の入力値。
// nilのフィールドは更新しない（部分更新）。
type UpdateInput struct {
	Name        *string
	Date        *string
	Description *string
	URL         *string
	ImageURL    *string
	OrderIndex  *int
}

// Update は指定ユーザーが所有する記念品を部分更新する。
// 所有していない、または存在しない記念品の場合はITEM_NOT_FOUNDを返す。
func (s *Service) Update(ctx context.Context, userID string, itemID int64, in UpdateInput) (*model.Item, error) {
	item, err := s.itemRepo.FindByID(ctx, itemID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find item: %w", err)
	}
	if item == nil {
		return nil, model.NewItemNotFoundError(itemID)
	}

	if in.Name != nil {
		name := s.sanitizer.Sanitize(*in.Name)
		if name == "" {
			return nil, model.NewValidationError("nameは必須です")
		}
		item.Name = name
	}
	if in.Date != nil {
		if err := validateDate(*in.Date); err != nil {
			return nil, err
		}
		item.Date = *in.Date
	}
	if in.Description != nil {
		item.Description = s.sanitizer.Sanitize(*in.Description)
	}
	if in.URL != nil {
		item.URL = *in.URL
	}
	if in.ImageURL != nil {
		item.ImageURL = *in.ImageURL
	}
	if in.OrderIndex != nil {
		item.OrderIndex = *in.OrderIndex
	}

	if err := validateFieldLengths(item.Name, item.Description, item.URL); err != nil {
		return nil, err
	}

	if err := s.itemRepo.Update(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to update item: %w", err)
	}

	return item, nil
}

// Delete は指定ユーザーが所有する記念品を削除する。
// 記念品に画像が紐付いている場合はBlobStoreからも削除する。
// 画像削除の失敗は記念品の削除を妨げない。
func (s *Service) Delete(ctx context.Context, userID string, itemID int64) error {
	item, err := s.itemRepo.FindByID(ctx, itemID, userID)
	if err != nil {
		return fmt.Errorf("failed to find item: %w", err)
	}
	if item == nil {
		return model.NewItemNotFoundError(itemID)
	}

	if key, ok := imageKeyFromURL(item.ImageURL); ok {
		if err := s.blobStore.Delete(ctx, key); err != nil {
			slog.Warn("failed to delete item image",
				slog.Int64("item_id", itemID),
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
		}
	}

	if err := s.itemRepo.DeleteByID(ctx, itemID, userID); err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}

	slog.Info("item deleted",
		slog.Int64("item_id", itemID),
		slog.String("user_id", userID),
	)
	return nil
}

// Reorder はitemIDsの並び順で記念品のorder_indexを振り直す。
// 指定ユーザーが所有する記念品のみが対象となる。
func (s *Service) Reorder(ctx context.Context, userID string, itemIDs []int64) error {
	if itemIDs == nil {
		return model.NewValidationError("itemIdsは配列で指定してください")
	}

	if err := s.itemRepo.Reorder(ctx, userID, itemIDs); err != nil {
		return fmt.Errorf("failed to reorder items: %w", err)
	}
	return nil
}

// validateFieldLengths は各フィールドの最大文字数を検証する。
func validateFieldLengths(name, description, url string) error {
	if len([]rune(name)) > model.ItemNameMaxLen {
		return model.NewValidationError(fmt.Sprintf("nameは%d文字以内で指定してください", model.ItemNameMaxLen))
	}
	if len([]rune(description)) > model.ItemDescriptionMaxLen {
		return model.NewValidationError(fmt.Sprintf("descriptionは%d文字以内で指定してください", model.ItemDescriptionMaxLen))
	}
	if len([]rune(url)) > model.ItemURLMaxLen {
		return model.NewValidationError(fmt.Sprintf("urlは%d文字以内で指定してください", model.ItemURLMaxLen))
	}
	return nil
}

// validateDate は日付がYYYY-MM-DD形式であることを検証する。
func validateDate(date string) error {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return model.NewValidationError("dateはYYYY-MM-DD形式で指定してください")
	}
	return nil
}

// imageKeyFromURL は画像URLからBlobStoreのオブジェクトキーを取り出す。
// 自前の画像配信エンドポイント以外のURLは対象外。
func imageKeyFromURL(imageURL string) (string, bool) {
	if !strings.HasPrefix(imageURL, imageURLPrefix) {
		return "", false
	}
	key := strings.TrimPrefix(imageURL, imageURLPrefix)
	return key, key != ""
}
