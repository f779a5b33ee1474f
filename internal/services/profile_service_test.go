package services

import (
	"context"
	"errors"
	"testing"

	"gorm.io/gorm"

	"match-go/internal/models"
	"match-go/internal/storage"
)

func newProfileService(db *gorm.DB) ProfileService {
	return NewProfileService(
		storage.NewGormUserRepository(db),
		storage.NewGormProfileRepository(db),
		storage.NewGormLikeRepository(db),
		storage.NewGormBlockRepository(db))
}

func TestGetOrCreateMyProfile(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice")
	svc := newProfileService(db)

	profile, err := svc.GetOrCreateMyProfile(context.Background(), alice.ID)
	if err != nil {
		t.Fatalf("GetOrCreateMyProfile 失败: %v", err)
	}
	if profile.UserID != alice.ID {
		t.Errorf("资料归属错误: %d", profile.UserID)
	}
	if profile.DisplayName != "alice" {
		t.Errorf("初始显示名应为用户名: %q", profile.DisplayName)
	}

	again, err := svc.GetOrCreateMyProfile(context.Background(), alice.ID)
	if err != nil {
		t.Fatalf("第二次 GetOrCreateMyProfile 失败: %v", err)
	}
	if again.ID != profile.ID {
		t.Errorf("第二次访问应返回同一份资料: got %d, want %d", again.ID, profile.ID)
	}
	if got := countRows(t, db, &models.Profile{}); got != 1 {
		t.Errorf("资料应当只有 1 条, 发现 %d 条", got)
	}

	if _, err := svc.GetOrCreateMyProfile(context.Background(), 9999); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("不存在的用户应返回 ErrUserNotFound, got %v", err)
	}
}

func TestUpdateMyProfile(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice")
	svc := newProfileService(db)

	bio := "hiker and baker"
	age := 28
	gender := models.GenderFemale
	updated, err := svc.UpdateMyProfile(context.Background(), alice.ID, ProfileUpdate{
		Bio:    &bio,
		Age:    &age,
		Gender: &gender,
	})
	if err != nil {
		t.Fatalf("UpdateMyProfile 失败: %v", err)
	}
	if updated.Bio != bio || updated.Age == nil || *updated.Age != age || updated.Gender != gender {
		t.Errorf("资料更新结果错误: %+v", updated)
	}
	// Untouched fields keep their values.
	if updated.DisplayName != "alice" {
		t.Errorf("未更新的字段被改动: %q", updated.DisplayName)
	}

	name := "Alice W"
	second, err := svc.UpdateMyProfile(context.Background(), alice.ID, ProfileUpdate{DisplayName: &name})
	if err != nil {
		t.Fatalf("UpdateMyProfile 失败: %v", err)
	}
	if second.DisplayName != name {
		t.Errorf("显示名未更新: %q", second.DisplayName)
	}
	if second.Bio != bio {
		t.Errorf("部分更新不应清空其他字段: %q", second.Bio)
	}
}

func TestGetProfileNotFound(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice")
	svc := newProfileService(db)

	if _, err := svc.GetProfile(context.Background(), alice.ID); !errors.Is(err, ErrProfileNotFound) {
		t.Errorf("未创建资料时应返回 ErrProfileNotFound, got %v", err)
	}

	if _, err := svc.GetOrCreateMyProfile(context.Background(), alice.ID); err != nil {
		t.Fatalf("GetOrCreateMyProfile 失败: %v", err)
	}
	profile, err := svc.GetProfile(context.Background(), alice.ID)
	if err != nil {
		t.Fatalf("GetProfile 失败: %v", err)
	}
	if profile.UserID != alice.ID {
		t.Errorf("资料归属错误: %d", profile.UserID)
	}
}

// Discover excludes the actor, users they already liked, and users in a block
// relation with them in either direction.
func TestDiscoverExclusions(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	carol := createTestUser(t, db, "carol")
	dave := createTestUser(t, db, "dave")
	erin := createTestUser(t, db, "erin")
	svc := newProfileService(db)

	for _, u := range []*models.User{alice, bob, carol, dave, erin} {
		if _, err := svc.GetOrCreateMyProfile(context.Background(), u.ID); err != nil {
			t.Fatalf("创建 %s 的资料失败: %v", u.Username, err)
		}
	}

	likeSvc := newLikeService(db)
	blockSvc := newBlockService(db)
	if _, err := likeSvc.SendLike(context.Background(), alice.ID, bob.ID); err != nil {
		t.Fatalf("SendLike 失败: %v", err)
	}
	if _, err := blockSvc.Block(context.Background(), alice.ID, carol.ID, ""); err != nil {
		t.Fatalf("Block 失败: %v", err)
	}
	if _, err := blockSvc.Block(context.Background(), dave.ID, alice.ID, ""); err != nil {
		t.Fatalf("Block 失败: %v", err)
	}

	profiles, err := svc.Discover(context.Background(), alice.ID)
	if err != nil {
		t.Fatalf("Discover 失败: %v", err)
	}
	if len(profiles) != 1 {
		t.Fatalf("应只剩 erin 一个候选, 发现 %d 个", len(profiles))
	}
	if profiles[0].UserID != erin.ID {
		t.Errorf("候选错误: user %d", profiles[0].UserID)
	}
}
