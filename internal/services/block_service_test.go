package services

import (
	"context"
	"errors"
	"testing"

	"gorm.io/gorm"

	"match-go/internal/models"
	"match-go/internal/storage"
)

func newBlockService(db *gorm.DB) BlockService {
	return NewBlockService(db,
		storage.NewGormUserRepository(db),
		storage.NewGormBlockRepository(db),
		nil)
}

func TestBlockCreatesEdge(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	svc := newBlockService(db)

	result, err := svc.Block(context.Background(), alice.ID, bob.ID, "spam")
	if err != nil {
		t.Fatalf("Block 失败: %v", err)
	}
	if !result.Created {
		t.Error("首次屏蔽应当创建新边")
	}
	if result.Block.BlockerID != alice.ID || result.Block.BlockedID != bob.ID {
		t.Errorf("屏蔽边方向错误: %d -> %d", result.Block.BlockerID, result.Block.BlockedID)
	}
	if result.Block.Reason != "spam" {
		t.Errorf("屏蔽原因未保存: %q", result.Block.Reason)
	}

	again, err := svc.Block(context.Background(), alice.ID, bob.ID, "")
	if err != nil {
		t.Fatalf("重复 Block 不应报错: %v", err)
	}
	if again.Created {
		t.Error("重复屏蔽不应报告新建")
	}
	if got := countRows(t, db, &models.Block{}); got != 1 {
		t.Errorf("屏蔽边应当只有 1 条, 发现 %d 条", got)
	}
}

func TestBlockSelf(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice")
	svc := newBlockService(db)

	if _, err := svc.Block(context.Background(), alice.ID, alice.ID, ""); !errors.Is(err, ErrSelfBlock) {
		t.Errorf("屏蔽自己应返回 ErrSelfBlock, got %v", err)
	}
}

// Blocking a matched user purges the match, its messages and the likes in
// both directions, leaving only the block edge.
func TestBlockPurgesRelationship(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	likeSvc := newLikeService(db)
	blockSvc := newBlockService(db)
	msgSvc := NewMessageService(
		storage.NewGormMatchRepository(db),
		storage.NewGormMessageRepository(db),
		nil)

	if _, err := likeSvc.SendLike(context.Background(), alice.ID, bob.ID); err != nil {
		t.Fatalf("SendLike 失败: %v", err)
	}
	mutual, err := likeSvc.SendLike(context.Background(), bob.ID, alice.ID)
	if err != nil {
		t.Fatalf("SendLike 失败: %v", err)
	}
	if _, err := msgSvc.Send(context.Background(), alice.ID, mutual.MatchID, "hey"); err != nil {
		t.Fatalf("发送消息失败: %v", err)
	}

	if _, err := blockSvc.Block(context.Background(), alice.ID, bob.ID, ""); err != nil {
		t.Fatalf("Block 失败: %v", err)
	}

	if got := countRows(t, db, &models.Match{}); got != 0 {
		t.Errorf("屏蔽应删除匹配, 发现 %d 条", got)
	}
	if got := countRows(t, db, &models.Message{}); got != 0 {
		t.Errorf("屏蔽应删除匹配消息, 发现 %d 条", got)
	}
	if got := countRows(t, db, &models.Like{}); got != 0 {
		t.Errorf("屏蔽应删除双向点赞, 发现 %d 条", got)
	}
	if got := countRows(t, db, &models.Block{}); got != 1 {
		t.Errorf("应只留下 1 条屏蔽边, 发现 %d 条", got)
	}
}

func TestUnblockDoesNotRestore(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	likeSvc := newLikeService(db)
	blockSvc := newBlockService(db)

	if _, err := likeSvc.SendLike(context.Background(), alice.ID, bob.ID); err != nil {
		t.Fatalf("SendLike 失败: %v", err)
	}
	if _, err := likeSvc.SendLike(context.Background(), bob.ID, alice.ID); err != nil {
		t.Fatalf("SendLike 失败: %v", err)
	}

	result, err := blockSvc.Block(context.Background(), alice.ID, bob.ID, "")
	if err != nil {
		t.Fatalf("Block 失败: %v", err)
	}
	if err := blockSvc.Unblock(context.Background(), alice.ID, result.Block.ID); err != nil {
		t.Fatalf("Unblock 失败: %v", err)
	}

	if got := countRows(t, db, &models.Block{}); got != 0 {
		t.Errorf("解除屏蔽后屏蔽边应被删除, 发现 %d 条", got)
	}
	// The purged match and likes stay gone.
	if got := countRows(t, db, &models.Match{}); got != 0 {
		t.Errorf("解除屏蔽不应恢复匹配, 发现 %d 条", got)
	}
	if got := countRows(t, db, &models.Like{}); got != 0 {
		t.Errorf("解除屏蔽不应恢复点赞, 发现 %d 条", got)
	}

	// Liking works again after the unblock.
	if _, err := likeSvc.SendLike(context.Background(), alice.ID, bob.ID); err != nil {
		t.Fatalf("解除屏蔽后点赞失败: %v", err)
	}
}

func TestUnblockOwnership(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	svc := newBlockService(db)

	result, err := svc.Block(context.Background(), alice.ID, bob.ID, "")
	if err != nil {
		t.Fatalf("Block 失败: %v", err)
	}

	if err := svc.Unblock(context.Background(), bob.ID, result.Block.ID); !errors.Is(err, ErrNotBlockOwner) {
		t.Errorf("非创建者解除屏蔽应返回 ErrNotBlockOwner, got %v", err)
	}
	if err := svc.Unblock(context.Background(), alice.ID, 9999); !errors.Is(err, ErrBlockNotFound) {
		t.Errorf("解除不存在的屏蔽应返回 ErrBlockNotFound, got %v", err)
	}
}

func TestListBlocked(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	carol := createTestUser(t, db, "carol")
	svc := newBlockService(db)

	if _, err := svc.Block(context.Background(), alice.ID, bob.ID, ""); err != nil {
		t.Fatalf("Block 失败: %v", err)
	}
	if _, err := svc.Block(context.Background(), alice.ID, carol.ID, ""); err != nil {
		t.Fatalf("Block 失败: %v", err)
	}
	if _, err := svc.Block(context.Background(), carol.ID, alice.ID, ""); err != nil {
		t.Fatalf("Block 失败: %v", err)
	}

	blocks, err := svc.ListBlocked(context.Background(), alice.ID)
	if err != nil {
		t.Fatalf("ListBlocked 失败: %v", err)
	}
	if len(blocks) != 2 {
		t.Fatalf("alice 应有 2 条屏蔽记录, 发现 %d 条", len(blocks))
	}
	for _, b := range blocks {
		if b.BlockerID != alice.ID {
			t.Errorf("列表不应包含他人创建的屏蔽: %+v", b)
		}
	}
}
