package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"gorm.io/gorm"

	"match-go/internal/models"
	"match-go/internal/storage"
)

func newLikeService(db *gorm.DB) LikeService {
	return NewLikeService(db,
		storage.NewGormUserRepository(db),
		storage.NewGormLikeRepository(db),
		nil)
}

func TestSendLikeCreatesEdge(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	svc := newLikeService(db)

	result, err := svc.SendLike(context.Background(), alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("SendLike 失败: %v", err)
	}
	if !result.Created {
		t.Error("首次点赞应当创建新边")
	}
	if result.Mutual {
		t.Error("单向点赞不应报告互相点赞")
	}
	if result.Like.FromUserID != alice.ID || result.Like.ToUserID != bob.ID {
		t.Errorf("点赞边方向错误: %d -> %d", result.Like.FromUserID, result.Like.ToUserID)
	}
	if got := countRows(t, db, &models.Match{}); got != 0 {
		t.Errorf("单向点赞不应创建匹配, 发现 %d 条", got)
	}
}

func TestSendLikeIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	svc := newLikeService(db)

	first, err := svc.SendLike(context.Background(), alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("SendLike 失败: %v", err)
	}
	second, err := svc.SendLike(context.Background(), alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("重复 SendLike 不应报错: %v", err)
	}
	if second.Created {
		t.Error("重复点赞不应报告新建")
	}
	if second.Like.ID != first.Like.ID {
		t.Errorf("重复点赞应返回原有记录: got %d, want %d", second.Like.ID, first.Like.ID)
	}
	if got := countRows(t, db, &models.Like{}); got != 1 {
		t.Errorf("点赞边应当只有 1 条, 发现 %d 条", got)
	}
}

func TestSendLikeSelf(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice")
	svc := newLikeService(db)

	if _, err := svc.SendLike(context.Background(), alice.ID, alice.ID); !errors.Is(err, ErrSelfLike) {
		t.Errorf("给自己点赞应返回 ErrSelfLike, got %v", err)
	}
}

func TestSendLikeUnknownTarget(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice")
	svc := newLikeService(db)

	if _, err := svc.SendLike(context.Background(), alice.ID, 9999); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("点赞不存在的用户应返回 ErrUserNotFound, got %v", err)
	}
}

func TestMutualLikeCreatesOneMatch(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	svc := newLikeService(db)

	if _, err := svc.SendLike(context.Background(), alice.ID, bob.ID); err != nil {
		t.Fatalf("SendLike alice->bob 失败: %v", err)
	}
	result, err := svc.SendLike(context.Background(), bob.ID, alice.ID)
	if err != nil {
		t.Fatalf("SendLike bob->alice 失败: %v", err)
	}
	if !result.Mutual {
		t.Error("互相点赞应报告 Mutual")
	}
	if result.MatchID == 0 {
		t.Error("互相点赞应返回匹配 ID")
	}

	if got := countRows(t, db, &models.Match{}); got != 1 {
		t.Fatalf("应当恰好有 1 条匹配, 发现 %d 条", got)
	}
	var match models.Match
	if err := db.First(&match).Error; err != nil {
		t.Fatalf("读取匹配失败: %v", err)
	}
	low, high := alice.ID, bob.ID
	if low > high {
		low, high = high, low
	}
	if match.UserLowID != low || match.UserHighID != high {
		t.Errorf("匹配成员未规范排序: (%d, %d)", match.UserLowID, match.UserHighID)
	}
}

// Completing the same mutual pair from either call order must yield the same
// single canonical match row.
func TestMutualLikeEitherOrder(t *testing.T) {
	for name, swap := range map[string]bool{"alice_first": false, "bob_first": true} {
		t.Run(name, func(t *testing.T) {
			db := newTestDB(t)
			alice := createTestUser(t, db, "alice")
			bob := createTestUser(t, db, "bob")
			svc := newLikeService(db)

			first, second := alice.ID, bob.ID
			if swap {
				first, second = second, first
			}
			if _, err := svc.SendLike(context.Background(), first, second); err != nil {
				t.Fatalf("首次点赞失败: %v", err)
			}
			result, err := svc.SendLike(context.Background(), second, first)
			if err != nil {
				t.Fatalf("回赞失败: %v", err)
			}
			if !result.Mutual {
				t.Error("回赞后应报告 Mutual")
			}
			if got := countRows(t, db, &models.Match{}); got != 1 {
				t.Errorf("应当恰好有 1 条匹配, 发现 %d 条", got)
			}
		})
	}
}

func TestRepeatedMutualLikeReportsExistingMatch(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	svc := newLikeService(db)

	if _, err := svc.SendLike(context.Background(), alice.ID, bob.ID); err != nil {
		t.Fatalf("SendLike 失败: %v", err)
	}
	mutual, err := svc.SendLike(context.Background(), bob.ID, alice.ID)
	if err != nil {
		t.Fatalf("SendLike 失败: %v", err)
	}

	repeat, err := svc.SendLike(context.Background(), alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("匹配后重复点赞不应报错: %v", err)
	}
	if repeat.Created {
		t.Error("重复点赞不应报告新建")
	}
	if !repeat.Mutual || repeat.MatchID != mutual.MatchID {
		t.Errorf("重复点赞应报告现有匹配 %d, got mutual=%t matchID=%d",
			mutual.MatchID, repeat.Mutual, repeat.MatchID)
	}
	if got := countRows(t, db, &models.Match{}); got != 1 {
		t.Errorf("匹配数应保持 1, 发现 %d 条", got)
	}
}

// A pair holding both like edges with no match row (what an interrupted
// promotion leaves behind) must converge to a match on the next like from
// either member, even though that like itself is a repeat.
func TestRepeatedLikeBackfillsMissingMatch(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	svc := newLikeService(db)

	// Seed the edges directly, bypassing the service promotion.
	for _, edge := range []*models.Like{
		{FromUserID: alice.ID, ToUserID: bob.ID},
		{FromUserID: bob.ID, ToUserID: alice.ID},
	} {
		if err := db.Create(edge).Error; err != nil {
			t.Fatalf("预置点赞边失败: %v", err)
		}
	}
	if got := countRows(t, db, &models.Match{}); got != 0 {
		t.Fatalf("预置状态不应包含匹配, 发现 %d 条", got)
	}

	result, err := svc.SendLike(context.Background(), alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("SendLike 失败: %v", err)
	}
	if result.Created {
		t.Error("重复点赞不应报告新建")
	}
	if !result.Mutual {
		t.Error("双向点赞应报告 Mutual")
	}
	if result.MatchID == 0 {
		t.Error("补建的匹配应返回匹配 ID")
	}
	if got := countRows(t, db, &models.Match{}); got != 1 {
		t.Errorf("应当恰好有 1 条匹配, 发现 %d 条", got)
	}

	// The backfill is idempotent.
	again, err := svc.SendLike(context.Background(), bob.ID, alice.ID)
	if err != nil {
		t.Fatalf("SendLike 失败: %v", err)
	}
	if again.MatchID != result.MatchID {
		t.Errorf("应返回同一匹配 %d, got %d", result.MatchID, again.MatchID)
	}
	if got := countRows(t, db, &models.Match{}); got != 1 {
		t.Errorf("匹配数应保持 1, 发现 %d 条", got)
	}
}

func TestSendLikeBlocked(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	likeSvc := newLikeService(db)
	blockSvc := NewBlockService(db,
		storage.NewGormUserRepository(db),
		storage.NewGormBlockRepository(db),
		nil)

	if _, err := blockSvc.Block(context.Background(), alice.ID, bob.ID, ""); err != nil {
		t.Fatalf("Block 失败: %v", err)
	}

	// The blocker cannot like, and neither can the blocked side.
	if _, err := likeSvc.SendLike(context.Background(), alice.ID, bob.ID); !errors.Is(err, ErrBlockedBetween) {
		t.Errorf("屏蔽方点赞应返回 ErrBlockedBetween, got %v", err)
	}
	if _, err := likeSvc.SendLike(context.Background(), bob.ID, alice.ID); !errors.Is(err, ErrBlockedBetween) {
		t.Errorf("被屏蔽方点赞应返回 ErrBlockedBetween, got %v", err)
	}
	if got := countRows(t, db, &models.Like{}); got != 0 {
		t.Errorf("被拒绝的点赞不应落库, 发现 %d 条", got)
	}
}

func TestAcceptLike(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	svc := newLikeService(db)

	sent, err := svc.SendLike(context.Background(), alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("SendLike 失败: %v", err)
	}

	result, err := svc.AcceptLike(context.Background(), bob.ID, sent.Like.ID)
	if err != nil {
		t.Fatalf("AcceptLike 失败: %v", err)
	}
	if !result.Created {
		t.Error("首次接受应创建匹配")
	}
	if !result.Match.HasMember(alice.ID) || !result.Match.HasMember(bob.ID) {
		t.Errorf("匹配成员错误: (%d, %d)", result.Match.UserLowID, result.Match.UserHighID)
	}

	// Accepting synthesizes the reverse like edge.
	if got := countRows(t, db, &models.Like{}); got != 2 {
		t.Errorf("接受后应有两条点赞边, 发现 %d 条", got)
	}

	// A second accept is a no-op against the same match.
	again, err := svc.AcceptLike(context.Background(), bob.ID, sent.Like.ID)
	if err != nil {
		t.Fatalf("重复 AcceptLike 不应报错: %v", err)
	}
	if again.Created {
		t.Error("重复接受不应报告新建")
	}
	if again.Match.ID != result.Match.ID {
		t.Errorf("重复接受应返回原匹配 %d, got %d", result.Match.ID, again.Match.ID)
	}
}

func TestAcceptLikeWrongRecipient(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	carol := createTestUser(t, db, "carol")
	svc := newLikeService(db)

	sent, err := svc.SendLike(context.Background(), alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("SendLike 失败: %v", err)
	}

	if _, err := svc.AcceptLike(context.Background(), carol.ID, sent.Like.ID); !errors.Is(err, ErrNotLikeRecipient) {
		t.Errorf("非接收者接受应返回 ErrNotLikeRecipient, got %v", err)
	}
	if _, err := svc.AcceptLike(context.Background(), bob.ID, 9999); !errors.Is(err, ErrLikeNotFound) {
		t.Errorf("接受不存在的点赞应返回 ErrLikeNotFound, got %v", err)
	}
}

func TestRejectLike(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	svc := newLikeService(db)

	sent, err := svc.SendLike(context.Background(), alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("SendLike 失败: %v", err)
	}

	if err := svc.RejectLike(context.Background(), alice.ID, sent.Like.ID); !errors.Is(err, ErrNotLikeRecipient) {
		t.Errorf("发送者拒绝自己的点赞应返回 ErrNotLikeRecipient, got %v", err)
	}
	if err := svc.RejectLike(context.Background(), bob.ID, sent.Like.ID); err != nil {
		t.Fatalf("RejectLike 失败: %v", err)
	}
	if got := countRows(t, db, &models.Like{}); got != 0 {
		t.Errorf("拒绝后点赞边应被删除, 发现 %d 条", got)
	}
	if err := svc.RejectLike(context.Background(), bob.ID, sent.Like.ID); !errors.Is(err, ErrLikeNotFound) {
		t.Errorf("重复拒绝应返回 ErrLikeNotFound, got %v", err)
	}

	// Rejecting does not prevent a later like from the rejecting side.
	if _, err := svc.SendLike(context.Background(), bob.ID, alice.ID); err != nil {
		t.Fatalf("拒绝后反向点赞失败: %v", err)
	}
}

func TestListSentAndReceived(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	carol := createTestUser(t, db, "carol")
	svc := newLikeService(db)

	if _, err := svc.SendLike(context.Background(), alice.ID, bob.ID); err != nil {
		t.Fatalf("SendLike 失败: %v", err)
	}
	if _, err := svc.SendLike(context.Background(), carol.ID, bob.ID); err != nil {
		t.Fatalf("SendLike 失败: %v", err)
	}

	sent, err := svc.ListSent(context.Background(), alice.ID)
	if err != nil {
		t.Fatalf("ListSent 失败: %v", err)
	}
	if len(sent) != 1 || sent[0].ToUserID != bob.ID {
		t.Errorf("alice 的已发送列表错误: %+v", sent)
	}

	received, err := svc.ListReceived(context.Background(), bob.ID)
	if err != nil {
		t.Fatalf("ListReceived 失败: %v", err)
	}
	if len(received) != 2 {
		t.Fatalf("bob 应收到 2 条点赞, 发现 %d 条", len(received))
	}
	for _, lws := range received {
		if lws.Sender == nil || lws.Sender.Username == "" {
			t.Errorf("收到的点赞应附带发送者信息: %+v", lws)
			continue
		}
		if lws.Sender.ID != lws.FromUserID {
			t.Errorf("发送者信息与点赞边不符: sender=%d like.from=%d", lws.Sender.ID, lws.FromUserID)
		}
	}
}

// Concurrent likes completing the same mutual pair must still leave exactly
// one like edge per direction and one match row.
func TestConcurrentMutualLikes(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	svc := newLikeService(db)

	const attempts = 8
	var wg sync.WaitGroup
	errCh := make(chan error, attempts*2)
	for i := 0; i < attempts; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if _, err := svc.SendLike(context.Background(), alice.ID, bob.ID); err != nil {
				errCh <- err
			}
		}()
		go func() {
			defer wg.Done()
			if _, err := svc.SendLike(context.Background(), bob.ID, alice.ID); err != nil {
				errCh <- err
			}
		}()
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		t.Errorf("并发 SendLike 失败: %v", err)
	}

	if got := countRows(t, db, &models.Like{}); got != 2 {
		t.Errorf("并发点赞后应有 2 条点赞边, 发现 %d 条", got)
	}
	if got := countRows(t, db, &models.Match{}); got != 1 {
		t.Errorf("并发点赞后应恰好有 1 条匹配, 发现 %d 条", got)
	}
}
