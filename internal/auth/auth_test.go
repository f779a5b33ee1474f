package auth

import (
	"context"
	"testing"
	"time"

	"match-go/internal/config"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("HashPassword 失败: %v", err)
	}
	if hash == "s3cret" {
		t.Error("哈希不应等于明文密码")
	}
	if !CheckPasswordHash("s3cret", hash) {
		t.Error("正确的密码应通过校验")
	}
	if CheckPasswordHash("wrong", hash) {
		t.Error("错误的密码不应通过校验")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	cfg := config.AuthConfig{JWTSecretKey: "test-secret", JWTExpiry: time.Hour}

	token, err := GenerateToken(42, "alice", cfg)
	if err != nil {
		t.Fatalf("GenerateToken 失败: %v", err)
	}

	claims, err := ValidateToken(context.Background(), token, cfg.JWTSecretKey, nil)
	if err != nil {
		t.Fatalf("ValidateToken 失败: %v", err)
	}
	if claims.UserID != 42 || claims.Username != "alice" {
		t.Errorf("声明错误: %+v", claims)
	}
	if claims.ID == "" {
		t.Error("令牌应携带 JTI")
	}

	if _, err := ValidateToken(context.Background(), token, "other-secret", nil); err == nil {
		t.Error("错误密钥签名的令牌应被拒绝")
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	cfg := config.AuthConfig{JWTSecretKey: "test-secret", JWTExpiry: -time.Minute}

	token, err := GenerateToken(42, "alice", cfg)
	if err != nil {
		t.Fatalf("GenerateToken 失败: %v", err)
	}
	if _, err := ValidateToken(context.Background(), token, cfg.JWTSecretKey, nil); err == nil {
		t.Error("过期令牌应被拒绝")
	}
}

type stubBlacklist struct {
	revoked map[string]bool
}

func (s *stubBlacklist) Add(ctx context.Context, jti string, expiry time.Time) error {
	s.revoked[jti] = true
	return nil
}

func (s *stubBlacklist) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	return s.revoked[jti], nil
}

func TestRevokedTokenRejected(t *testing.T) {
	cfg := config.AuthConfig{JWTSecretKey: "test-secret", JWTExpiry: time.Hour}
	blacklist := &stubBlacklist{revoked: map[string]bool{}}

	token, err := GenerateToken(42, "alice", cfg)
	if err != nil {
		t.Fatalf("GenerateToken 失败: %v", err)
	}

	claims, err := ValidateToken(context.Background(), token, cfg.JWTSecretKey, blacklist)
	if err != nil {
		t.Fatalf("未吊销的令牌应通过校验: %v", err)
	}

	if err := blacklist.Add(context.Background(), claims.ID, claims.ExpiresAt.Time); err != nil {
		t.Fatalf("加入黑名单失败: %v", err)
	}
	if _, err := ValidateToken(context.Background(), token, cfg.JWTSecretKey, blacklist); err == nil {
		t.Error("已吊销的令牌应被拒绝")
	}
}
