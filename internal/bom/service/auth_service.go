package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/Alankrit2004/AV-CnS-Electric/internal/bom/entity"
	"github.com/Alankrit2004/AV-CnS-Electric/internal/bom/repository"
	"github.com/Alankrit2004/AV-CnS-Electric/internal/config"
	"github.com/Alankrit2004/AV-CnS-Electric/internal/middleware"
)

var (
	ErrUserExists         = errors.New("用户名已存在")
	ErrInvalidCredentials = errors.New("用户名或密码错误")
	ErrUserDisabled       = errors.New("用户已停用")
)

// revokedKeyPrefix 已注销token的jti在Redis中的键前缀
const revokedKeyPrefix = "bom:revoked:"

// AuthService 注册/登录/注销
type AuthService struct {
	repos *repository.Repositories
	rdb   *redis.Client
	cfg   *config.Config
}

func NewAuthService(repos *repository.Repositories, rdb *redis.Client, cfg *config.Config) *AuthService {
	return &AuthService{repos: repos, rdb: rdb, cfg: cfg}
}

// Register 注册新用户
func (s *AuthService) Register(username, password string) (*entity.User, error) {
	exists, err := s.repos.User.ExistsByUsername(username)
	if err != nil {
		return nil, fmt.Errorf("查询用户失败: %w", err)
	}
	if exists {
		return nil, ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("密码加密失败: %w", err)
	}

	user := &entity.User{
		Username:     username,
		PasswordHash: string(hash),
		Status:       "active",
	}
	if err := s.repos.User.Create(user); err != nil {
		return nil, fmt.Errorf("创建用户失败: %w", err)
	}
	return user, nil
}

// Login 校验密码并签发JWT
func (s *AuthService) Login(username, password string) (string, *entity.User, error) {
	user, err := s.repos.User.GetByUsername(username)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil, ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, fmt.Errorf("查询用户失败: %w", err)
	}
	if user.Status != "active" {
		return "", nil, ErrUserDisabled
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.issueToken(user)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

func (s *AuthService) issueToken(user *entity.User) (string, error) {
	now := time.Now()
	claims := &middleware.JWTClaims{
		UserID:   user.ID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.cfg.JWT.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.JWT.AccessTokenExpire)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWT.Secret))
	if err != nil {
		return "", fmt.Errorf("签发token失败: %w", err)
	}
	return signed, nil
}

// Logout 把token的jti加入Redis黑名单，保留到原过期时刻
func (s *AuthService) Logout(ctx context.Context, jti string, expiresAt time.Time) error {
	if s.rdb == nil || jti == "" {
		return nil
	}
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	if err := s.rdb.Set(ctx, revokedKeyPrefix+jti, "1", ttl).Err(); err != nil {
		return fmt.Errorf("注销token失败: %w", err)
	}
	return nil
}

// TokenRevoked 供JWT中间件查询jti是否已注销
func (s *AuthService) TokenRevoked(jti string) bool {
	if s.rdb == nil || jti == "" {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	n, err := s.rdb.Exists(ctx, revokedKeyPrefix+jti).Result()
	if err != nil {
		// Redis不可用时放行，认证仍由签名和过期时间保证
		return false
	}
	return n > 0
}
