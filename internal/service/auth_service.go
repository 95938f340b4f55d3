package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/parcel-billing/internal/cache"
	"github.com/parcel-billing/internal/config"
	"github.com/parcel-billing/internal/logger"
	"github.com/parcel-billing/internal/models"
	"github.com/parcel-billing/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// AuthService 员工认证服务
type AuthService struct {
	cfg       *config.Config
	staffRepo repository.StaffRepository
}

// NewAuthService 创建认证服务实例
func NewAuthService(cfg *config.Config, staffRepo repository.StaffRepository) *AuthService {
	return &AuthService{
		cfg:       cfg,
		staffRepo: staffRepo,
	}
}

// HashPassword 使用 bcrypt 加密密码
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword 验证密码
func VerifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

// JWTClaims 员工 JWT 声明
type JWTClaims struct {
	StaffID      uint   `json:"staff_id"`
	Username     string `json:"username"`
	Role         string `json:"role"`
	TokenVersion uint64 `json:"token_version"`
	jwt.RegisteredClaims
}

// GenerateJWT 生成 JWT Token
func (s *AuthService) GenerateJWT(staff *models.Staff) (string, time.Time, error) {
	now := time.Now()
	hours := s.cfg.JWT.ExpireHours
	if hours <= 0 {
		hours = 24
	}
	expiresAt := now.Add(time.Duration(hours) * time.Hour)

	claims := JWTClaims{
		StaffID:      staff.ID,
		Username:     staff.Username,
		Role:         staff.Role,
		TokenVersion: staff.TokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.cfg.JWT.SecretKey))
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseJWT 解析 JWT Token
func (s *AuthService) ParseJWT(tokenString string) (*JWTClaims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	token, err := parser.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.JWT.SecretKey), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

// Login 员工登录
func (s *AuthService) Login(ctx context.Context, username, password string) (*models.Staff, string, time.Time, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}
	staff, err := s.staffRepo.GetByUsername(username)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	if staff == nil {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}
	if err := VerifyPassword(staff.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}

	token, expiresAt, err := s.GenerateJWT(staff)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	now := time.Now()
	if err := s.staffRepo.TouchLogin(staff.ID, now); err != nil {
		return nil, "", time.Time{}, err
	}
	staff.LastLoginAt = &now
	if err := cache.SetStaffAuthState(ctx, cache.BuildStaffAuthState(staff)); err != nil {
		logger.Warnw("staff_auth_state_cache_failed", "staff_id", staff.ID, "error", err)
	}
	return staff, token, expiresAt, nil
}

// ResolveStaffAuthState 读取员工鉴权快照，缓存未命中时回查数据库
func (s *AuthService) ResolveStaffAuthState(ctx context.Context, staffID uint) (*cache.StaffAuthState, error) {
	state, hit, err := cache.GetStaffAuthState(ctx, staffID)
	if err == nil && hit && state != nil {
		return state, nil
	}
	staff, err := s.staffRepo.GetByID(staffID)
	if err != nil {
		return nil, err
	}
	if staff == nil {
		return nil, ErrNotFound
	}
	state = cache.BuildStaffAuthState(staff)
	_ = cache.SetStaffAuthState(ctx, state)
	return state, nil
}
