// Package auth 提供用户注册、登录和令牌校验
package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/ashwinyue/inkwell/internal/model"
	"github.com/ashwinyue/inkwell/internal/repository"
	"github.com/ashwinyue/inkwell/internal/service/types"
)

var (
	// ErrInvalidCredentials 邮箱或密码错误
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrAccountDisabled 账户被禁用
	ErrAccountDisabled = errors.New("account is disabled")
	// ErrInvalidToken 令牌无效、过期或已撤销
	ErrInvalidToken = errors.New("invalid token")
)

// Service 认证服务
type Service struct {
	users  *repository.UserRepository
	secret []byte
}

// NewService 创建认证服务
// secret 为空时生成随机密钥，重启后已签发的令牌失效
func NewService(users *repository.UserRepository, secret string) (*Service, error) {
	if users == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if strings.TrimSpace(secret) == "" {
		randomBytes := make([]byte, 32)
		if _, err := rand.Read(randomBytes); err != nil {
			return nil, fmt.Errorf("failed to generate JWT secret: %w", err)
		}
		secret = base64.StdEncoding.EncodeToString(randomBytes)
	}
	return &Service{users: users, secret: []byte(secret)}, nil
}

// RegisterRequest 注册请求
type RegisterRequest struct {
	Name     string `json:"name" binding:"required,min=3,max=80"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Avatar   string `json:"avatar"`
	Role     string `json:"role"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse 登录响应
type LoginResponse struct {
	User         *model.UserInfo `json:"user"`
	Token        string          `json:"token"`
	RefreshToken string          `json:"refresh_token"`
}

// Register 注册用户
func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*model.UserInfo, error) {
	if _, err := s.users.GetUserByEmail(ctx, req.Email); err == nil {
		return nil, types.NewValidationError("email", "user with this email already exists")
	} else if !types.IsNotFound(err) {
		return nil, err
	}
	if _, err := s.users.GetUserByName(ctx, req.Name); err == nil {
		return nil, types.NewValidationError("name", "user with this name already exists")
	} else if !types.IsNotFound(err) {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:           uuid.New().String(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hashedPassword),
		Avatar:       req.Avatar,
		IsActive:     true,
	}

	if req.Role != "" {
		role, err := s.users.GetRoleByName(ctx, strings.ToUpper(req.Role))
		if err != nil {
			if types.IsNotFound(err) {
				return nil, types.NewValidationError("role", "unknown role")
			}
			return nil, err
		}
		user.RoleID = role.ID
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user.ToUserInfo(), nil
}

// Login 用户登录
// 邮箱不存在和密码错误返回同一个错误，不泄露账户是否存在
func (s *Service) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	user, err := s.users.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if types.IsNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrAccountDisabled
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	accessToken, refreshToken, err := s.generateTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	return &LoginResponse{
		User:         user.ToUserInfo(),
		Token:        accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// ValidateToken 验证访问令牌并返回对应用户
func (s *Service) ValidateToken(ctx context.Context, tokenString string) (*model.User, error) {
	claims, err := s.parseToken(tokenString)
	if err != nil {
		return nil, err
	}
	if tokenType, _ := claims["type"].(string); tokenType != "access" {
		return nil, ErrInvalidToken
	}
	userID, ok := claims["user_id"].(string)
	if !ok {
		return nil, ErrInvalidToken
	}

	// 数据库中不存在、已撤销或已过期的令牌一律拒绝
	if _, err := s.users.GetTokenByValue(ctx, tokenString); err != nil {
		return nil, ErrInvalidToken
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if !user.IsActive {
		return nil, ErrAccountDisabled
	}
	return user, nil
}

// RefreshToken 用刷新令牌换取新令牌对
// 旧令牌对全部撤销
func (s *Service) RefreshToken(ctx context.Context, refreshTokenString string) (*LoginResponse, error) {
	claims, err := s.parseToken(refreshTokenString)
	if err != nil {
		return nil, err
	}
	if tokenType, _ := claims["type"].(string); tokenType != "refresh" {
		return nil, ErrInvalidToken
	}
	userID, ok := claims["user_id"].(string)
	if !ok {
		return nil, ErrInvalidToken
	}

	if _, err := s.users.GetTokenByValue(ctx, refreshTokenString); err != nil {
		return nil, ErrInvalidToken
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, ErrInvalidToken
	}

	if err := s.users.RevokeTokensByUserID(ctx, user.ID); err != nil {
		return nil, err
	}

	accessToken, refreshToken, err := s.generateTokens(ctx, user)
	if err != nil {
		return nil, err
	}
	return &LoginResponse{
		User:         user.ToUserInfo(),
		Token:        accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// Logout 撤销用户的全部令牌
func (s *Service) Logout(ctx context.Context, userID string) error {
	return s.users.RevokeTokensByUserID(ctx, userID)
}

// ChangePassword 修改密码并撤销已有令牌
func (s *Service) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if len(newPassword) < 6 {
		return types.NewValidationError("new_password", "must be at least 6 characters")
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)); err != nil {
		return types.NewValidationError("old_password", "incorrect password")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.PasswordHash = string(hashedPassword)
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return err
	}
	return s.users.RevokeTokensByUserID(ctx, userID)
}

// parseToken 解析并校验签名
func (s *Service) parseToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// generateTokens 生成访问令牌（24 小时）和刷新令牌（7 天）并落库
func (s *Service) generateTokens(ctx context.Context, user *model.User) (string, string, error) {
	now := time.Now()

	// jti 保证同一秒内签发的令牌也互不相同
	accessClaims := jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"exp":     now.Add(24 * time.Hour).Unix(),
		"iat":     now.Unix(),
		"jti":     uuid.New().String(),
		"type":    "access",
	}
	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims).SignedString(s.secret)
	if err != nil {
		return "", "", err
	}

	refreshClaims := jwt.MapClaims{
		"user_id": user.ID,
		"exp":     now.Add(7 * 24 * time.Hour).Unix(),
		"iat":     now.Unix(),
		"jti":     uuid.New().String(),
		"type":    "refresh",
	}
	refreshToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, refreshClaims).SignedString(s.secret)
	if err != nil {
		return "", "", err
	}

	tokens := []*model.AuthToken{
		{
			ID:        uuid.New().String(),
			UserID:    user.ID,
			Token:     accessToken,
			TokenType: "access_token",
			ExpiresAt: now.Add(24 * time.Hour),
		},
		{
			ID:        uuid.New().String(),
			UserID:    user.ID,
			Token:     refreshToken,
			TokenType: "refresh_token",
			ExpiresAt: now.Add(7 * 24 * time.Hour),
		},
	}
	for _, t := range tokens {
		if err := s.users.CreateToken(ctx, t); err != nil {
			return "", "", fmt.Errorf("failed to store token: %w", err)
		}
	}

	return accessToken, refreshToken, nil
}
