package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"docmanager/internal/core/auth"
	"docmanager/internal/domain"
	"docmanager/pkg/utils"
)

// Tokens 签发/解析访问令牌
type Tokens interface {
	Issue(subject string) (string, error)
	Parse(token string) (*auth.Claims, error)
}

type AuthService struct {
	users  domain.UserRepository
	tokens Tokens
	log    *zap.Logger
	// 邮箱不存在时仍做一次 bcrypt 比较，响应耗时一致
	dummyHash string
}

func NewAuthService(users domain.UserRepository, tokens Tokens, l *zap.Logger) *AuthService {
	if l == nil {
		l = zap.NewNop()
	}
	h, _ := utils.HashPassword("docmanager-dummy-password")
	return &AuthService{users: users, tokens: tokens, log: l, dummyHash: h}
}

type RegisterInput struct {
	Email    string
	Username string
	Password string
	FullName *string
}

func (in *RegisterInput) normalize() error {
	in.Email = strings.TrimSpace(in.Email)
	in.Username = strings.TrimSpace(in.Username)
	if a, err := mail.ParseAddress(in.Email); err != nil || a.Address != in.Email {
		return fmt.Errorf("%w: invalid email", domain.ErrValidation)
	}
	if in.Username == "" {
		return fmt.Errorf("%w: username is required", domain.ErrValidation)
	}
	if in.Password == "" {
		return fmt.Errorf("%w: password is required", domain.ErrValidation)
	}
	if len(in.Password) > 72 {
		return fmt.Errorf("%w: password must be at most 72 bytes", domain.ErrValidation)
	}
	if in.FullName != nil {
		if n := strings.TrimSpace(*in.FullName); n == "" {
			in.FullName = nil
		} else {
			in.FullName = &n
		}
	}
	return nil
}

// Register 先查邮箱再查用户名，报告第一个冲突
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	if u, err := s.users.FindByEmail(ctx, in.Email); err != nil {
		return nil, err
	} else if u != nil {
		return nil, fmt.Errorf("%w: email already registered", domain.ErrDuplicate)
	}
	if u, err := s.users.FindByUsername(ctx, in.Username); err != nil {
		return nil, err
	} else if u != nil {
		return nil, fmt.Errorf("%w: username already taken", domain.ErrDuplicate)
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &domain.User{
		Email:        in.Email,
		Username:     in.Username,
		PasswordHash: hash,
		FullName:     in.FullName,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, u); err != nil {
		// 并发注册时唯一索引兜底
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, fmt.Errorf("%w: email or username already registered", domain.ErrDuplicate)
		}
		return nil, err
	}
	s.log.Info("user registered", zap.Uint("user_id", u.ID))
	return u, nil
}

// Authenticate 邮箱不存在与密码错误返回同一个错误
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	u, err := s.users.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, err
	}
	if u == nil {
		utils.CheckPassword(password, s.dummyHash)
		return nil, domain.ErrInvalidCredentials
	}
	if !utils.CheckPassword(password, u.PasswordHash) || !u.IsActive {
		return nil, domain.ErrInvalidCredentials
	}
	return u, nil
}

func (s *AuthService) IssueToken(u *domain.User) (string, error) {
	tok, err := s.tokens.Issue(strconv.FormatUint(uint64(u.ID), 10))
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return tok, nil
}

// VerifyIdentity 任何解析/签名/过期/查库失败都返回 domain.ErrInvalidToken
func (s *AuthService) VerifyIdentity(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		s.log.Debug("token rejected", zap.Error(err))
		return nil, domain.ErrInvalidToken
	}
	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || id == 0 {
		return nil, domain.ErrInvalidToken
	}
	u, err := s.users.FindByID(ctx, uint(id))
	if err != nil {
		s.log.Warn("identity lookup failed", zap.Uint64("user_id", id), zap.Error(err))
		return nil, domain.ErrInvalidToken
	}
	if u == nil || !u.IsActive {
		return nil, domain.ErrInvalidToken
	}
	return u, nil
}
