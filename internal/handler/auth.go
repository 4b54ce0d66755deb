package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/group-shift/backend/internal/domain"
	"github.com/sysu-ecnc-dev/group-shift/backend/internal/repository"
	"github.com/sysu-ecnc-dev/group-shift/backend/internal/utils"
	"golang.org/x/crypto/bcrypt"
)

var errInvalidToken = errors.New("无效的令牌")

type AuthClaims struct {
	jwt.RegisteredClaims
}

func revokedTokenKey(jti string) string {
	return "revoked_token:" + jti
}

func resetPasswordOTPKey(email string) string {
	return "otp:reset_password:" + email
}

func (h *Handler) redisContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, time.Duration(h.config.Redis.OperationTimeout)*time.Second)
}

func (h *Handler) issueToken(user *domain.User) (string, time.Time, error) {
	now := time.Now()
	expiration := now.Add(time.Duration(h.config.JWT.Expiration) * time.Second)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, AuthClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(expiration),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Subject:   user.ID,
		},
	})
	ss, err := token.SignedString([]byte(h.config.JWT.Secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return ss, expiration, nil
}

// resolveToken 校验令牌、检查是否已注销，并查出对应的用户；
// 令牌本身有问题或者用户已不存在时返回 errInvalidToken
func (h *Handler) resolveToken(parent context.Context, tokenString string) (*AuthClaims, *domain.User, error) {
	claims := &AuthClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(h.config.JWT.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || claims.Subject == "" || claims.ID == "" {
		return nil, nil, errInvalidToken
	}

	ctx, cancel := h.redisContext(parent)
	defer cancel()

	revoked, err := h.redisClient.Exists(ctx, revokedTokenKey(claims.ID)).Result()
	if err != nil {
		return nil, nil, err
	}
	if revoked > 0 {
		return nil, nil, errInvalidToken
	}

	user, err := h.users.GetUserByID(claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return nil, nil, errInvalidToken
		}
		return nil, nil, err
	}

	return claims, user, nil
}

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required,min=6,max=72"`
		Name     string `json:"name" validate:"required,max=50"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	isExists, err := h.users.CheckEmailIfExists(email)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	if isExists {
		h.badRequest(w, r, repository.ErrDuplicateEmail)
		return
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	user := &domain.User{
		Email:        email,
		Name:         strings.TrimSpace(req.Name),
		PasswordHash: string(passwordHash),
	}
	if err := h.users.CreateUser(user); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateEmail):
			h.badRequest(w, r, err)
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.notify(domain.MailMessage{
		Type: domain.MailTypeWelcome,
		To:   user.Email,
		Data: domain.WelcomeMailData{Name: user.DisplayName(), Email: user.Email},
	})

	h.successResponse(w, r, "注册成功", user)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	// 验证邮箱和密码
	user, err := h.users.GetUserByEmail(strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrRecordNotFound):
			h.unauthorized(w, r, "邮箱不存在或密码错误")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		switch {
		case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
			h.unauthorized(w, r, "邮箱不存在或密码错误")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	token, expiresAt, err := h.issueToken(user)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "登录成功", map[string]any{
		"token":     token,
		"expiresAt": expiresAt,
		"user":      user,
	})
}

// Logout 把令牌的 jti 记入 redis，直到令牌本身过期
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	claims := r.Context().Value(ClaimsCtx).(*AuthClaims)

	ttl := time.Minute
	if claims.ExpiresAt != nil {
		ttl = time.Until(claims.ExpiresAt.Time)
	}
	if ttl > 0 {
		ctx, cancel := h.redisContext(r.Context())
		defer cancel()

		if err := h.redisClient.Set(ctx, revokedTokenKey(claims.ID), "1", ttl).Err(); err != nil {
			h.internalServerError(w, r, err)
			return
		}
	}

	h.successResponse(w, r, "登出成功", nil)
}

func (h *Handler) RequireResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email" validate:"required,email"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	user, err := h.users.GetUserByEmail(strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrRecordNotFound):
			// 用户不存在时也返回成功，防止接口被用来探测邮箱
			h.successResponse(w, r, "重置密码所需验证码已通过邮件发送", nil)
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	// 生成 OTP 并将 OTP 存到 redis
	otp := utils.GenerateRandomOTP()

	ctx, cancel := h.redisContext(r.Context())
	defer cancel()

	if err := h.redisClient.Set(ctx, resetPasswordOTPKey(user.Email), otp, time.Duration(h.config.OTP.Expiration)*time.Second).Err(); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	if err := h.publishMail(domain.MailMessage{
		Type: domain.MailTypeResetPassword,
		To:   user.Email,
		Data: domain.ResetPasswordMailData{
			Name:       user.DisplayName(),
			OTP:        otp,
			Expiration: h.config.OTP.Expiration / 60, // 邮件中以分钟为单位，配置中以秒为单位
		},
	}); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "重置密码所需验证码已通过邮件发送", nil)
}

func (h *Handler) ConfirmResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email" validate:"required,email"`
		OTP      string `json:"otp" validate:"required,len=6,numeric"`
		Password string `json:"password" validate:"required,min=6,max=72"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	// 检验 OTP
	ctx, cancel := h.redisContext(r.Context())
	defer cancel()

	otp, err := h.redisClient.Get(ctx, resetPasswordOTPKey(email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			h.badRequest(w, r, errors.New("验证码错误"))
			return
		}
		h.internalServerError(w, r, err)
		return
	}
	if otp != req.OTP {
		h.badRequest(w, r, errors.New("验证码错误"))
		return
	}

	user, err := h.users.GetUserByEmail(email)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrRecordNotFound):
			h.badRequest(w, r, errors.New("验证码错误"))
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	user.PasswordHash = string(hashedPassword)

	if err := h.users.UpdateUser(user); err != nil {
		switch {
		case errors.Is(err, repository.ErrEditConflict):
			h.editConflict(w, r)
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	// 删除 OTP
	if err := h.redisClient.Del(ctx, resetPasswordOTPKey(email)).Err(); err != nil {
		h.internalServerError(w, r, fmt.Errorf("删除验证码失败: %w", err))
		return
	}

	h.successResponse(w, r, "重置密码成功", nil)
}
