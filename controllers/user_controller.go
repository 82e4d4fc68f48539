package controllers

import (
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/greenwall/config"
	"github.com/cppla/greenwall/middleware"
	"github.com/cppla/greenwall/models"
	"github.com/cppla/greenwall/utils"
)

// UserController handles phone + verification-code authentication.
type UserController struct {
	db *gorm.DB
}

// NewUserController creates a UserController.
func NewUserController(db *gorm.DB) *UserController {
	return &UserController{db: db}
}

var (
	phonePattern = regexp.MustCompile(`^1[3-9]\d{9}$`)
	codePattern  = regexp.MustCompile(`^\d{6}$`)
)

// sessionTokenTTL bounds how long a login stays valid.
const sessionTokenTTL = 72 * time.Hour

// SendVerificationCode creates the account on first contact, stores a
// fresh 6-digit code (hashed, 10 minute TTL, single use) and hands it to
// the SMS provider. The code is echoed in the response only when
// EchoVerifyCode is configured, which must never be the case in production.
func (u *UserController) SendVerificationCode(ctx *gin.Context) {
	var req struct {
		Phone string `json:"phone" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, "手机号不能为空")
		return
	}
	phone := strings.TrimSpace(req.Phone)
	if !phonePattern.MatchString(phone) {
		utils.Error(ctx, http.StatusBadRequest, "手机号格式不正确")
		return
	}

	cfg := config.Get()
	if !utils.SendCooldownTrySet(phone, time.Duration(cfg.CodeCooldownSec)*time.Second) {
		utils.Error(ctx, http.StatusTooManyRequests, "请求过于频繁，请稍后再试")
		return
	}

	// Find-or-create keyed by the unique phone column
	var user models.User
	if err := u.db.Where(models.User{Phone: phone}).FirstOrCreate(&user).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, "用户创建失败，请稍后重试")
		return
	}

	code := utils.GenerateVerificationCode(6)
	if err := utils.SendSMS(phone, code); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, "验证码发送失败，请稍后重试")
		return
	}
	// Save only after the send succeeded so dead codes do not pile up
	if err := utils.SaveCode(phone, code, time.Duration(cfg.CodeTTLMinutes)*time.Minute); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, "验证码发送失败，请稍后重试")
		return
	}

	resp := gin.H{"message": "验证码发送成功"}
	if cfg.EchoVerifyCode {
		resp["code"] = code
	}
	ctx.JSON(http.StatusOK, resp)
}

// Login verifies phone + code and issues a JWT. The shape of the user
// object (string id, phoneNumber) is part of the mobile client contract.
func (u *UserController) Login(ctx *gin.Context) {
	var req struct {
		Phone            string `json:"phone" binding:"required"`
		VerificationCode string `json:"verificationCode" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, "手机号和验证码不能为空")
		return
	}
	phone := strings.TrimSpace(req.Phone)
	code := strings.TrimSpace(req.VerificationCode)
	if !phonePattern.MatchString(phone) {
		utils.Error(ctx, http.StatusBadRequest, "手机号格式不正确")
		return
	}
	if !codePattern.MatchString(code) {
		utils.Error(ctx, http.StatusBadRequest, "验证码格式不正确")
		return
	}

	var user models.User
	if err := u.db.Where("phone = ?", phone).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusBadRequest, "用户不存在")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, "登录失败")
		return
	}

	if !utils.VerifyAndConsumeCode(phone, code) {
		utils.Error(ctx, http.StatusBadRequest, "验证码错误")
		return
	}

	token, err := utils.GenerateToken(user.ID, user.Phone, sessionTokenTTL)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, "登录失败")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "登录成功",
		"token":   token,
		"user": gin.H{
			"id":          strconv.FormatUint(uint64(user.ID), 10),
			"phoneNumber": user.Phone,
		},
	})
}

// Logout invalidates the token by blacklisting it until expiration.
func (u *UserController) Logout(ctx *gin.Context) {
	authHeader := ctx.GetHeader("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 {
		utils.Error(ctx, http.StatusUnauthorized, "invalid authorization header")
		return
	}

	token := strings.TrimSpace(parts[1])
	claims, err := utils.ParseToken(token)
	if err != nil {
		utils.Error(ctx, http.StatusUnauthorized, "invalid token")
		return
	}

	expiresAt := time.Now().Add(sessionTokenTTL)
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	utils.BlacklistToken(token, expiresAt)

	utils.Success(ctx, "退出登录成功", nil)
}

// Me returns the authenticated user's profile.
func (u *UserController) Me(ctx *gin.Context) {
	userID := ctx.GetUint(middleware.ContextUserIDKey)
	if userID == 0 {
		utils.Error(ctx, http.StatusUnauthorized, "unauthorized")
		return
	}

	var user models.User
	if err := u.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusBadRequest, "用户不存在")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, "获取用户信息失败")
		return
	}

	utils.Success(ctx, "获取用户信息成功", gin.H{
		"id":          strconv.FormatUint(uint64(user.ID), 10),
		"phoneNumber": user.Phone,
	})
}
