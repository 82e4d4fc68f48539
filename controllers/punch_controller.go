package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/greenwall/heatmap"
	"github.com/cppla/greenwall/models"
	"github.com/cppla/greenwall/store"
	"github.com/cppla/greenwall/utils"
)

// PunchController handles daily check-ins and the growth wall projection.
type PunchController struct {
	db    *gorm.DB
	store *store.Store
}

// NewPunchController creates a PunchController.
func NewPunchController(db *gorm.DB) *PunchController {
	return &PunchController{db: db, store: store.New(db)}
}

// Create records today's punch. Punching twice on the same calendar day
// is a domain conflict, not an update.
func (p *PunchController) Create(ctx *gin.Context) {
	var req struct {
		UserID uint `json:"userId" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, "用户ID格式无效")
		return
	}

	now := time.Now()
	record, err := store.UpsertForDay[models.PunchRecord](p.store, store.KindPunch, req.UserID, now,
		func() models.PunchRecord {
			return models.PunchRecord{UserID: req.UserID, PunchTime: now}
		}, nil)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrAlreadyPunchedToday):
			utils.Error(ctx, http.StatusBadRequest, "今天已经打过卡了")
		case errors.Is(err, store.ErrNotFound):
			utils.Error(ctx, http.StatusBadRequest, "用户不存在")
		case errors.Is(err, store.ErrInvalidArgument):
			utils.Error(ctx, http.StatusBadRequest, "用户ID格式无效")
		default:
			utils.Error(ctx, http.StatusInternalServerError, "打卡失败")
		}
		return
	}

	utils.Success(ctx, "打卡成功", record)
}

// ListByUser returns the user's punch history, newest first.
func (p *PunchController) ListByUser(ctx *gin.Context) {
	userID, ok := parseUserIDParam(ctx)
	if !ok {
		return
	}

	var records []models.PunchRecord
	if err := p.db.Where("user_id = ?", userID).Order("punch_time DESC").Find(&records).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, "获取打卡记录失败")
		return
	}

	utils.Success(ctx, "获取打卡记录成功", records)
}

// Heatmap projects the user's punch history onto the weeks x 7 growth
// wall grid, server side, so thin clients can render it directly.
func (p *PunchController) Heatmap(ctx *gin.Context) {
	userID, ok := parseUserIDParam(ctx)
	if !ok {
		return
	}

	weeks := heatmap.DefaultWeeks
	if raw := strings.TrimSpace(ctx.Query("weeks")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 || n > 52 {
			utils.Error(ctx, http.StatusBadRequest, "weeks 参数无效")
			return
		}
		weeks = n
	}

	var punchTimes []time.Time
	if err := p.db.Model(&models.PunchRecord{}).Where("user_id = ?", userID).Pluck("punch_time", &punchTimes).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, "获取成长绿墙失败")
		return
	}

	grid := heatmap.Project(punchTimes, weeks, time.Now())
	utils.Success(ctx, "获取成长绿墙成功", grid)
}

// parseUserIDParam reads the :userId path segment, writing the 400
// response itself when the value is not a positive integer.
func parseUserIDParam(ctx *gin.Context) (uint, bool) {
	raw := strings.TrimSpace(ctx.Param("userId"))
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		utils.Error(ctx, http.StatusBadRequest, "用户ID格式无效")
		return 0, false
	}
	return uint(id), true
}
