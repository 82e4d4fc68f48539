package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/greenwall/models"
	"github.com/cppla/greenwall/store"
	"github.com/cppla/greenwall/utils"
)

// NoteController handles the daily journal endpoints.
type NoteController struct {
	db    *gorm.DB
	store *store.Store
}

// NewNoteController creates a NoteController.
func NewNoteController(db *gorm.DB) *NoteController {
	return &NoteController{db: db, store: store.New(db)}
}

// validNoteText trims, sanitizes and length-checks note text. The bool is
// false when the text exceeds the limit.
func validNoteText(raw string) (string, bool) {
	text := utils.SanitizeNote(raw)
	if utf8.RuneCountInString(text) > models.MaxNoteLength {
		return "", false
	}
	return text, true
}

// SaveToday creates today's note on the first write of the day and edits
// it in place on every later write; the client debounces, but correctness
// does not depend on that.
func (n *NoteController) SaveToday(ctx *gin.Context) {
	var req struct {
		UserID uint   `json:"userId" binding:"required"`
		Note   string `json:"note"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, "用户ID格式无效")
		return
	}
	text, ok := validNoteText(req.Note)
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, "笔记内容不能超过5000字符")
		return
	}

	now := time.Now()
	record, err := store.UpsertForDay[models.Note](n.store, store.KindNote, req.UserID, now,
		func() models.Note {
			return models.Note{UserID: req.UserID, Note: text, CreateTime: now}
		},
		func(existing *models.Note) {
			existing.Note = text
		})
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			utils.Error(ctx, http.StatusBadRequest, "用户不存在")
		case errors.Is(err, store.ErrInvalidArgument):
			utils.Error(ctx, http.StatusBadRequest, "用户ID格式无效")
		default:
			utils.Error(ctx, http.StatusInternalServerError, "保存今日笔记失败")
		}
		return
	}

	utils.Success(ctx, "保存今日笔记成功", record)
}

// Today returns today's note, or a null payload when the user has not
// written yet.
func (n *NoteController) Today(ctx *gin.Context) {
	userID, ok := parseUserIDParam(ctx)
	if !ok {
		return
	}

	note, err := store.FindForDay[models.Note](n.store, store.KindNote, userID, time.Now())
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, "获取今日笔记失败")
		return
	}
	if note == nil {
		utils.Success(ctx, "今日暂无笔记", nil)
		return
	}
	utils.Success(ctx, "获取今日笔记成功", note)
}

// ListByUser returns the user's notes, newest first.
func (n *NoteController) ListByUser(ctx *gin.Context) {
	userID, ok := parseUserIDParam(ctx)
	if !ok {
		return
	}

	var notes []models.Note
	if err := n.db.Where("user_id = ?", userID).Order("create_time DESC").Find(&notes).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, "获取笔记列表失败")
		return
	}

	utils.Success(ctx, "获取笔记列表成功", notes)
}

// Stats returns the total note count and the count for the trailing week.
func (n *NoteController) Stats(ctx *gin.Context) {
	userID, ok := parseUserIDParam(ctx)
	if !ok {
		return
	}

	var totalCount int64
	if err := n.db.Model(&models.Note{}).Where("user_id = ?", userID).Count(&totalCount).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, "获取笔记统计失败")
		return
	}

	sevenDaysAgo := time.Now().AddDate(0, 0, -7)
	var recentCount int64
	if err := n.db.Model(&models.Note{}).Where("user_id = ? AND create_time >= ?", userID, sevenDaysAgo).Count(&recentCount).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, "获取笔记统计失败")
		return
	}

	utils.Success(ctx, "获取笔记统计成功", gin.H{
		"totalCount":  totalCount,
		"recentCount": recentCount,
	})
}

// FindOne fetches a single note. Ownership failures collapse into
// not-found so the endpoint never confirms another user's note ids.
func (n *NoteController) FindOne(ctx *gin.Context) {
	noteID, userID, ok := parseNoteParams(ctx)
	if !ok {
		return
	}

	var note models.Note
	if err := n.db.Where("id = ? AND user_id = ?", noteID, userID).First(&note).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusBadRequest, "笔记不存在或无权访问")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, "获取笔记详情失败")
		return
	}

	utils.Success(ctx, "获取笔记详情成功", note)
}

// Update edits an existing note's text. Editing is allowed for any day's
// note; the one-per-day invariant constrains creation, not edits.
func (n *NoteController) Update(ctx *gin.Context) {
	noteID, userID, ok := parseNoteParams(ctx)
	if !ok {
		return
	}

	var req struct {
		Note string `json:"note"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, "笔记内容格式无效")
		return
	}
	text, valid := validNoteText(req.Note)
	if !valid {
		utils.Error(ctx, http.StatusBadRequest, "笔记内容不能超过5000字符")
		return
	}

	var note models.Note
	if err := n.db.Where("id = ? AND user_id = ?", noteID, userID).First(&note).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusBadRequest, "笔记不存在或无权修改")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, "更新笔记失败")
		return
	}

	note.Note = text
	if err := n.db.Save(&note).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, "更新笔记失败")
		return
	}

	utils.Success(ctx, "笔记更新成功", note)
}

// Delete removes a note, the only explicit deletion in the app.
func (n *NoteController) Delete(ctx *gin.Context) {
	noteID, userID, ok := parseNoteParams(ctx)
	if !ok {
		return
	}

	var note models.Note
	if err := n.db.Where("id = ? AND user_id = ?", noteID, userID).First(&note).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusBadRequest, "笔记不存在或无权删除")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, "删除笔记失败")
		return
	}

	if err := n.db.Delete(&note).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, "删除笔记失败")
		return
	}

	utils.Success(ctx, "笔记删除成功", gin.H{"id": note.ID})
}

// parseNoteParams reads the :id and :userId path segments, writing the
// 400 response itself on malformed input.
func parseNoteParams(ctx *gin.Context) (uint, uint, bool) {
	rawID := strings.TrimSpace(ctx.Param("id"))
	noteID, err := strconv.ParseUint(rawID, 10, 32)
	if err != nil || noteID == 0 {
		utils.Error(ctx, http.StatusBadRequest, "笔记ID或用户ID格式无效")
		return 0, 0, false
	}
	rawUser := strings.TrimSpace(ctx.Param("userId"))
	userID, err := strconv.ParseUint(rawUser, 10, 32)
	if err != nil || userID == 0 {
		utils.Error(ctx, http.StatusBadRequest, "笔记ID或用户ID格式无效")
		return 0, 0, false
	}
	return uint(noteID), uint(userID), true
}
