package controllers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/cppla/greenwall/middleware"
	"github.com/cppla/greenwall/models"
)

func TestMain(m *testing.M) {
	os.Setenv("JWT_SECRET", "test-secret-do-not-use")
	// echo the verification code so the login flow test can read it
	os.Setenv("ECHO_VERIFY_CODE", "true")
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// newTestEnv builds a router with the real handlers over a throwaway
// SQLite database. CORS, rate limiting and access logging stay out: the
// tests exercise handler behavior, not middleware.
func newTestEnv(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "api.db") + "?_pragma=busy_timeout(10000)&_txlock=immediate"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Note{}, &models.PunchRecord{}))

	r := gin.New()
	userController := NewUserController(db)
	noteController := NewNoteController(db)
	punchController := NewPunchController(db)

	userGroup := r.Group("/user")
	userGroup.POST("/send-verification-code", userController.SendVerificationCode)
	userGroup.POST("/login", userController.Login)
	userGroup.POST("/logout", middleware.AuthRequired(), userController.Logout)
	userGroup.GET("/me", middleware.AuthRequired(), userController.Me)

	punchGroup := r.Group("/punch-record")
	punchGroup.POST("", punchController.Create)
	punchGroup.GET("/user/:userId", punchController.ListByUser)
	punchGroup.GET("/heatmap/user/:userId", punchController.Heatmap)

	noteGroup := r.Group("/note")
	noteGroup.POST("/save-today", noteController.SaveToday)
	noteGroup.GET("/today/user/:userId", noteController.Today)
	noteGroup.GET("/stats/user/:userId", noteController.Stats)
	noteGroup.GET("/user/:userId", noteController.ListByUser)
	noteGroup.GET("/:id/user/:userId", noteController.FindOne)
	noteGroup.PUT("/:id/user/:userId", noteController.Update)
	noteGroup.DELETE("/:id/user/:userId", noteController.Delete)

	return r, db
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any, headers map[string]string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var decoded map[string]any
	if len(w.Body.Bytes()) > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded), "body: %s", w.Body.String())
	}
	return w, decoded
}

func seedUser(t *testing.T, db *gorm.DB, phone string) models.User {
	t.Helper()
	user := models.User{Phone: phone}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func TestSendCodeLoginLogoutFlow(t *testing.T) {
	r, db := newTestEnv(t)
	const phone = "13912340001"

	w, body := doJSON(t, r, http.MethodPost, "/user/send-verification-code", gin.H{"phone": phone}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "验证码发送成功", body["message"])
	code, _ := body["code"].(string)
	require.Len(t, code, 6, "code must be echoed in test configuration")

	// first contact created the account
	var user models.User
	require.NoError(t, db.Where("phone = ?", phone).First(&user).Error)

	w, body = doJSON(t, r, http.MethodPost, "/user/login", gin.H{"phone": phone, "verificationCode": code}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "登录成功", body["message"])
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	userObj, ok := body["user"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, strconv.FormatUint(uint64(user.ID), 10), userObj["id"])
	assert.Equal(t, phone, userObj["phoneNumber"])

	// codes are single use
	w, body = doJSON(t, r, http.MethodPost, "/user/login", gin.H{"phone": phone, "verificationCode": code}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "验证码错误", body["message"])

	auth := map[string]string{"Authorization": "Bearer " + token}
	w, body = doJSON(t, r, http.MethodGet, "/user/me", nil, auth)
	require.Equal(t, http.StatusOK, w.Code)
	me, ok := body["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, phone, me["phoneNumber"])

	w, _ = doJSON(t, r, http.MethodPost, "/user/logout", nil, auth)
	require.Equal(t, http.StatusOK, w.Code)

	// logged-out tokens are revoked
	w, _ = doJSON(t, r, http.MethodGet, "/user/me", nil, auth)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSendCodeRejectsBadPhone(t *testing.T) {
	r, _ := newTestEnv(t)

	for _, phone := range []string{"12345", "2391234000a", "12912340001", ""} {
		w, _ := doJSON(t, r, http.MethodPost, "/user/send-verification-code", gin.H{"phone": phone}, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, "phone %q", phone)
	}
}

func TestLoginUnknownUser(t *testing.T) {
	r, _ := newTestEnv(t)

	w, body := doJSON(t, r, http.MethodPost, "/user/login", gin.H{"phone": "13912340002", "verificationCode": "123456"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "用户不存在", body["message"])
}

func TestPunchTwiceSameDay(t *testing.T) {
	r, db := newTestEnv(t)
	user := seedUser(t, db, "13912340003")

	w, body := doJSON(t, r, http.MethodPost, "/punch-record", gin.H{"userId": user.ID}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "打卡成功", body["message"])

	w, body = doJSON(t, r, http.MethodPost, "/punch-record", gin.H{"userId": user.ID}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "今天已经打过卡了", body["message"])

	var count int64
	require.NoError(t, db.Model(&models.PunchRecord{}).Where("user_id = ?", user.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestPunchUnknownUser(t *testing.T) {
	r, _ := newTestEnv(t)

	w, body := doJSON(t, r, http.MethodPost, "/punch-record", gin.H{"userId": 999}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "用户不存在", body["message"])
}

func TestSaveTodayCreatesThenEdits(t *testing.T) {
	r, db := newTestEnv(t)
	user := seedUser(t, db, "13912340004")

	w, body := doJSON(t, r, http.MethodPost, "/note/save-today", gin.H{"userId": user.ID, "note": "morning draft"}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "保存今日笔记成功", body["message"])

	w, _ = doJSON(t, r, http.MethodPost, "/note/save-today", gin.H{"userId": user.ID, "note": "evening version"}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var notes []models.Note
	require.NoError(t, db.Where("user_id = ?", user.ID).Find(&notes).Error)
	require.Len(t, notes, 1)
	assert.Equal(t, "evening version", notes[0].Note)

	w, body = doJSON(t, r, http.MethodGet, fmt.Sprintf("/note/today/user/%d", user.ID), nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	data, ok := body["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "evening version", data["note"])
}

func TestSaveTodayStripsMarkup(t *testing.T) {
	r, db := newTestEnv(t)
	user := seedUser(t, db, "13912340005")

	w, _ := doJSON(t, r, http.MethodPost, "/note/save-today", gin.H{"userId": user.ID, "note": `hi<script>alert(1)</script>`}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var note models.Note
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&note).Error)
	assert.Equal(t, "hi", note.Note)
}

func TestTodayEmpty(t *testing.T) {
	r, db := newTestEnv(t)
	user := seedUser(t, db, "13912340006")

	w, body := doJSON(t, r, http.MethodGet, fmt.Sprintf("/note/today/user/%d", user.ID), nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "今日暂无笔记", body["message"])
	_, hasData := body["data"]
	assert.False(t, hasData)
}

func TestNoteOwnershipCollapsesToNotFound(t *testing.T) {
	r, db := newTestEnv(t)
	owner := seedUser(t, db, "13912340007")
	other := seedUser(t, db, "13912340008")

	w, _ := doJSON(t, r, http.MethodPost, "/note/save-today", gin.H{"userId": owner.ID, "note": "private"}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var note models.Note
	require.NoError(t, db.Where("user_id = ?", owner.ID).First(&note).Error)

	w, _ = doJSON(t, r, http.MethodGet, fmt.Sprintf("/note/%d/user/%d", note.ID, other.ID), nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = doJSON(t, r, http.MethodPut, fmt.Sprintf("/note/%d/user/%d", note.ID, other.ID), gin.H{"note": "stolen"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = doJSON(t, r, http.MethodDelete, fmt.Sprintf("/note/%d/user/%d", note.ID, other.ID), nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// the owner still sees the untouched note
	w, body := doJSON(t, r, http.MethodGet, fmt.Sprintf("/note/%d/user/%d", note.ID, owner.ID), nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := body["data"].(map[string]any)
	assert.Equal(t, "private", data["note"])
}

func TestNoteDelete(t *testing.T) {
	r, db := newTestEnv(t)
	user := seedUser(t, db, "13912340009")

	w, _ := doJSON(t, r, http.MethodPost, "/note/save-today", gin.H{"userId": user.ID, "note": "to remove"}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var note models.Note
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&note).Error)

	w, _ = doJSON(t, r, http.MethodDelete, fmt.Sprintf("/note/%d/user/%d", note.ID, user.ID), nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var count int64
	require.NoError(t, db.Model(&models.Note{}).Where("user_id = ?", user.ID).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestNoteStats(t *testing.T) {
	r, db := newTestEnv(t)
	user := seedUser(t, db, "13912340010")

	w, _ := doJSON(t, r, http.MethodPost, "/note/save-today", gin.H{"userId": user.ID, "note": "today"}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, body := doJSON(t, r, http.MethodGet, fmt.Sprintf("/note/stats/user/%d", user.ID), nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := body["data"].(map[string]any)
	assert.Equal(t, float64(1), data["totalCount"])
	assert.Equal(t, float64(1), data["recentCount"])
}

func TestHeatmapEndpoint(t *testing.T) {
	r, db := newTestEnv(t)
	user := seedUser(t, db, "13912340011")

	w, _ := doJSON(t, r, http.MethodPost, "/punch-record", gin.H{"userId": user.ID}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, body := doJSON(t, r, http.MethodGet, fmt.Sprintf("/punch-record/heatmap/user/%d?weeks=2", user.ID), nil, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "获取成长绿墙成功", body["message"])

	data := body["data"].(map[string]any)
	assert.Equal(t, float64(2), data["weeks"])
	cells, ok := data["cells"].([]any)
	require.True(t, ok)
	assert.Len(t, cells, 14)

	// today's punch shows up as a lit cell
	lit := 0
	for _, raw := range cells {
		cell := raw.(map[string]any)
		if cell["intensity"].(float64) > 0 {
			lit++
		}
	}
	assert.Equal(t, 1, lit)
}

func TestHeatmapRejectsBadWeeks(t *testing.T) {
	r, db := newTestEnv(t)
	user := seedUser(t, db, "13912340012")

	for _, weeks := range []string{"-1", "53", "abc"} {
		w, _ := doJSON(t, r, http.MethodGet, fmt.Sprintf("/punch-record/heatmap/user/%d?weeks=%s", user.ID, weeks), nil, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, "weeks=%s", weeks)
	}
}

func TestListEndpointsRejectBadUserID(t *testing.T) {
	r, _ := newTestEnv(t)

	for _, path := range []string{
		"/punch-record/user/0",
		"/punch-record/user/abc",
		"/note/user/0",
		"/note/today/user/abc",
	} {
		w, _ := doJSON(t, r, http.MethodGet, path, nil, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, "path %s", path)
	}
}
