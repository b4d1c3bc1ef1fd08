package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"CricPredict/internal/api"
	"CricPredict/internal/model"
	"CricPredict/internal/testutil"

	"github.com/gin-gonic/gin"
	gocache "github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newAdminRouter(db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := testutil.NewTestLogger()
	auth := api.NewAuthMiddleware(db, logger)
	settlements := api.NewSettlementHandler(db, logger, gocache.New(time.Minute, time.Minute))

	r := gin.New()
	admin := r.Group("/api/admin", auth.RequireAdmin)
	admin.POST("/polls/:poll_uuid/settle", settlements.SettlePoll)
	return r
}

func settlePoll(r *gin.Engine, userID, pollUUID string, correct []uint64) *httptest.ResponseRecorder {
	body, _ := json.Marshal(gin.H{"correct_option_ids": correct})
	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/admin/polls/%s/settle", pollUUID), bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSettleEndpointAuthorization(t *testing.T) {
	db := testutil.OpenTestDB(t)
	r := newAdminRouter(db)

	admin := testutil.CreateUser(t, db, "admin", model.RoleAdmin, time.Now())
	user := testutil.CreateUser(t, db, "mortal", model.RoleUser, time.Now())
	voter := testutil.CreateUser(t, db, "voter", model.RoleUser, time.Now())
	match := testutil.CreateMatch(t, db)
	poll, options := testutil.CreatePoll(t, db, match.ID, model.PollTypeWinner, time.Now().Add(time.Hour), "A", "B")
	testutil.CreateVote(t, db, voter.ID, poll.ID, options[0].ID, time.Now())
	require.NoError(t, db.Model(&model.Poll{}).Where("id = ?", poll.ID).Update("status", model.PollStatusClosed).Error)

	t.Run("missing identity header", func(t *testing.T) {
		w := settlePoll(r, "", poll.PollUUID, []uint64{options[0].ID})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("regular user is forbidden", func(t *testing.T) {
		w := settlePoll(r, strconv.FormatUint(user.ID, 10), poll.PollUUID, []uint64{options[0].ID})
		assert.Equal(t, http.StatusForbidden, w.Code)

		// The gate fires before the handler: nothing was settled.
		var got model.Poll
		require.NoError(t, db.First(&got, poll.ID).Error)
		assert.Equal(t, model.PollStatusClosed, got.Status)
	})

	t.Run("admin settles", func(t *testing.T) {
		w := settlePoll(r, strconv.FormatUint(admin.ID, 10), poll.PollUUID, []uint64{options[0].ID})
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			PollUUID      string `json:"poll_uuid"`
			PointsAwarded int64  `json:"points_awarded"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, poll.PollUUID, resp.PollUUID)
		assert.Equal(t, int64(30), resp.PointsAwarded)

		var got model.Poll
		require.NoError(t, db.First(&got, poll.ID).Error)
		assert.Equal(t, model.PollStatusSettled, got.Status)
	})
}
