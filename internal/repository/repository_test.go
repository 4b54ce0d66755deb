package repository

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/group-shift/backend/internal/config"
	"github.com/sysu-ecnc-dev/group-shift/backend/internal/domain"
	"github.com/sysu-ecnc-dev/group-shift/backend/internal/kv"
)

func newTestRepository(t *testing.T) (*Repository, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cfg := &config.Config{}
	cfg.KV.OperationTimeout = 5

	return NewRepository(cfg, kv.NewRedisStore(client), nil), mr
}

var t0 = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func createGroup(t *testing.T, repo *Repository, id, code, creator string) *domain.Group {
	t.Helper()

	g := &domain.Group{ID: id, Name: "group " + id, InviteCode: code, CreatedBy: creator, CreatedAt: t0}
	require.NoError(t, repo.CreateGroup(g, &domain.Membership{UserID: creator, GroupID: id, Role: domain.RoleAdmin, JoinedAt: t0}))
	return g
}

func TestCreateGroupWritesInviteAndBothMemberships(t *testing.T) {
	repo, mr := newTestRepository(t)
	createGroup(t, repo, "g1", "ABC123", "u1")

	gid, err := repo.GetGroupIDByInviteCode("ABC123")
	require.NoError(t, err)
	assert.Equal(t, "g1", gid)

	_, err = repo.GetGroupIDByInviteCode("ZZZ999")
	assert.ErrorIs(t, err, ErrRecordNotFound)

	forward, err := mr.Get("user_groups:u1:g1")
	require.NoError(t, err)
	reverse, err := mr.Get("group_members:g1:u1")
	require.NoError(t, err)
	assert.Equal(t, forward, reverse)

	err = repo.CreateGroup(&domain.Group{ID: "g2", InviteCode: "ABC123"}, &domain.Membership{UserID: "u2", GroupID: "g2", Role: domain.RoleAdmin})
	assert.ErrorIs(t, err, ErrInviteCodeTaken)
	assert.False(t, mr.Exists("group:g2"))
}

func TestMemberships(t *testing.T) {
	repo, mr := newTestRepository(t)
	createGroup(t, repo, "g1", "ABC123", "u1")

	require.NoError(t, repo.AddMembership(&domain.Membership{UserID: "u3", GroupID: "g1", Role: domain.RoleMember, JoinedAt: t0.Add(2 * time.Hour)}))
	require.NoError(t, repo.AddMembership(&domain.Membership{UserID: "u2", GroupID: "g1", Role: domain.RoleMember, JoinedAt: t0.Add(time.Hour)}))

	err := repo.AddMembership(&domain.Membership{UserID: "u2", GroupID: "g1", Role: domain.RoleMember, JoinedAt: t0})
	assert.ErrorIs(t, err, ErrAlreadyMember)

	ms, err := repo.GetGroupMemberships("g1")
	require.NoError(t, err)
	require.Len(t, ms, 3)
	assert.Equal(t, "u1", ms[0].UserID)
	assert.Equal(t, "u2", ms[1].UserID)
	assert.Equal(t, "u3", ms[2].UserID)

	mine, err := repo.GetUserMemberships("u2")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "g1", mine[0].GroupID)

	require.NoError(t, repo.RemoveMembership("g1", "u2"))
	assert.False(t, mr.Exists("user_groups:u2:g1"))
	assert.False(t, mr.Exists("group_members:g1:u2"))

	_, err = repo.GetMembership("g1", "u2")
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func survey(id, groupID string, createdAt time.Time) *domain.Post {
	return &domain.Post{
		ID:        id,
		GroupID:   groupID,
		CreatedBy: "u1",
		CreatedAt: createdAt,
		Body: &domain.ShiftSurvey{
			Title:       "survey " + id,
			StartDate:   "2024-06-01",
			EndDate:     "2024-06-30",
			OpeningTime: "09:00",
			ClosingTime: "22:00",
		},
	}
}

func TestGroupPostsNewestFirstAndSkipsBadRecords(t *testing.T) {
	repo, mr := newTestRepository(t)

	require.NoError(t, repo.CreatePost(survey("p1", "g1", t0)))
	require.NoError(t, repo.CreatePost(survey("p2", "g1", t0.Add(time.Hour))))
	require.NoError(t, repo.CreatePost(survey("p3", "g10", t0)))

	require.NoError(t, mr.Set("group_posts:g1:broken", "{not json"))
	require.NoError(t, mr.Set("group_posts:g1:legacy", `{"id":"legacy","title":"old"}`))

	posts, err := repo.GetGroupPosts("g1")
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "p2", posts[0].ID)
	assert.Equal(t, "p1", posts[1].ID)

	err = repo.CreatePost(survey("p1", "g1", t0))
	assert.ErrorIs(t, err, ErrEditConflict)
}

func rowsFor(postID string, users ...string) []*domain.PublishedShift {
	rows := make([]*domain.PublishedShift, len(users))
	for i, u := range users {
		rows[i] = &domain.PublishedShift{
			ID:        postID + "-" + u,
			PostID:    postID,
			GroupID:   "g1",
			Date:      "2024-06-01",
			UserID:    u,
			StartTime: "09:00",
			EndTime:   "17:00",
		}
	}
	return rows
}

func publish(t *testing.T, repo *Repository, surveyID string, rows []*domain.PublishedShift, resultID string) error {
	t.Helper()

	s, guard, err := repo.GetPostForUpdate(surveyID)
	require.NoError(t, err)

	body, _ := s.Survey()
	updated := *body
	updated.Status = domain.SurveyStatusPublished
	s.Body = &updated

	result := &domain.Post{
		ID:      resultID,
		GroupID: s.GroupID,
		Body:    &domain.ShiftResult{Title: body.Title + " - 採用結果", OriginalPostID: s.ID, TotalShifts: len(rows)},
	}
	return repo.PublishShifts(s, rows, result, guard)
}

func TestPublishShiftsReplacesRowsAndResult(t *testing.T) {
	repo, _ := newTestRepository(t)
	require.NoError(t, repo.CreatePost(survey("s1", "g1", t0)))

	require.NoError(t, publish(t, repo, "s1", rowsFor("s1", "u1", "u2"), "r1"))
	// 第二次采用时行的 ID 不同，旧行必须被删除
	second := rowsFor("s1", "u3", "u4")
	require.NoError(t, publish(t, repo, "s1", second, "r2"))

	rows, err := repo.GetPublishedShifts("s1")
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	posts, err := repo.GetGroupPosts("g1")
	require.NoError(t, err)
	results := 0
	for _, p := range posts {
		if p.Type() == domain.PostTypeShiftResult {
			results++
			assert.Equal(t, "r2", p.ID)
		}
	}
	assert.Equal(t, 1, results)

	s, err := repo.GetPost("s1")
	require.NoError(t, err)
	assert.True(t, s.IsPublished())
}

func TestPublishShiftsStaleGuard(t *testing.T) {
	repo, _ := newTestRepository(t)
	require.NoError(t, repo.CreatePost(survey("s1", "g1", t0)))

	s, staleGuard, err := repo.GetPostForUpdate("s1")
	require.NoError(t, err)

	require.NoError(t, publish(t, repo, "s1", rowsFor("s1", "u1"), "r1"))

	err = repo.PublishShifts(s, rowsFor("s1", "u2"), &domain.Post{ID: "r2", GroupID: "g1", Body: &domain.ShiftResult{OriginalPostID: "s1"}}, staleGuard)
	assert.ErrorIs(t, err, ErrEditConflict)

	rows, err := repo.GetPublishedShifts("s1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "u1", rows[0].UserID)
}

func TestDeleteSurveyCascades(t *testing.T) {
	repo, mr := newTestRepository(t)
	require.NoError(t, repo.CreatePost(survey("s1", "g1", t0)))
	require.NoError(t, repo.CreatePost(survey("s2", "g1", t0)))
	require.NoError(t, repo.UpsertResponse(&domain.Response{PostID: "s1", UserID: "u2"}))
	require.NoError(t, publish(t, repo, "s1", rowsFor("s1", "u2"), "r1"))

	s, err := repo.GetPost("s1")
	require.NoError(t, err)
	require.NoError(t, repo.DeletePost(s))

	posts, err := repo.GetGroupPosts("g1")
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "s2", posts[0].ID)

	assert.False(t, mr.Exists("post:r1"))
	assert.False(t, mr.Exists("response:s1:u2"))
	assert.False(t, mr.Exists("published_shifts:s1:s1-u2"))
}

func TestGroupShiftsOnlyPublished(t *testing.T) {
	repo, _ := newTestRepository(t)
	require.NoError(t, repo.CreatePost(survey("s1", "g1", t0)))
	require.NoError(t, repo.CreatePost(survey("s2", "g1", t0)))
	require.NoError(t, publish(t, repo, "s1", rowsFor("s1", "u1", "u2"), "r1"))

	gs, err := repo.GetGroupShifts("g1")
	require.NoError(t, err)
	require.Len(t, gs.Rows, 2)
	assert.Equal(t, "s1-u1", gs.Rows[0].ID)
	assert.Contains(t, gs.Guards, "s1-u2")
}

func TestAcceptSubstitute(t *testing.T) {
	repo, mr := newTestRepository(t)
	require.NoError(t, repo.CreatePost(survey("s1", "g1", t0)))
	require.NoError(t, publish(t, repo, "s1", rowsFor("s1", "u1"), "r1"))

	req := &domain.Post{ID: "req", GroupID: "g1", CreatedBy: "u1", CreatedAt: t0, Body: &domain.SubstituteRequest{
		Date: "2024-06-01", StartTime: "09:00", EndTime: "17:00", Reason: "用事",
	}}
	require.NoError(t, repo.CreatePost(req))

	req, reqGuard, err := repo.GetPostForUpdate("req")
	require.NoError(t, err)
	gs, err := repo.GetGroupShifts("g1")
	require.NoError(t, err)

	row := *gs.Rows[0]
	row.UserID = "u2"
	result := &domain.Post{ID: "res", GroupID: "g1", CreatedBy: "u2", Body: &domain.SubstituteResult{OriginalPostID: "req", ShiftUpdated: true}}

	require.NoError(t, repo.AcceptSubstitute(req, result, &row, reqGuard, gs.Guards[row.ID]))

	assert.False(t, mr.Exists("post:req"))
	assert.False(t, mr.Exists("group_posts:g1:req"))
	assert.True(t, mr.Exists("post:res"))

	rows, err := repo.GetPublishedShifts("s1")
	require.NoError(t, err)
	assert.Equal(t, "u2", rows[0].UserID)

	// 第二次接受使用的是旧的守卫
	again := &domain.Post{ID: "res2", GroupID: "g1", Body: &domain.SubstituteResult{OriginalPostID: "req"}}
	err = repo.AcceptSubstitute(req, again, nil, reqGuard)
	assert.ErrorIs(t, err, ErrEditConflict)
	assert.False(t, mr.Exists("post:res2"))
}

func TestDeleteGroupCascades(t *testing.T) {
	repo, mr := newTestRepository(t)
	g := createGroup(t, repo, "g1", "ABC123", "u1")
	require.NoError(t, repo.AddMembership(&domain.Membership{UserID: "u2", GroupID: "g1", Role: domain.RoleMember, JoinedAt: t0}))
	require.NoError(t, repo.CreatePost(survey("s1", "g1", t0)))
	require.NoError(t, repo.UpsertResponse(&domain.Response{PostID: "s1", UserID: "u2"}))
	require.NoError(t, publish(t, repo, "s1", rowsFor("s1", "u2"), "r1"))

	createGroup(t, repo, "g2", "XYZ789", "u1")

	require.NoError(t, repo.DeleteGroup(g))

	for _, key := range mr.Keys() {
		assert.NotContains(t, key, "g1", "key %s should have been deleted", key)
		assert.NotContains(t, key, "s1", "key %s should have been deleted", key)
	}
	assert.True(t, mr.Exists("group:g2"))
	assert.True(t, mr.Exists("user_groups:u1:g2"))
}
