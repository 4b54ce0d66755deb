package handler

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/group-shift/backend/internal/domain"
)

func TestListGroupsAnonymousIsEmpty(t *testing.T) {
	e := newTestEnv(t)

	status, resp := e.do(t, http.MethodGet, "/groups", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[]`, string(resp.Data))

	status, resp = e.do(t, http.MethodGet, "/groups", "garbage", nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[]`, string(resp.Data))
}

func TestCreateAndJoinGroup(t *testing.T) {
	e := newTestEnv(t)
	admin := e.newUser(t, "管理员", "admin@example.com", "secret123")
	member := e.newUser(t, "", "member@example.com", "secret123")

	g := e.createGroup(t, admin, "コンビニ")
	assert.Len(t, g.InviteCode, 6)
	assert.Equal(t, admin.ID, g.CreatedBy)
	assert.Zero(t, g.HourlyWage)

	status, _ := e.do(t, http.MethodPost, "/groups/join", member.token, map[string]string{"inviteCode": "ZZZZZZZ"})
	assert.Equal(t, http.StatusBadRequest, status)

	// 邀请码不区分大小写
	status, _ = e.do(t, http.MethodPost, "/groups/join", member.token, map[string]string{"inviteCode": strings.ToLower(g.InviteCode)})
	require.Equal(t, http.StatusOK, status)

	status, _ = e.do(t, http.MethodPost, "/groups/join", member.token, map[string]string{"inviteCode": g.InviteCode})
	assert.Equal(t, http.StatusBadRequest, status)

	status, resp := e.do(t, http.MethodGet, "/groups", member.token, nil)
	require.Equal(t, http.StatusOK, status)
	groups := decode[[]domain.GroupSummary](t, resp.Data)
	require.Len(t, groups, 1)
	assert.Equal(t, g.ID, groups[0].ID)
	assert.False(t, groups[0].IsAdmin)

	status, resp = e.do(t, http.MethodGet, "/groups/"+g.ID+"/members", member.token, nil)
	require.Equal(t, http.StatusOK, status)
	members := decode[[]domain.Member](t, resp.Data)
	require.Len(t, members, 2)
	assert.Equal(t, domain.RoleAdmin, members[0].Role)
	assert.Equal(t, "管理员", members[0].Name)
	// 没有姓名时显示邮箱
	assert.Equal(t, "member@example.com", members[1].Name)
}

func TestGroupAccessControl(t *testing.T) {
	e := newTestEnv(t)
	admin := e.newUser(t, "Admin", "admin@example.com", "secret123")
	member := e.newUser(t, "Member", "member@example.com", "secret123")
	outsider := e.newUser(t, "Outsider", "outsider@example.com", "secret123")

	g := e.createGroup(t, admin, "Cafe")
	e.join(t, member, g)

	status, _ := e.do(t, http.MethodGet, "/groups/no-such-group/posts", admin.token, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, resp := e.do(t, http.MethodGet, "/groups/"+g.ID+"/posts", outsider.token, nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "你不是该组的成员", resp.Message)

	status, _ = e.do(t, http.MethodPut, "/groups/"+g.ID+"/hourly-wage", member.token, map[string]any{"hourlyWage": 1200})
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = e.do(t, http.MethodPut, "/groups/"+g.ID+"/hourly-wage", admin.token, map[string]any{"hourlyWage": -1})
	assert.Equal(t, http.StatusBadRequest, status)

	status, resp = e.do(t, http.MethodPut, "/groups/"+g.ID+"/hourly-wage", admin.token, map[string]any{"hourlyWage": 1200})
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"hourlyWage":1200}`, string(resp.Data))

	status, _ = e.do(t, http.MethodDelete, "/groups/"+g.ID+"/members/"+admin.ID, admin.token, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = e.do(t, http.MethodDelete, "/groups/"+g.ID+"/members/"+outsider.ID, admin.token, nil)
	assert.Equal(t, http.StatusNotFound, status)

	// 只有创建者可以删除组
	status, _ = e.do(t, http.MethodDelete, "/groups/"+g.ID, member.token, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = e.do(t, http.MethodDelete, "/groups/"+g.ID+"/members/"+member.ID, admin.token, nil)
	require.Equal(t, http.StatusOK, status)

	status, _ = e.do(t, http.MethodGet, "/groups/"+g.ID+"/posts", member.token, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = e.do(t, http.MethodDelete, "/groups/"+g.ID, admin.token, nil)
	require.Equal(t, http.StatusOK, status)

	status, _ = e.do(t, http.MethodGet, "/groups/"+g.ID+"/posts", admin.token, nil)
	assert.Equal(t, http.StatusNotFound, status)
}
