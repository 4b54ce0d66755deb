package handler

type ContextKey string

var (
	ClaimsCtx     ContextKey = "claims"
	MyInfoCtx     ContextKey = "myInfo"
	GroupCtx      ContextKey = "group"
	MembershipCtx ContextKey = "membership"
	PostCtx       ContextKey = "post"
)
