package handler

type ContextKey string

var (
	ActorCtxKey       ContextKey = "actor"
	TokenCtxKey       ContextKey = "token"
	TokenExpiryCtxKey ContextKey = "tokenExpiry"
	TaskCtxKey        ContextKey = "task"
	MemberCtxKey      ContextKey = "member"
)
