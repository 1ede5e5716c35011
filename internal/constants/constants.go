package constants

// Session and context keys
const (
	SessionCookieName  = "kanmind_session"
	ContextKeyUserID   = "user_id"
	ContextKeyIdentity = "identity"
)

// Validation limits
const (
	MinPasswordLength = 8
	MaxFullnameLength = 150

	MaxBoardTitleLength  = 25
	MaxTaskTitleLength   = 35
	MaxDescriptionLength = 250
	MaxCommentLength     = 250
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// AI task suggestion
const MaxAISuggestedTasks = 20
