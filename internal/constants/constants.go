package constants

import "time"

// Context keys shared between middleware and handlers
const (
	ContextKeyUserID      = "user_id"
	ContextKeyCompanyID   = "company_id"
	ContextKeyCompanyRole = "company_role"
	ContextKeyAccessList  = "company_access"
)

// Session
const (
	SessionCookieName        = "questboard_session"
	SessionKeyUserID         = "user_id"
	SessionKeyAccessList     = "company_access"
	SessionKeyAccessCachedAt = "company_access_cached_at"
	DefaultMembershipTTL     = 5 * time.Minute
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Leaderboard
const (
	DefaultLeaderboardLimit = 10
	MaxLeaderboardLimit     = 100
)

// Default XP awards
const (
	DefaultXPAssignmentPosted = 10
	DefaultXPCommentPosted    = 2
	DefaultXPUpvoteReceived   = 5
)

// Content limits
const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 10000
	MaxCommentLength     = 2000
	MaxTags              = 10
	MaxTagLength         = 40
	DefaultMaxUploadSize = 25 << 20
)

// IdentityTokenHeader carries the platform-issued user token.
const IdentityTokenHeader = "x-whop-user-token"

// DevUserHeader names the caller in dev identity mode.
const DevUserHeader = "X-User-ID"
