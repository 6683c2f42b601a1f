package constants

// Game Error Codes
// Stable codes attached to typed engine errors so callers can branch without parsing messages.

// Validation errors
const (
	ErrCodeDistrictCodeRequired = "DISTRICT_CODE_REQUIRED"
	ErrCodeUnsupportedMode      = "UNSUPPORTED_MODE"
	ErrCodeRemoteRequiresHome   = "REMOTE_REQUIRES_HOME_DEFENSE"
	ErrCodeRangedRequiresAttack = "RANGED_REQUIRES_ATTACK"
	ErrCodeInvalidPartyName     = "INVALID_PARTY_NAME"
	ErrCodeUsernameRequired     = "USERNAME_REQUIRED"
	ErrCodeCannotInviteSelf     = "CANNOT_INVITE_SELF"
)

// Conflict / cooldown errors
const (
	ErrCodeCooldownActive      = "COOLDOWN_ACTIVE"
	ErrCodeAlreadyInParty      = "ALREADY_IN_PARTY"
	ErrCodeNotInParty          = "NOT_IN_PARTY"
	ErrCodePartyFull           = "PARTY_FULL"
	ErrCodePartyInactive       = "PARTY_INACTIVE"
	ErrCodeNotPartyLeader      = "NOT_PARTY_LEADER"
	ErrCodeInvitationResolved  = "INVITATION_RESOLVED"
	ErrCodeInvitationNotYours  = "INVITATION_NOT_YOURS"
	ErrCodeJoinRequestResolved = "JOIN_REQUEST_RESOLVED"
	ErrCodeJoinRequestNotYours = "JOIN_REQUEST_NOT_YOURS"
)

// Not-found errors
const (
	ErrCodePlayerNotFound      = "PLAYER_NOT_FOUND"
	ErrCodePartyNotFound       = "PARTY_NOT_FOUND"
	ErrCodeInvitationNotFound  = "INVITATION_NOT_FOUND"
	ErrCodeJoinRequestNotFound = "JOIN_REQUEST_NOT_FOUND"
)

// Error Messages
// Human-readable messages corresponding to error codes

var GameErrorMessages = map[string]string{
	ErrCodeDistrictCodeRequired: "district code required",
	ErrCodeUnsupportedMode:      "unsupported check-in mode",
	ErrCodeRemoteRequiresHome:   "remote mode is only valid for defending your home district",
	ErrCodeRangedRequiresAttack: "ranged mode is only available when attacking other districts",
	ErrCodeInvalidPartyName:     "party name must be between 3 and 48 characters",
	ErrCodeUsernameRequired:     "username required",
	ErrCodeCannotInviteSelf:     "players cannot invite themselves",

	ErrCodeCooldownActive:      "cooldown is still active",
	ErrCodeAlreadyInParty:      "player is already in an active party",
	ErrCodeNotInParty:          "player is not in an active party",
	ErrCodePartyFull:           "party is already full",
	ErrCodePartyInactive:       "party is no longer active",
	ErrCodeNotPartyLeader:      "only the party leader can do this",
	ErrCodeInvitationResolved:  "invitation has already been processed",
	ErrCodeInvitationNotYours:  "invitation does not belong to this player",
	ErrCodeJoinRequestResolved: "join request has already been processed",
	ErrCodeJoinRequestNotYours: "join request does not belong to this player",

	ErrCodePlayerNotFound:      "player not found",
	ErrCodePartyNotFound:       "party not found",
	ErrCodeInvitationNotFound:  "invitation not found",
	ErrCodeJoinRequestNotFound: "join request not found",
}

// GetErrorMessage returns the human-readable message for a code, or the code itself.
func GetErrorMessage(code string) string {
	if msg, ok := GameErrorMessages[code]; ok {
		return msg
	}
	return code
}
