package constants

// Party lifecycle event labels, used for metrics and logs
const (
	PartyEventCreated         = "created"
	PartyEventInvited         = "invited"
	PartyEventInviteAccepted  = "invite_accepted"
	PartyEventInviteDeclined  = "invite_declined"
	PartyEventInviteCancelled = "invite_cancelled"
	PartyEventJoinRequested   = "join_requested"
	PartyEventJoinAccepted    = "join_accepted"
	PartyEventJoinDeclined    = "join_declined"
	PartyEventJoinCancelled   = "join_cancelled"
	PartyEventRenamed         = "renamed"
	PartyEventLeft            = "left"
	PartyEventEnded           = "ended"
	PartyEventExpired         = "expired"
)
