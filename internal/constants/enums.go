package constants

import (
	"database/sql/driver"
	"fmt"
)

// Action is the scored outcome of a check-in.
type Action string

const (
	ActionAttack Action = "attack"
	ActionDefend Action = "defend"
)

func (a Action) String() string { return string(a) }

// Mode is how a check-in was submitted. ModeParty only appears on synchronized teammate check-ins.
type Mode string

const (
	ModeLocal  Mode = "local"
	ModeRemote Mode = "remote"
	ModeRanged Mode = "ranged"
	ModeParty  Mode = "party"
)

func (m Mode) String() string { return string(m) }

// IsClientMode reports whether a caller may submit this mode.
func (m Mode) IsClientMode() bool {
	return m == ModeLocal || m == ModeRemote || m == ModeRanged
}

type PartyStatus string

const (
	PartyStatusActive PartyStatus = "active"
	PartyStatusEnded  PartyStatus = "ended"
)

// RequestStatus is shared by party invitations and join requests.
type RequestStatus string

const (
	RequestStatusPending   RequestStatus = "pending"
	RequestStatusAccepted  RequestStatus = "accepted"
	RequestStatusDeclined  RequestStatus = "declined"
	RequestStatusCancelled RequestStatus = "cancelled"
)

/* ---------- DB adapters so sqlx (or database/sql) scans/values cleanly ---------- */

func scanString(src interface{}, name string) (string, error) {
	switch v := src.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		return "", fmt.Errorf("%s: cannot scan type %T", name, src)
	}
}

func (a *Action) Scan(src interface{}) error {
	s, err := scanString(src, "Action")
	*a = Action(s)
	return err
}

func (a Action) Value() (driver.Value, error) { return string(a), nil }

func (m *Mode) Scan(src interface{}) error {
	s, err := scanString(src, "Mode")
	*m = Mode(s)
	return err
}

func (m Mode) Value() (driver.Value, error) { return string(m), nil }

func (s *PartyStatus) Scan(src interface{}) error {
	v, err := scanString(src, "PartyStatus")
	*s = PartyStatus(v)
	return err
}

func (s PartyStatus) Value() (driver.Value, error) { return string(s), nil }

func (s *RequestStatus) Scan(src interface{}) error {
	v, err := scanString(src, "RequestStatus")
	*s = RequestStatus(v)
	return err
}

func (s RequestStatus) Value() (driver.Value, error) { return string(s), nil }
