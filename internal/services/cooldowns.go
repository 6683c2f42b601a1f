package services

import (
	"time"

	"pcwl/territory/internal/constants"
	gormModels "pcwl/territory/internal/models/gorm"
)

type cooldownKind string

const (
	cooldownAttack cooldownKind = "attack"
	cooldownDefend cooldownKind = "defend"
	cooldownCharge cooldownKind = "charge"
)

func cooldownKindFor(action constants.Action) cooldownKind {
	if action == constants.ActionDefend {
		return cooldownDefend
	}
	return cooldownAttack
}

// cooldownDuration picks the duration for an action submitted in mode.
func cooldownDuration(action constants.Action, mode constants.Mode) time.Duration {
	switch {
	case action == constants.ActionDefend && mode == constants.ModeRemote:
		return constants.CooldownDefendRemote
	case action == constants.ActionDefend:
		return constants.CooldownDefendLocal
	default:
		return constants.CooldownAttack
	}
}

func cooldownSlot(state *gormModels.CooldownState, kind cooldownKind) **gormModels.CooldownEntry {
	switch kind {
	case cooldownDefend:
		return &state.Defend
	case cooldownCharge:
		return &state.Charge
	default:
		return &state.Attack
	}
}

// cooldownRemaining returns how long the cooldown still runs, or zero when it has cleared.
func cooldownRemaining(state gormModels.CooldownState, kind cooldownKind, now time.Time) time.Duration {
	entry := *cooldownSlot(&state, kind)
	if entry == nil {
		return 0
	}
	remaining := time.Duration(entry.Deadline-now.UnixMilli()) * time.Millisecond
	if remaining <= 0 {
		return 0
	}
	return remaining
}

func startCooldown(state *gormModels.CooldownState, kind cooldownKind, d time.Duration, mode constants.Mode, now time.Time) {
	nowMs := now.UnixMilli()
	*cooldownSlot(state, kind) = &gormModels.CooldownEntry{
		Deadline:  nowMs + d.Milliseconds(),
		Mode:      string(mode),
		Duration:  d.Milliseconds(),
		StartedAt: nowMs,
	}
}
