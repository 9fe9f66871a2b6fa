package application

import (
	"github.com/bnema/kol-credits/internal/domain"
)

type ConsumeCommand struct {
	Actor domain.Actor
	Text  string
}

type MessageCommand struct {
	Actor      domain.Actor
	TargetID   domain.AccountID
	TargetType domain.ProfileType
}

type InviteCommand struct {
	Brand domain.Actor
	KOLID domain.AccountID
}
