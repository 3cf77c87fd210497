package service

import (
	"denomination-wallet/internal/core/domain"
	"denomination-wallet/internal/core/ports"
)

// OwnerPolicy implements ports.WalletPolicy: only a wallet's owner may use it.
type OwnerPolicy struct{}

// NewOwnerPolicy creates the default wallet policy.
func NewOwnerPolicy() *OwnerPolicy {
	return &OwnerPolicy{}
}

// Authorize allows every action to the owner and nothing to anyone else.
func (p *OwnerPolicy) Authorize(actorID, ownerID string, action ports.Action) error {
	if actorID == "" || actorID != ownerID {
		return &domain.WalletError{Kind: domain.ErrKindForbidden, Reason: string(action)}
	}
	return nil
}
