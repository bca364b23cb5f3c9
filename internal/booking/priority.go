package booking

import (
	"context"
	"log"
	"strings"

	"github.com/iliyamo/venue-reservation/internal/model"
)

// Classification is the outcome of classifying a requester.
type Classification struct {
	Role         model.Role
	Rank         int
	AutoEligible bool
}

// PriorityClassifier derives a requester's rank from the identity store.
type PriorityClassifier struct {
	identities IdentityStore
}

// NewPriorityClassifier returns a classifier backed by identities.
func NewPriorityClassifier(identities IdentityStore) *PriorityClassifier {
	return &PriorityClassifier{identities: identities}
}

// Classify never fails: an unregistered requester or a lookup error yields
// the lowest rank without auto-approval.
func (p *PriorityClassifier) Classify(ctx context.Context, email string) Classification {
	email = strings.ToLower(strings.TrimSpace(email))
	role := model.RoleOther
	if p.identities != nil && email != "" {
		r, err := p.identities.RoleOf(ctx, email)
		if err != nil {
			log.Printf("booking: role lookup for %s failed, treating as unknown: %v", email, err)
		} else {
			role = model.ParseRole(string(r))
		}
	}
	return Classification{
		Role:         role,
		Rank:         role.Rank(),
		AutoEligible: role.AutoApproves(),
	}
}
