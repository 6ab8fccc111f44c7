// Package merge implements the server-side reconciliation policy for
// collections pushed from field devices. Tickets use last-writer-wins
// on the record timestamp; user records are shallow-merged field by
// field because they are edited from a single admin device at a time.
package merge

import (
	"time"

	"github.com/vodomat/fieldsync/internal/models"
	"github.com/vodomat/fieldsync/pkg/api"
)

// Tickets reconciles an incoming ticket batch with the resident
// collection and returns the new resident collection. Order is
// preserved: existing records first, then newly seen incoming records.
//
// Policy: an incoming record fully replaces an existing one with the
// same id iff its effective timestamp (updatedAt, falling back to
// createdAt) is greater than or equal to the existing one's. Ties
// favor the incoming record, which makes re-pushing the same batch
// idempotent. Sub-fields (operations, spare parts) are replaced
// wholesale, never unioned. Winning records are stamped with syncedAt.
func Tickets(existing []*models.ServiceTicket, incoming []models.ServiceTicket, syncedAt time.Time) []*models.ServiceTicket {
	merged := make([]*models.ServiceTicket, 0, len(existing)+len(incoming))
	index := make(map[string]int, len(existing))

	for _, ticket := range existing {
		index[ticket.ID] = len(merged)
		merged = append(merged, ticket)
	}

	for i := range incoming {
		in := &incoming[i]

		pos, ok := index[in.ID]
		if !ok {
			accepted := in.Clone()
			stamp := syncedAt
			accepted.SyncedAt = &stamp
			index[in.ID] = len(merged)
			merged = append(merged, accepted)
			continue
		}

		if in.Supersedes(merged[pos]) {
			accepted := in.Clone()
			stamp := syncedAt
			accepted.SyncedAt = &stamp
			merged[pos] = accepted
		}
	}

	return merged
}

// Users reconciles an incoming user batch with the resident
// collection. Unlike tickets, an incoming record is unconditionally
// authoritative per field: every field present in the payload
// overwrites the resident value, regardless of timestamps. Fields
// absent from the payload keep their resident values, which is what
// keeps credential and 2FA material out of reach of sync pushes.
// Users are never removed by a merge.
func Users(existing []*models.User, incoming []api.SyncUser) []*models.User {
	merged := make([]*models.User, 0, len(existing)+len(incoming))
	index := make(map[string]int, len(existing))

	for _, user := range existing {
		index[user.ID] = len(merged)
		merged = append(merged, user)
	}

	for i := range incoming {
		in := &incoming[i]

		pos, ok := index[in.ID]
		if !ok {
			user := &models.User{ID: in.ID, CreatedAt: time.Now()}
			applyPatch(user, in)
			index[in.ID] = len(merged)
			merged = append(merged, user)
			continue
		}

		user := merged[pos].Clone()
		applyPatch(user, in)
		merged[pos] = user
	}

	return merged
}

// applyPatch overwrites only the fields present in the payload.
func applyPatch(user *models.User, in *api.SyncUser) {
	if in.Username != nil {
		user.Username = *in.Username
	}
	if in.Password != nil {
		user.Password = *in.Password
	}
	if in.Name != nil {
		user.Name = *in.Name
	}
	if in.Role != nil {
		user.Role = *in.Role
	}
	if in.Depot != nil {
		user.Depot = *in.Depot
	}
	if in.IsActive != nil {
		user.IsActive = *in.IsActive
	}
	if in.CreatedAt != nil {
		user.CreatedAt = *in.CreatedAt
	}
	if in.LastLoginAt != nil {
		user.LastLoginAt = in.LastLoginAt
	}
	if in.LastLoginDevice != nil {
		user.LastLoginDevice = *in.LastLoginDevice
	}
	if in.IsOnline != nil {
		user.IsOnline = *in.IsOnline
	}
	if in.WorkdayStatus != nil {
		user.WorkdayStatus = *in.WorkdayStatus
	}
	if in.WorkdayClosedAt != nil {
		user.WorkdayClosedAt = in.WorkdayClosedAt
	}
	if in.WorkdayOpenedAt != nil {
		user.WorkdayOpenedAt = in.WorkdayOpenedAt
	}
}
