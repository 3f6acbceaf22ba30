package resolver

import (
	"chat-sync/domain"
	"chat-sync/domain/event"
	"chat-sync/errors"
	"slices"
)

// ResolveMember records a membership transition and settles the record again.
// Transitions of one user are replayed in (timestamp, sequence) order, so a
// leave received before its join, or a role change received before an older
// leave, ends in the same state as in order.
func (r Resolver) ResolveMember(current *domain.MemberRecord, m event.MemberChanged) (domain.MemberRecord, error) {
	if err := r.authorizeMember(m); err != nil {
		return domain.MemberRecord{}, err
	}
	var transitions []domain.MemberTransition
	if current != nil {
		if slices.ContainsFunc(current.Transitions, func(t domain.MemberTransition) bool { return t.EventID == m.EventID }) {
			return domain.MemberRecord{}, errors.Stale(m.EventID, "membership transition already applied")
		}
		transitions = slices.Clone(current.Transitions)
	}

	role := m.Role
	if m.Change == event.MemberJoin || m.Change == event.MemberAdd {
		role = r.initialRole(m)
	}
	t := domain.MemberTransition{EventID: m.EventID, Change: m.Change, Actor: m.Actor, Role: role, Stamp: m.Stamp()}
	i, _ := slices.BinarySearchFunc(transitions, t.Stamp, func(e domain.MemberTransition, s domain.Stamp) int {
		return e.Stamp.Compare(s)
	})
	transitions = slices.Insert(transitions, i, t)
	return replay(m.Room, m.TargetID, transitions), nil
}

// replay folds the transitions of one user. A transition that does not fit
// the status at its point in time changes nothing: joining while active,
// leaving while not a member, changing the role of a former member.
func replay(roomID domain.RoomID, userID domain.UserID, transitions []domain.MemberTransition) domain.MemberRecord {
	rec := domain.MemberRecord{
		Current:     domain.Membership{RoomID: roomID, UserID: userID},
		Transitions: transitions,
	}
	for _, t := range transitions {
		cur := &rec.Current
		switch t.Change {
		case event.MemberJoin, event.MemberAdd:
			if cur.IsActive() {
				continue
			}
			if cur.IsPast() {
				rec.History = append(rec.History, *cur)
			}
			rec.Current = domain.Membership{
				RoomID:    roomID,
				UserID:    userID,
				Role:      t.Role,
				Status:    domain.StatusActive,
				JoinedAt:  t.Stamp.At,
				ChangedAt: t.Stamp.At,
				ChangedBy: t.Actor,
				Stamp:     t.Stamp,
			}
		case event.MemberLeave, event.MemberRemove:
			if !cur.IsActive() {
				continue
			}
			cur.Status = domain.StatusLeft
			if t.Change == event.MemberRemove {
				cur.Status = domain.StatusRemoved
			}
			cur.ChangedAt = t.Stamp.At
			cur.ChangedBy = t.Actor
			cur.Stamp = t.Stamp
		case event.MemberRole:
			if !cur.IsActive() {
				continue
			}
			cur.Role = t.Role
			cur.ChangedBy = t.Actor
			cur.Stamp = t.Stamp
		}
	}
	return rec
}

func (r Resolver) authorizeMember(m event.MemberChanged) error {
	self := m.Actor == m.TargetID
	switch m.Change {
	case event.MemberJoin:
		if !self {
			return errors.Unauthorized(m.EventID, "join is self-initiated")
		}
	case event.MemberLeave:
		if !self {
			return errors.Unauthorized(m.EventID, "leave is self-initiated")
		}
	case event.MemberAdd:
		if r.bootstrap(m) {
			return nil
		}
		if !r.authz.IsAdmin(m.Actor) {
			return errors.Unauthorized(m.EventID, "only admins can add members")
		}
	case event.MemberRemove:
		if !r.authz.IsAdmin(m.Actor) {
			return errors.Unauthorized(m.EventID, "only admins can remove members")
		}
	case event.MemberRole:
		if m.Role == "" {
			return errors.Unauthorized(m.EventID, "role change without role")
		}
		if !r.authz.IsAdmin(m.Actor) {
			return errors.Unauthorized(m.EventID, "only admins can change roles")
		}
	}
	return nil
}

// bootstrap is the creation of a room: its creator adds itself first.
func (r Resolver) bootstrap(m event.MemberChanged) bool {
	return m.Actor == m.TargetID && !r.authz.HasMembers()
}

// initialRole is member unless an admin (or the room creator) asked for admin.
func (r Resolver) initialRole(m event.MemberChanged) domain.Role {
	if m.Role != domain.RoleAdmin {
		return domain.RoleMember
	}
	if r.bootstrap(m) || (m.Change == event.MemberAdd && r.authz.IsAdmin(m.Actor)) {
		return domain.RoleAdmin
	}
	return domain.RoleMember
}
