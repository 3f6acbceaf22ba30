package event

import "chat-sync/domain"

// Delta lists what one applied mutation changed in a room projection,
// so consumers re-render incrementally instead of rescanning.
type Delta struct {
	Room     domain.RoomID
	Version  uint64
	Messages []domain.MessageID
	Members  []domain.UserID
	Pins     []domain.MessageID
	Typing   []domain.UserID
	// Cause is the event id of the mutation that produced the delta.
	Cause string
	// Rejected lists writes held back for the message and refused once it
	// was created.
	Rejected []Rejection
}

func (d Delta) RoomID() domain.RoomID { return d.Room }

func (d Delta) IsEmpty() bool {
	return len(d.Messages) == 0 && len(d.Members) == 0 &&
		len(d.Pins) == 0 && len(d.Typing) == 0
}

// Rejection notifies upstream that a mutation was refused.
type Rejection struct {
	Mutation Mutation
	Reason   error
}

func (r Rejection) RoomID() domain.RoomID { return r.Mutation.RoomID() }
