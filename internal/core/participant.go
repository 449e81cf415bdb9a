package core

// ParticipantID identifies one of the two session participants.
// Numbering follows join order: the first-joined participant (the room
// creator) is 1 and acts as session authority; the second is 2.
type ParticipantID int

const (
	NoParticipant ParticipantID = 0
	Participant1  ParticipantID = 1
	Participant2  ParticipantID = 2
)

// Valid reports whether id names an actual participant.
func (id ParticipantID) Valid() bool {
	return id == Participant1 || id == Participant2
}

// Other returns the opposing participant, or NoParticipant for invalid ids.
func (id ParticipantID) Other() ParticipantID {
	switch id {
	case Participant1:
		return Participant2
	case Participant2:
		return Participant1
	default:
		return NoParticipant
	}
}

// String returns a human-readable name for the participant.
func (id ParticipantID) String() string {
	switch id {
	case Participant1:
		return "P1"
	case Participant2:
		return "P2"
	default:
		return "none"
	}
}

// HalfSign returns the sign of the court half the participant occupies:
// -1 for participant 1 (negative z), +1 for participant 2.
func (id ParticipantID) HalfSign() float64 {
	if id == Participant2 {
		return 1
	}
	return -1
}
