package participantslot

// Command is the closed set of participant-slot commands. Every command
// addresses one (slot, participant) record; the shared fields travel on the
// embedded Target.
type Command interface {
	isParticipantSlotCommand()
	Target() Target
}

// Target identifies the record a command addresses.
type Target struct {
	SlotID        string
	ParticipantID string
	Role          string
}

// MarkAvailable turns the record available unless it is booked.
type MarkAvailable struct {
	Record Target
}

// UnmarkAvailable turns an available record unavailable.
type UnmarkAvailable struct {
	Record Target
}

// Book turns an available record booked under a booking id.
type Book struct {
	Record    Target
	BookingID string
}

// Cancel releases a booked record back to available.
type Cancel struct {
	Record    Target
	BookingID string
}

func (MarkAvailable) isParticipantSlotCommand()   {}
func (UnmarkAvailable) isParticipantSlotCommand() {}
func (Book) isParticipantSlotCommand()            {}
func (Cancel) isParticipantSlotCommand()          {}

func (c MarkAvailable) Target() Target   { return c.Record }
func (c UnmarkAvailable) Target() Target { return c.Record }
func (c Book) Target() Target            { return c.Record }
func (c Cancel) Target() Target          { return c.Record }
