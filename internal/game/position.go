package game

// Position is where a seat is drawn relative to the local player.
type Position int

const (
	Bottom Position = iota
	Left
	Top
	Right
)

// Positions in clockwise order starting from the local player.
var Positions = []Position{Bottom, Left, Top, Right}

func (p Position) String() string {
	switch p {
	case Bottom:
		return "bottom"
	case Left:
		return "left"
	case Top:
		return "top"
	case Right:
		return "right"
	}
	return "unknown"
}

// Resolve maps an absolute seat to its screen position for the local seat.
// The local seat is always Bottom. Both seats must be valid.
func Resolve(seat Seat, local Seat) Position {
	return Position(((int(seat)-int(local))%NumSeats + NumSeats) % NumSeats)
}

// SeatAt is the inverse of Resolve.
func SeatAt(pos Position, local Seat) Seat {
	return Seat((int(local) + int(pos)) % NumSeats)
}
