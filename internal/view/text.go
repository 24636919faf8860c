package view

import (
	"fmt"
	"strings"

	"voyager.com/euchre/internal/cards"
	"voyager.com/euchre/internal/game"
)

func faceText(f *cards.Face) string {
	if f == nil {
		return "--"
	}
	return f.String()
}

func seatText(s SeatView) string {
	name := s.Name
	if name == "" {
		name = "(empty)"
	}
	var flags []string
	if s.Dealer {
		flags = append(flags, "D")
	}
	if s.Turn {
		flags = append(flags, "*")
	}
	if s.Alone {
		flags = append(flags, "alone")
	}
	out := fmt.Sprintf("%s [seat %d] %d cards", name, int(s.Seat), s.HandSize)
	if len(flags) > 0 {
		out += " " + strings.Join(flags, " ")
	}
	return out
}

// Text draws the table for a terminal.
func Text(t Table) string {
	var b strings.Builder
	top := t.Seats[game.Top]
	left := t.Seats[game.Left]
	right := t.Seats[game.Right]
	bottom := t.Seats[game.Bottom]

	fmt.Fprintf(&b, "phase: %s\n", t.Phase)
	fmt.Fprintf(&b, "                 %s\n", seatText(top))
	fmt.Fprintf(&b, "                 %s\n", faceText(top.Played))
	fmt.Fprintf(&b, "%s  %s    %s  %s\n", seatText(left), faceText(left.Played), faceText(right.Played), seatText(right))
	if t.Upcard != nil {
		fmt.Fprintf(&b, "                 upcard %s\n", t.Upcard)
	}
	fmt.Fprintf(&b, "                 %s\n", faceText(bottom.Played))
	fmt.Fprintf(&b, "                 %s\n", seatText(bottom))

	hand := make([]string, len(t.Hand))
	for i, f := range t.Hand {
		hand[i] = fmt.Sprintf("%d:%s", i, f)
	}
	fmt.Fprintf(&b, "hand: %s\n", strings.Join(hand, " "))
	if len(t.BidOptions) > 0 {
		fmt.Fprintf(&b, "bid: %s\n", strings.Join(t.BidOptions, " | "))
	}

	sb := t.Scoreboard
	if sb.Dealing {
		b.WriteString("You are the dealer\n")
	}
	if sb.MyTurn {
		b.WriteString("Your turn\n")
	}
	if sb.Trump != "" {
		fmt.Fprintf(&b, "Trump: %s\n", sb.Trump)
	}
	fmt.Fprintf(&b, "Tricks taken: %d-%d\n", sb.Tricks[0], sb.Tricks[1])
	fmt.Fprintf(&b, "Score: %d-%d\n", sb.Score[0], sb.Score[1])
	return b.String()
}
