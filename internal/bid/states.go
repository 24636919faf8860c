package bid

const (
	Stage__CALL         string = "CALL"
	Stage__TRUMP_SELECT string = "TRUMP_SELECT"
	Stage__ALONE        string = "ALONE"
	Stage__DONE         string = "DONE"

	Event__PICK_UP      string = "PICK_UP"
	Event__NAME_TRUMP   string = "NAME_TRUMP"
	Event__SELECT_TRUMP string = "SELECT_TRUMP"
	Event__GO_ALONE     string = "GO_ALONE"
	Event__PASS         string = "PASS"
)

// Round is the bidding round the flow was opened for.
type Round int

const (
	// Round1 offers to order up the upcard; trump is implicitly its suit.
	Round1 Round = 1
	// Round2 lets the player name any trump suit.
	Round2 Round = 2
)

// Button labels shown for each stage.
const (
	LabelPickUp    = "Pick it up"
	LabelNameTrump = "Name trump"
	LabelPass      = "Pass"
	LabelYes       = "Yes"
	LabelNo        = "No"
)
