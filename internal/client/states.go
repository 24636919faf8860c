package client

const (
	Session__DISCONNECTED string = "DISCONNECTED"
	Session__CONNECTED    string = "CONNECTED"
	Session__IN_LOBBY     string = "IN_LOBBY"
	Session__SEATED       string = "SEATED"

	SessionEvent__JOIN_SERVER string = "JOIN_SERVER"
	SessionEvent__ENTER_LOBBY string = "ENTER_LOBBY"
	SessionEvent__TAKE_SEAT   string = "TAKE_SEAT"
	SessionEvent__LEAVE_SEAT  string = "LEAVE_SEAT"
	SessionEvent__CLOSE       string = "CLOSE"
)
