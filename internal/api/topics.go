package api

import "fmt"

// JoinServerEndpoint registers a new player and returns its id and name.
const JoinServerEndpoint = "join_server"

// Player scoped endpoint operations.
const (
	OpCreateLobby = "create_lobby"
	OpJoinLobby   = "join_lobby"
	OpJoinSeat    = "join_seat"
	OpPerformMove = "perform_move"
	OpChat        = "chat"
	OpSetName     = "set_name"
	OpStartGame   = "start_game"
)

func PlayerEndpoint(playerID uint64, op string) string {
	return fmt.Sprintf("player%d.%s", playerID, op)
}

func lobbyPrefix(lobbyID int) string {
	return fmt.Sprintf("lobby%d", lobbyID)
}

func PublicStateTopic(lobbyID int) string {
	return fmt.Sprintf("%s.publicstate", lobbyPrefix(lobbyID))
}

func HandTopic(lobbyID int, playerID uint64) string {
	return fmt.Sprintf("%s.hands.player%d", lobbyPrefix(lobbyID), playerID)
}

func SeatsTopic(lobbyID int) string {
	return fmt.Sprintf("%s.seats", lobbyPrefix(lobbyID))
}

func ChatTopic(lobbyID int) string {
	return fmt.Sprintf("%s.chat", lobbyPrefix(lobbyID))
}

func CardPlayedTopic(lobbyID int) string {
	return fmt.Sprintf("%s.cardplayed", lobbyPrefix(lobbyID))
}

func NewTrickTopic(lobbyID int) string {
	return fmt.Sprintf("%s.newtrick", lobbyPrefix(lobbyID))
}

func NewHandTopic(lobbyID int) string {
	return fmt.Sprintf("%s.newhand", lobbyPrefix(lobbyID))
}
