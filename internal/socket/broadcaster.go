package socket

import (
	"encoding/json"
	"time"
)

// Broadcaster is the typed event surface the services use. All methods are
// nil-safe so the push layer can be absent in tests and tooling.
type Broadcaster struct {
	hub *Hub
}

func NewBroadcaster(hub *Hub) *Broadcaster {
	return &Broadcaster{hub: hub}
}

func (b *Broadcaster) send(teamID string, msgType MessageType, payload map[string]interface{}) {
	if b == nil || b.hub == nil {
		return
	}
	msg := Message{
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now(),
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	b.hub.roomBroadcast <- &RoomMessage{
		Room:    "team:" + teamID,
		Message: data,
	}
}

// BroadcastTeamTotals announces freshly logged miles to the team room.
func (b *Broadcaster) BroadcastTeamTotals(teamID, userName, miles string) {
	b.send(teamID, MessageTeamTotalsUpdated, map[string]interface{}{
		"teamId":   teamID,
		"userName": userName,
		"miles":    miles,
	})
}

func (b *Broadcaster) BroadcastMemberJoined(teamID, userID, userName string) {
	b.send(teamID, MessageMemberJoined, map[string]interface{}{
		"teamId":   teamID,
		"userId":   userID,
		"userName": userName,
	})
}

func (b *Broadcaster) BroadcastMemberRemoved(teamID, userID string) {
	b.send(teamID, MessageMemberRemoved, map[string]interface{}{
		"teamId": teamID,
		"userId": userID,
	})
}

func (b *Broadcaster) BroadcastRoleChanged(teamID, userID, role string) {
	b.send(teamID, MessageRoleChanged, map[string]interface{}{
		"teamId": teamID,
		"userId": userID,
		"role":   role,
	})
}

func (b *Broadcaster) BroadcastTeamUpdated(teamID, name string) {
	b.send(teamID, MessageTeamUpdated, map[string]interface{}{
		"teamId": teamID,
		"name":   name,
	})
}
