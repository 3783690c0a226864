package models

type ActorKind string

const (
	ActorSession ActorKind = "session"
	ActorAdmin   ActorKind = "admin"
)

// Actor identifies who issues a ledger operation. Session actors carry the
// anonymous session id, admin actors the admin username.
type Actor struct {
	Kind ActorKind
	ID   string
}

func SessionActor(sessionID string) Actor {
	return Actor{Kind: ActorSession, ID: sessionID}
}

func AdminActor(username string) Actor {
	return Actor{Kind: ActorAdmin, ID: username}
}

func (a Actor) IsAdmin() bool {
	return a.Kind == ActorAdmin && a.ID != ""
}

// CanRead reports whether the actor may see an order owned by sessionID.
func (a Actor) CanRead(sessionID string) bool {
	if a.IsAdmin() {
		return true
	}
	return a.Kind == ActorSession && a.ID != "" && a.ID == sessionID
}

func (a Actor) String() string {
	return string(a.Kind) + ":" + a.ID
}
