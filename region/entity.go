package region

type EntityID uint64

type Team int

const (
	TeamNone Team = iota
	TeamGoodGuys
	TeamBadGuys
	TeamNeutrals
)

func (t Team) String() string {
	switch t {
	case TeamGoodGuys:
		return "goodguys"
	case TeamBadGuys:
		return "badguys"
	case TeamNeutrals:
		return "neutrals"
	default:
		return "none"
	}
}

// ArchetypeNeutralCreep is the archetype class of camp units.
const ArchetypeNeutralCreep = "npc_dota_creep_neutral"

// Entity is a snapshot of a world entity as seen by the tracker.
type Entity struct {
	ID           EntityID
	Archetype    string
	Team         Team
	Pos          Vec2
	Alive        bool
	Invulnerable bool
}

// Source is the entity query service the tracker polls.
type Source interface {
	// Lookup returns the current state of id, or false once it has been removed.
	Lookup(id EntityID) (Entity, bool)
	// FindAllByArchetype lists live entities of the given archetype.
	FindAllByArchetype(archetype string) []Entity
	// Remove destroys an entity.
	Remove(id EntityID)
}
