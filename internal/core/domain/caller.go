package domain

// Capability is the permission level a command requires.
type Capability string

const (
	CapabilityAnyone Capability = "ANYONE"
	CapabilityAdmin  Capability = "ADMIN"
	CapabilityOwner  Capability = "OWNER"
)

// Caller identifies whoever issued a command, as reported by the platform adapter.
type Caller struct {
	UserID      string
	DisplayName string
	GuildID     string
	ChannelID   string
	IsAdmin     bool // holds the administrator permission in GuildID
	IsOwner     bool // matches the configured owner id
}

// Can reports whether the caller holds capability c.
// The owner does not implicitly hold admin rights; the two roles are independent.
func (c Caller) Can(capability Capability) bool {
	switch capability {
	case CapabilityAnyone:
		return true
	case CapabilityAdmin:
		return c.IsAdmin
	case CapabilityOwner:
		return c.IsOwner
	default:
		return false
	}
}
