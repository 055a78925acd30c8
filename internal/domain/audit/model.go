package audit

import (
	"time"

	"github.com/google/uuid"
)

// Entry is one row of the persistent audit trail. Entries are append-only;
// there is no update or delete path.
type Entry struct {
	ID        uuid.UUID  `json:"id"`
	ActorID   *uuid.UUID `json:"actor_id,omitempty"`
	ActorName *string    `json:"actor_name,omitempty"`
	Action    string     `json:"action"`
	Resource  string     `json:"resource"`
	ResourceID *string   `json:"resource_id,omitempty"`
	Detail    *string    `json:"detail,omitempty"`
	IPAddress *string    `json:"ip_address,omitempty"`
	RequestID *string    `json:"request_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}
