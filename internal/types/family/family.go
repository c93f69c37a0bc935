package family

import (
	"time"

	"github.com/google/uuid"

	"fambamAPI/internal/types/user"
)

type Family struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// WithMembers is the family screen payload.
type WithMembers struct {
	Family
	Members []*user.User `json:"members"`
}
