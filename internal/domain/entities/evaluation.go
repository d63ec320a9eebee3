package entities

import "time"

const (
	MinRating = 1
	MaxRating = 5
)

// Evaluation is a user's rating of a structure. A user rates a given
// structure at most once.
type Evaluation struct {
	ID          int64     `json:"id" db:"id"`
	StructureID int64     `json:"structure_id" db:"structure_id"`
	UserID      int64     `json:"user_id" db:"user_id"`
	Rating      int       `json:"rating" db:"rating"`
	Comment     string    `json:"comment" db:"comment"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
