package model

import (
	"time"

	"habittracker/backend/internal/workout"
)

// WorkoutSession is a persisted workout.Session row.
type WorkoutSession struct {
	workout.Session
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type KVEntry struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updatedAt"`
}
