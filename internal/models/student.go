package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Student is the persisted student record in the "students" collection.
// Username and Email are unique (enforced by indexes, see services.EnsureStudentIndexes).
type Student struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FirstName        string             `bson:"firstName" json:"firstName"`
	LastName         string             `bson:"lastName" json:"lastName"`
	Email            string             `bson:"email" json:"email"`
	Username         string             `bson:"username" json:"username"`
	Password         string             `bson:"password" json:"-"` // hash only, never returned in JSON
	Class            string             `bson:"class" json:"class"`
	RegistrationDate time.Time          `bson:"registrationDate" json:"registrationDate"`
	RP               int                `bson:"rp" json:"rp"`
	Tier             string             `bson:"tier" json:"tier"`
	CompletedQuizzes []string           `bson:"completedQuizzes" json:"completedQuizzes"`
	WatchedVideos    []string           `bson:"watchedVideos" json:"watchedVideos"`
	ProfilePicture   string             `bson:"profilePicture,omitempty" json:"profilePicture,omitempty"`
}

// StudentProfile is the public projection of a Student returned to clients.
type StudentProfile struct {
	ID               string    `json:"id"`
	FirstName        string    `json:"firstName"`
	LastName         string    `json:"lastName"`
	Username         string    `json:"username"`
	Email            string    `json:"email"`
	Class            string    `json:"class"`
	RP               int       `json:"rp"`
	Tier             string    `json:"tier"`
	Avatar           string    `json:"avatar,omitempty"`
	CompletedQuizzes []string  `json:"completedQuizzes"`
	WatchedVideos    []string  `json:"watchedVideos"`
	RegistrationDate time.Time `json:"registrationDate"`
}

// Profile returns the public projection of s. The password hash is never copied.
func (s *Student) Profile() StudentProfile {
	completed := s.CompletedQuizzes
	if completed == nil {
		completed = []string{}
	}
	watched := s.WatchedVideos
	if watched == nil {
		watched = []string{}
	}
	return StudentProfile{
		ID:               s.ID.Hex(),
		FirstName:        s.FirstName,
		LastName:         s.LastName,
		Username:         s.Username,
		Email:            s.Email,
		Class:            s.Class,
		RP:               s.RP,
		Tier:             s.Tier,
		Avatar:           s.ProfilePicture,
		CompletedQuizzes: completed,
		WatchedVideos:    watched,
		RegistrationDate: s.RegistrationDate,
	}
}
