package models

import "time"

type SubmissionParticipant struct {
	Email string `gorm:"size:255;not null;uniqueIndex:idx_submission_contest_participant,priority:2" bson:"email" json:"email"`
	Name  string `gorm:"size:255" bson:"name" json:"name"`
	Photo string `gorm:"size:1000" bson:"photo" json:"photo"`
}

type Submission struct {
	ID             string                `gorm:"primaryKey;size:36" bson:"_id" json:"_id"`
	ContestID      string                `gorm:"size:36;not null;uniqueIndex:idx_submission_contest_participant,priority:1" bson:"contestId" json:"contestId"`
	ContestName    string                `gorm:"size:255" bson:"contestName" json:"contestName"`
	Participant    SubmissionParticipant `gorm:"embedded;embeddedPrefix:participant_" bson:"participant" json:"participant"`
	SubmissionText string                `gorm:"type:text" bson:"submissionText" json:"submissionText"`
	SubmissionLink string                `gorm:"size:1000" bson:"submissionLink" json:"submissionLink"`
	Status         string                `gorm:"size:20;not null" bson:"status" json:"status"`
	IsWinner       bool                  `gorm:"not null;default:false;index" bson:"isWinner" json:"isWinner"`
	SubmittedAt    time.Time             `bson:"submittedAt" json:"submittedAt"`
}

const (
	SubmissionStatusSubmitted = "submitted"
	SubmissionStatusWinner    = "winner"
	SubmissionStatusRejected  = "rejected"
)
