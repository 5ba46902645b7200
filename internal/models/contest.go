package models

import (
	"sort"
	"time"
)

type Contest struct {
	ID              string    `gorm:"primaryKey;size:36" bson:"_id" json:"_id"`
	Name            string    `gorm:"size:255;not null" bson:"name" json:"name"`
	Image           string    `gorm:"size:1000" bson:"image" json:"image"`
	Description     string    `gorm:"type:text" bson:"description" json:"description"`
	Price           float64   `gorm:"not null;default:0" bson:"price" json:"price"`
	PrizeMoney      float64   `gorm:"not null;default:0" bson:"prizeMoney" json:"prizeMoney"`
	TaskInstruction string    `gorm:"type:text" bson:"taskInstruction" json:"taskInstruction"`
	ContestType     string    `gorm:"size:100" bson:"contestType" json:"contestType"`
	Deadline        time.Time `bson:"deadline" json:"deadline"`
	CreatedBy       string    `gorm:"size:255;index;not null" bson:"createdBy" json:"createdBy"`
	CreatorName     string    `gorm:"size:255" bson:"creatorName" json:"creatorName"`
	Status          string    `gorm:"size:20;index;not null;default:'pending'" bson:"status" json:"status"`
	Participants    []string  `gorm:"serializer:json" bson:"participants" json:"participants"`
	CreatedAt       time.Time `bson:"createdAt" json:"createdAt"`
}

const (
	ContestStatusPending  = "pending"
	ContestStatusApproved = "approved"
	ContestStatusRejected = "rejected"
)

func (c *Contest) HasParticipant(email string) bool {
	for _, p := range c.Participants {
		if p == email {
			return true
		}
	}
	return false
}

// AddParticipant appends email unless it is already present.
func (c *Contest) AddParticipant(email string) bool {
	if c.HasParticipant(email) {
		return false
	}
	c.Participants = append(c.Participants, email)
	return true
}

// ContestUpdate is the allow-list of fields a creator may change after creation.
type ContestUpdate struct {
	Name            *string
	Image           *string
	Description     *string
	Price           *float64
	PrizeMoney      *float64
	TaskInstruction *string
	ContestType     *string
	Deadline        *time.Time
}

func (u ContestUpdate) Empty() bool {
	return u.Name == nil && u.Image == nil && u.Description == nil && u.Price == nil &&
		u.PrizeMoney == nil && u.TaskInstruction == nil && u.ContestType == nil && u.Deadline == nil
}

func (u ContestUpdate) ApplyTo(c *Contest) {
	if u.Name != nil {
		c.Name = *u.Name
	}
	if u.Image != nil {
		c.Image = *u.Image
	}
	if u.Description != nil {
		c.Description = *u.Description
	}
	if u.Price != nil {
		c.Price = *u.Price
	}
	if u.PrizeMoney != nil {
		c.PrizeMoney = *u.PrizeMoney
	}
	if u.TaskInstruction != nil {
		c.TaskInstruction = *u.TaskInstruction
	}
	if u.ContestType != nil {
		c.ContestType = *u.ContestType
	}
	if u.Deadline != nil {
		c.Deadline = *u.Deadline
	}
}

// RankByParticipants returns the approved contests ordered by participant
// count, highest first, cut to limit. Ties keep their input order.
func RankByParticipants(contests []Contest, limit int) []Contest {
	ranked := make([]Contest, 0, len(contests))
	for _, c := range contests {
		if c.Status == ContestStatusApproved {
			ranked = append(ranked, c)
		}
	}
	sort.SliceStable(ranked, func(a, b int) bool {
		return len(ranked[a].Participants) > len(ranked[b].Participants)
	})
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
