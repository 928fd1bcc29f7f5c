package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// IssueCategory enum
type IssueCategory string

const (
	CategoryRoads        IssueCategory = "roads"
	CategoryStreetlights IssueCategory = "streetlights"
	CategoryGarbage      IssueCategory = "garbage"
	CategoryWater        IssueCategory = "water"
	CategoryDrainage     IssueCategory = "drainage"
	CategoryParks        IssueCategory = "parks"
	CategoryTraffic      IssueCategory = "traffic"
	CategoryOther        IssueCategory = "other"
)

// Categories lists every accepted issue category.
var Categories = []IssueCategory{
	CategoryRoads, CategoryStreetlights, CategoryGarbage, CategoryWater,
	CategoryDrainage, CategoryParks, CategoryTraffic, CategoryOther,
}

// ParseCategory validates a raw category value against the enumeration.
func ParseCategory(s string) (IssueCategory, bool) {
	for _, c := range Categories {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

// IssueStatus enum
type IssueStatus string

const (
	StatusPending    IssueStatus = "pending"
	StatusInProgress IssueStatus = "in-progress"
	StatusResolved   IssueStatus = "resolved"
)

// ParseStatus validates a raw status value against the enumeration.
func ParseStatus(s string) (IssueStatus, bool) {
	switch IssueStatus(s) {
	case StatusPending, StatusInProgress, StatusResolved:
		return IssueStatus(s), true
	}
	return "", false
}

// transitions is the directed graph of legal status changes. Pending issues
// must pass through in-progress before they can be resolved, and resolved
// issues may be reopened.
var transitions = map[IssueStatus][]IssueStatus{
	StatusPending:    {StatusInProgress},
	StatusInProgress: {StatusResolved},
	StatusResolved:   {StatusInProgress},
}

// CanTransition reports whether an issue may move from one status to another.
func CanTransition(from, to IssueStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IssuePriority enum
type IssuePriority string

const (
	PriorityLow    IssuePriority = "low"
	PriorityMedium IssuePriority = "medium"
	PriorityHigh   IssuePriority = "high"
)

// ParsePriority validates a raw priority value against the enumeration.
func ParsePriority(s string) (IssuePriority, bool) {
	switch IssuePriority(s) {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return IssuePriority(s), true
	}
	return "", false
}

// Issue represents a civic issue reported by a citizen. Status is only
// mutated through the triage state machine and priority is assigned once
// at creation.
type Issue struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	Category    IssueCategory      `bson:"category" json:"category"`
	State       string             `bson:"state" json:"state"`
	Location    string             `bson:"location" json:"location"`
	ImageURL    string             `bson:"imageUrl" json:"imageUrl"`
	Status      IssueStatus        `bson:"status" json:"status"`
	Priority    IssuePriority      `bson:"priority" json:"priority"`
	ReporterID  primitive.ObjectID `bson:"reporterId" json:"reporterId"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}
