package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// IssueType enum
type IssueType string

const (
	Infrastructure IssueType = "infrastructure"
	Sanitation     IssueType = "sanitation"
	Safety         IssueType = "safety"
	Other          IssueType = "other"
)

// IssueStatus enum
type IssueStatus string

const (
	Pending    IssueStatus = "pending"
	InProgress IssueStatus = "in_progress"
	Resolved   IssueStatus = "resolved"
)

// UnknownAddress is stored when reverse geocoding is unavailable.
const UnknownAddress = "Unknown location"

// MaxIssueImages bounds the number of photos per submission.
const MaxIssueImages = 5

// GeoPoint is a GeoJSON point. Coordinates are [longitude, latitude] and are
// always a 2-element pair, zero-filled when the reporter gave no live location.
type GeoPoint struct {
	Type        string    `bson:"type" json:"type"`
	Coordinates []float64 `bson:"coordinates" json:"coordinates"`
}

// NewGeoPoint returns a Point at (lng, lat).
func NewGeoPoint(lng, lat float64) GeoPoint {
	return GeoPoint{Type: "Point", Coordinates: []float64{lng, lat}}
}

// Issue represents a civic issue reported by a citizen
type Issue struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Title       string             `bson:"title" json:"title"`
	Type        IssueType          `bson:"type" json:"type"`
	Description string             `bson:"description" json:"description"`
	Images      []string           `bson:"images" json:"images"`
	Location    GeoPoint           `bson:"location" json:"location"`
	Address     string             `bson:"address" json:"address"`
	Status      IssueStatus        `bson:"status" json:"status"`
	ReportedBy  primitive.ObjectID `bson:"reportedBy" json:"reportedBy"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
}

// NormalizeType maps a raw category string onto the enum, defaulting to Other.
func NormalizeType(raw string) IssueType {
	switch IssueType(raw) {
	case Infrastructure, Sanitation, Safety:
		return IssueType(raw)
	default:
		return Other
	}
}

var statusRank = map[IssueStatus]int{
	Pending:    0,
	InProgress: 1,
	Resolved:   2,
}

// ValidTargetStatus reports whether s is a status an admin may set explicitly.
// Pending is only ever assigned at creation.
func ValidTargetStatus(s IssueStatus) bool {
	return s == InProgress || s == Resolved
}

// CanTransition reports whether an issue may move from its current status to
// the target. The lifecycle only moves forward; re-submitting the current
// status is allowed and treated as idempotent.
func CanTransition(from, to IssueStatus) bool {
	if !ValidTargetStatus(to) {
		return false
	}
	return statusRank[to] >= statusRank[from]
}
