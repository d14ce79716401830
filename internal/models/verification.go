package models

import "time"

// ManagerVerification is the one-time identity/property check gating a
// manager's ability to list hostels. At most one PENDING per manager.
type ManagerVerification struct {
	ID            string             `json:"id"`
	ManagerID     string             `json:"manager_id"`
	OwnerName     string             `json:"owner_name"`
	City          string             `json:"city"`
	Address       string             `json:"address"`
	HostelNames   string             `json:"hostel_names"`
	HostelFor     string             `json:"hostel_for"`
	BuildingImage string             `json:"building_image,omitempty"`
	AcceptedRules bool               `json:"accepted_rules"`
	Status        VerificationStatus `json:"status"`
	AdminComment  string             `json:"admin_comment,omitempty"`
	ReviewedBy    string             `json:"reviewed_by,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}
