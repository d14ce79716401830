package models

import "time"

type Hostel struct {
	ID                   string     `json:"id"`
	ManagerID            string     `json:"manager_id"`
	Name                 string     `json:"name"`
	City                 string     `json:"city"`
	Address              string     `json:"address"`
	HostelType           HostelType `json:"hostel_type"`
	HostelFor            string     `json:"hostel_for"`
	TotalRooms           int64      `json:"total_rooms"`
	AvailableRooms       int64      `json:"available_rooms"`
	PersonsInRoom        int64      `json:"persons_in_room"`
	RoomPrice            int64      `json:"room_price,omitempty"`
	PricePerHeadShared   int64      `json:"price_per_head_shared,omitempty"`
	PricePerHeadFullRoom int64      `json:"price_per_head_full_room,omitempty"`
	Facilities           string     `json:"facilities,omitempty"`
	Rules                string     `json:"rules,omitempty"`
	AverageRating        float64    `json:"average_rating"`
	ReviewCount          int64      `json:"review_count"`
	IsActive             bool       `json:"is_active"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// Price returns the booking amount for the hostel's type. The second
// return is false when the matching price field is unset.
func (h *Hostel) Price() (int64, bool) {
	switch h.HostelType {
	case HostelPrivate:
		return h.RoomPrice, h.RoomPrice > 0
	case HostelShared:
		return h.PricePerHeadShared, h.PricePerHeadShared > 0
	case HostelSharedFullRoom:
		return h.PricePerHeadFullRoom, h.PricePerHeadFullRoom > 0
	default:
		return 0, false
	}
}

type Review struct {
	ID        string    `json:"id"`
	BookingID string    `json:"booking_id"`
	HostelID  string    `json:"hostel_id"`
	Rating    int64     `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}
