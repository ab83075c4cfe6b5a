package models

// Member roles. ADMIN and CAPTAIN are the administrator tier allowed to
// create events, extend schedules and record transactions.
const (
	RoleAdmin   = "ADMIN"
	RoleCaptain = "CAPTAIN"
	RolePlayer  = "PLAYER"
)

// Roster availability, display only.
const (
	StatusActive   = "ACTIVE"
	StatusInjured  = "INJURED"
	StatusReserve  = "RESERVE"
	StatusVacation = "VACATION"
)

type Member struct {
	ID           string  `json:"id"`
	TeamID       string  `json:"team_id"`
	Name         string  `json:"name"`
	Nickname     string  `json:"nickname"`
	Avatar       string  `json:"avatar,omitempty"`
	Role         string  `json:"role"`
	Status       string  `json:"status"`
	Balance      float64 `json:"balance"` // negative = owes the team
	PasswordHash string  `json:"-"`
}

// IsAdminTier reports whether the member may perform privileged mutations.
func (m *Member) IsAdminTier() bool {
	return m.Role == RoleAdmin || m.Role == RoleCaptain
}

type LoginRequest struct {
	Nickname string `json:"nickname" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	Token  string `json:"token"`
	Member Member `json:"member"`
}
