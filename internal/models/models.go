package models

import "time"

// Roles a User can hold.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// ValidRole reports whether role is one of the enumerated roles.
func ValidRole(role string) bool {
	return role == RoleUser || role == RoleAdmin
}

type User struct {
	ID                   int64      `db:"id" json:"id"`
	Username             string     `db:"username" json:"username"`
	Email                string     `db:"email" json:"email"`
	PasswordHash         string     `db:"password_hash" json:"-"`
	Role                 string     `db:"role" json:"role"`
	Blocked              bool       `db:"blocked" json:"blocked"`
	FirstName            string     `db:"first_name" json:"firstName"`
	LastName             string     `db:"last_name" json:"lastName"`
	Gender               string     `db:"gender" json:"gender"`
	ReceiveNotifications bool       `db:"receive_notifications" json:"receiveNotifications"`
	ProfilePhoto         *string    `db:"profile_photo" json:"profilePhoto,omitempty"`
	LastLogin            *time.Time `db:"last_login" json:"lastLogin,omitempty"`
	LastIP               *string    `db:"last_ip" json:"lastIP,omitempty"`
	CreatedAt            time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt            time.Time  `db:"updated_at" json:"updatedAt"`
}

// IsAdmin reports whether the user currently holds the admin role.
func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

// ProfileUpdate carries the user-editable profile fields; nil means unchanged.
type ProfileUpdate struct {
	FirstName            *string
	LastName             *string
	Gender               *string
	ReceiveNotifications *bool
}

// Empty reports whether the update changes nothing.
func (p ProfileUpdate) Empty() bool {
	return p.FirstName == nil && p.LastName == nil && p.Gender == nil && p.ReceiveNotifications == nil
}

// Activity is one append-only entry of a user's activity log.
type Activity struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"userId"`
	Action    string    `db:"action" json:"action"`
	Timestamp time.Time `db:"created_at" json:"timestamp"`
}

// Activity actions.
const (
	ActionSignup = "Signup"
	ActionLogin  = "Login"
)

// Answers is the fixed set of questionnaire answers.
type Answers struct {
	Age                   int     `db:"age" json:"age"`
	EmploymentStatus      string  `db:"employment_status" json:"employmentStatus"`
	Salary                float64 `db:"salary" json:"salary"`
	HomeOwnership         string  `db:"home_ownership" json:"homeOwnership"`
	HasDebt               string  `db:"has_debt" json:"hasDebt"`
	Lifestyle             string  `db:"lifestyle" json:"lifestyle"`
	Dependents            string  `db:"dependents" json:"dependents"`
	FinancialGoals        string  `db:"financial_goals" json:"financialGoals"`
	RiskTolerance         int     `db:"risk_tolerance" json:"riskTolerance"`
	InvestmentApproach    int     `db:"investment_approach" json:"investmentApproach"`
	EmergencyPreparedness int     `db:"emergency_preparedness" json:"emergencyPreparedness"`
	FinancialTracking     int     `db:"financial_tracking" json:"financialTracking"`
	FutureSecurity        int     `db:"future_security" json:"futureSecurity"`
	SpendingDiscipline    int     `db:"spending_discipline" json:"spendingDiscipline"`
	AssetAllocation       int     `db:"asset_allocation" json:"assetAllocation"`
	RiskTaking            int     `db:"risk_taking" json:"riskTaking"`
}

// Submission is a dated, immutable questionnaire record.
type Submission struct {
	ID     int64 `db:"id" json:"id"`
	UserID int64 `db:"user_id" json:"userId"`
	Answers
	// Day is the calendar day (midnight in the gate timezone) the submission counts against.
	Day       time.Time `db:"submission_day" json:"submissionDay"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Bucket is one group of an analytics breakdown.
type Bucket struct {
	Value string `db:"value" json:"value"`
	Count int    `db:"count" json:"count"`
}

// Overview aggregates admin-wide statistics.
type Overview struct {
	TotalUsers          int `db:"total_users" json:"totalUsers"`
	Admins              int `db:"admins" json:"admins"`
	BlockedUsers        int `db:"blocked_users" json:"blockedUsers"`
	TotalSubmissions    int `db:"total_submissions" json:"totalSubmissions"`
	SubmissionsToday    int `db:"submissions_today" json:"submissionsToday"`
	ActiveUsersThisWeek int `db:"active_users_this_week" json:"activeUsersThisWeek"`
}

// CustomExpense is a user-named recurring cost.
type CustomExpense struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

// FinancialProfile is a user's monthly budgeting baseline. Each user has at
// most one; saving it again updates it in place.
type FinancialProfile struct {
	UserID         int64           `db:"user_id" json:"userId"`
	Age            int             `db:"age" json:"age"`
	Occupation     string          `db:"occupation" json:"occupation"`
	FinancialGoals string          `db:"financial_goals" json:"financialGoals"`
	Income         float64         `db:"income" json:"income"`
	Rent           float64         `db:"rent" json:"rent"`
	Utilities      float64         `db:"utilities" json:"utilities"`
	DietPlan       string          `db:"diet_plan" json:"dietPlan"`
	TransportCost  float64         `db:"transport_cost" json:"transportCost"`
	OtherRecurring float64         `db:"other_recurring" json:"otherRecurring"`
	SavingAmount   float64         `db:"saving_amount" json:"savingAmount"`
	CustomExpenses []CustomExpense `db:"-" json:"customExpenses"`
	CreatedAt      time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updatedAt"`
}
