package domain

// EmployeeRequest is the payload sent to the employee service when a user is
// registered. UserID equals the freshly inserted User.ID.
type EmployeeRequest struct {
	UserID       int64  `json:"id"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	DepartmentID int64  `json:"departmentId"`
	PositionID   int64  `json:"positionId"`
	SuperiorID   *int64 `json:"superiorId,omitempty"`
	IsApprover   bool   `json:"isApprover"`
}

// EmployeeProfile is the employee service's view of a user.
type EmployeeProfile struct {
	UserID       int64  `json:"id"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	DepartmentID int64  `json:"departmentId"`
	CompanyID    int64  `json:"companyId"`
	PositionID   int64  `json:"positionId"`
	SuperiorID   *int64 `json:"superiorId,omitempty"`
	IsApprover   bool   `json:"isApprover"`
}
