package wizard

import "github.com/fforsikring/prisberegner/internal/registry"

// Steps of the calculator flow.
const (
	StepCompany   = 1
	StepEmployees = 2
	StepResult    = 3
)

// State is the full view of one calculator session.
//
// Roles always has exactly EmployeeCount entries; changing the count
// preserves existing selections and fills new slots with the catalogue
// default.
type State struct {
	Step          int
	Calculating   bool
	CVRDigits     string
	Company       *registry.Company
	CompanyNotice string
	EmployeeCount int
	Roles         []string
	Total         int
	Submitted     bool
}
