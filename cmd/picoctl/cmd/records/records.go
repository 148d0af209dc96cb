// Package records implements the record-collection commands: one command
// group per collection (clinics, employees, clients, users), each driving a
// grid controller and its permission-gated action dispatcher.
package records

import (
	"github.com/spf13/cobra"

	"github.com/picobrain/console/pkg/authz"
	"github.com/picobrain/console/pkg/sdk"
)

// collection describes one record collection: its API name, authorization
// resource, row identity, and how a row renders in tables and CSV exports.
type collection[T any] struct {
	name     string
	singular string
	resource string
	rowKey   func(T) string
	headers  []string
	render   func(T) []string
}

// Commands returns the top-level command per collection.
func Commands() []*cobra.Command {
	return []*cobra.Command{
		newCollectionCmd(clinics),
		newCollectionCmd(employees),
		newCollectionCmd(clientRecords),
		newCollectionCmd(users),
	}
}

func newCollectionCmd[T any](spec collection[T]) *cobra.Command {
	cmd := &cobra.Command{
		Use:   spec.name,
		Short: "Manage " + spec.name,
	}
	cmd.AddCommand(newListCmd(spec))
	cmd.AddCommand(newGetCmd(spec))
	cmd.AddCommand(newCreateCmd(spec))
	cmd.AddCommand(newUpdateCmd(spec))
	cmd.AddCommand(newDeleteCmd(spec))
	cmd.AddCommand(newExportCmd(spec))
	return cmd
}

var clinics = collection[sdk.Clinic]{
	name:     "clinics",
	singular: "clinic",
	resource: authz.ResourceClinics,
	rowKey:   func(c sdk.Clinic) string { return c.ID },
	headers:  []string{"ID", "CODE", "NAME", "CURRENCY", "CITY", "COUNTRY", "ACTIVE"},
	render: func(c sdk.Clinic) []string {
		return []string{c.ID, c.Code, c.Name, c.FunctionalCurrency, deref(c.City), deref(c.CountryCode), yesNo(c.IsActive)}
	},
}

var employees = collection[sdk.Employee]{
	name:     "employees",
	singular: "employee",
	resource: authz.ResourceEmployees,
	rowKey:   func(e sdk.Employee) string { return e.ID },
	headers:  []string{"ID", "CODE", "NAME", "ROLE", "CLINIC_ID", "TREATS", "ACTIVE"},
	render: func(e sdk.Employee) []string {
		return []string{e.ID, deref(e.EmployeeCode), personName(e.Person), e.Role, e.PrimaryClinicID, yesNo(e.CanPerformTreatments), yesNo(e.IsActive)}
	},
}

var clientRecords = collection[sdk.ClientRecord]{
	name:     "clients",
	singular: "client",
	resource: authz.ResourceClients,
	rowKey:   func(c sdk.ClientRecord) string { return c.ID },
	headers:  []string{"ID", "CODE", "NAME", "PREFERRED_CLINIC", "ACQUIRED", "ACTIVE"},
	render: func(c sdk.ClientRecord) []string {
		return []string{c.ID, deref(c.ClientCode), personName(c.Person), deref(c.PreferredClinicID), deref(c.AcquisitionDate), yesNo(c.IsActive)}
	},
}

var users = collection[sdk.User]{
	name:     "users",
	singular: "user",
	resource: authz.ResourceUsers,
	rowKey:   func(u sdk.User) string { return u.ID },
	headers:  []string{"ID", "USERNAME", "ROLE", "ACTIVE"},
	render: func(u sdk.User) []string {
		return []string{u.ID, u.Username, u.Role, yesNo(u.IsActive)}
	},
}

func deref(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func personName(p *sdk.Person) string {
	if p == nil {
		return "-"
	}
	return p.FirstName + " " + p.LastName
}
