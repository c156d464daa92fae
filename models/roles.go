package models

// UserRole is the closed set of roles known to the engine. The
// privileged set, the signature exemption and stage authorization all
// read from this one place.
type UserRole string

const (
	RoleAdmin          UserRole = "ADMIN"
	RoleCEO            UserRole = "CEO"
	RoleCOO            UserRole = "COO"
	RoleCFO            UserRole = "CFO"
	RoleFinance        UserRole = "FINANCE"
	RoleDepartmentHead UserRole = "DEPARTMENT_HEAD"
	RoleManager        UserRole = "MANAGER"
	RoleEmployee       UserRole = "EMPLOYEE"
)

var roleHumanName = map[UserRole]string{
	RoleAdmin:          "Administrator",
	RoleCEO:            "Chief Executive Officer",
	RoleCOO:            "Chief Operating Officer",
	RoleCFO:            "Chief Financial Officer",
	RoleFinance:        "Finance Officer",
	RoleDepartmentHead: "Department Head",
	RoleManager:        "Manager",
	RoleEmployee:       "Employee",
}

func (r UserRole) ToHuman() string {
	if human, exist := roleHumanName[r]; exist {
		return human
	}
	return string(r)
}

func (r UserRole) IsKnown() bool {
	_, exist := roleHumanName[r]
	return exist
}

func (r UserRole) IsAdmin() bool {
	return r == RoleAdmin
}

// privileged roles bypass stage-visibility checks
var privilegedRoles = map[UserRole]bool{
	RoleAdmin: true,
	RoleCEO:   true,
	RoleCOO:   true,
	RoleCFO:   true,
}

func (r UserRole) IsPrivileged() bool {
	return privilegedRoles[r]
}

// signature-exempt roles approve without a supporting upload;
// administrators are privileged but not exempt
var signatureExemptRoles = map[UserRole]bool{
	RoleCEO: true,
	RoleCOO: true,
	RoleCFO: true,
}

func (r UserRole) IsSignatureExempt() bool {
	return signatureExemptRoles[r]
}

const SystemUser = "system"

// Principal is the already-authenticated caller as supplied by the
// identity provider. The engine never verifies credentials itself.
type Principal struct {
	ID         string
	Role       UserRole
	Department string
	Email      string
	Name       string
}
