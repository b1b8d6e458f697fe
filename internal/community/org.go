package community

// Organization is the fixed partition tag scoping workshops, announcements
// and officer authority.
type Organization string

const (
	OrgCES     Organization = "CES"
	OrgTCC     Organization = "TCC"
	OrgICSO    Organization = "ICSO"
	OrgGeneral Organization = "GENERAL"
)

// Organizations lists every valid organization.
func Organizations() []Organization {
	return []Organization{OrgCES, OrgTCC, OrgICSO, OrgGeneral}
}

// Valid reports whether o is one of the known organizations.
func (o Organization) Valid() bool {
	switch o {
	case OrgCES, OrgTCC, OrgICSO, OrgGeneral:
		return true
	}
	return false
}
